package service

import (
	"context"
	"encoding/hex"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/linlinbupt123-crypto/zig_transfer/chain"
	"github.com/linlinbupt123-crypto/zig_transfer/config"
	"github.com/linlinbupt123-crypto/zig_transfer/domain"
	"github.com/linlinbupt123-crypto/zig_transfer/entity"
	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
	"github.com/linlinbupt123-crypto/zig_transfer/request"
	"github.com/linlinbupt123-crypto/zig_transfer/retry"
	"github.com/linlinbupt123-crypto/zig_transfer/utils"
)

const (
	reasonBadCredential  = "invalid credential"
	reasonConnectFailed  = "connect failed"
	reasonBalanceFailed  = "balance query failed"
	reasonNoBalance      = "insufficient balance"
	reasonTransferFailed = "transfer failed"
)

// WalletLister supplies the credentials to process, in order.
type WalletLister interface {
	List() ([]entity.WalletCredential, error)
}

type TransferService struct {
	cfg       config.Config
	connector chain.Connector
	wallets   WalletLister
	input     request.InputProvider
	log       *logrus.Logger
	keys      *domain.KeyRing
	planner   *domain.AmountPlanner
	rng       *rand.Rand
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*TransferService)

// WithSleep replaces the delay used for retries and pauses.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *TransferService) { s.sleep = sleep }
}

// WithRand seeds the random amount mode.
func WithRand(rng *rand.Rand) Option {
	return func(s *TransferService) { s.rng = rng }
}

func NewTransferService(
	cfg config.Config,
	connector chain.Connector,
	wallets WalletLister,
	input request.InputProvider,
	log *logrus.Logger,
	opts ...Option,
) (*TransferService, error) {
	s := &TransferService{
		cfg:       cfg,
		connector: connector,
		wallets:   wallets,
		input:     input,
		log:       log,
		keys:      domain.NewKeyRing(cfg.Chain.Prefix),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     retry.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}

	planner, err := domain.NewAmountPlanner(cfg, s.rng)
	if err != nil {
		return nil, err
	}
	s.planner = planner
	return s, nil
}

// Run sends from every listed wallet to the configured recipient. Only
// recipient, wallet file, input and initial probe failures abort the run;
// per-wallet failures are recorded in the report and the loop moves on.
func (s *TransferService) Run(ctx context.Context) (entity.Report, error) {
	report := entity.Report{RunID: uuid.NewString()}
	log := s.log.WithField("run_id", report.RunID)

	if err := s.checkRecipient(log); err != nil {
		log.WithError(err).Error("invalid recipient")
		return report, err
	}

	creds, err := s.wallets.List()
	if err != nil {
		log.WithError(err).Error("load wallets failed")
		return report, err
	}
	log.Infof("loaded %d wallets", len(creds))

	req, err := request.ReadTransferRequest(s.input, s.cfg.Chain.Symbol)
	if err != nil {
		log.WithError(err).Error("read transfer mode failed")
		return report, err
	}
	log = log.WithField("mode", req.Mode.String())
	if req.Mode == entity.ModeFixedAmount {
		log = log.WithField("requested", req.Amount.String()+" "+s.cfg.Chain.Symbol)
	}

	probe, err := s.connect(ctx, log, nil)
	if err != nil {
		log.WithError(err).Errorf("cannot reach %s", s.cfg.Chain.RPC)
		return report, err
	}
	probe.Close()
	log.Infof("connected to %s (%s)", s.cfg.Chain.RPC, s.cfg.Chain.ChainID)

	for i, cred := range creds {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("run interrupted")
			return report, err
		}
		wlog := log.WithFields(logrus.Fields{"index": i + 1, "wallet": cred.Address})
		outcome := s.processWallet(ctx, wlog, cred, req)
		outcome.Index = i
		report.Outcomes = append(report.Outcomes, outcome)
	}

	log.WithFields(logrus.Fields{
		"visited":     len(report.Outcomes),
		"transferred": report.Count(entity.StatusTransferred),
		"skipped":     report.Count(entity.StatusSkipped),
		"failed":      report.Count(entity.StatusFailed),
	}).Info("run finished")
	return report, nil
}

func (s *TransferService) checkRecipient(log *logrus.Entry) error {
	to := s.cfg.Recipient
	log.WithFields(logrus.Fields{
		"recipient": to,
		"length":    len(to),
		"hex":       hex.EncodeToString([]byte(to)),
	}).Debug("recipient")
	if !chain.HasAddressPrefix(to, s.cfg.Chain.Prefix) {
		return wrapErrors.Newf(wrapErrors.InvalidRecipient, "recipient %q must start with %s1", to, s.cfg.Chain.Prefix)
	}
	return nil
}

func (s *TransferService) policy(log *logrus.Entry, what string) retry.Policy {
	return retry.Policy{
		MaxAttempts: s.cfg.Retry.MaxAttempts,
		Delay:       s.cfg.Retry.Delay,
		Sleep:       s.sleep,
		OnRetry: func(attempt int, err error) {
			log.WithError(err).Warnf("%s rate limited, retrying in %s (attempt %d/%d)",
				what, s.cfg.Retry.Delay, attempt, s.cfg.Retry.MaxAttempts)
		},
	}
}

// connect opens a fresh session, retrying only on rate limits.
func (s *TransferService) connect(ctx context.Context, log *logrus.Entry, signer *chain.Signer) (chain.Session, error) {
	return retry.Do(ctx, s.policy(log, "connect"), chain.IsRateLimited,
		func(ctx context.Context) (chain.Session, error) {
			return s.connector.Connect(ctx, signer)
		})
}

func (s *TransferService) processWallet(ctx context.Context, log *logrus.Entry, cred entity.WalletCredential, req entity.TransferRequest) entity.TransferOutcome {
	outcome := entity.TransferOutcome{Address: cred.Address}
	skip := func(reason string) entity.TransferOutcome {
		outcome.Status = entity.StatusSkipped
		outcome.Reason = reason
		return outcome
	}

	signer, err := s.keys.Signer(cred)
	if err != nil {
		log.WithError(err).Error("cannot build signer, skipping wallet")
		return skip(reasonBadCredential)
	}

	sess, err := s.connect(ctx, log, signer)
	if err != nil {
		log.WithError(err).Error("connect failed, skipping wallet")
		return skip(reasonConnectFailed)
	}
	defer func() {
		if sess != nil {
			sess.Close()
		}
	}()

	balance, err := s.readBalance(ctx, log, signer, &sess)
	if err != nil {
		log.WithError(err).Error("balance query failed, skipping wallet")
		return skip(reasonBalanceFailed)
	}
	log.Infof("balance %s %s", utils.FormatDisplay(balance, s.cfg.Chain.Decimals), s.cfg.Chain.Symbol)
	if !balance.IsPositive() {
		log.Warn("no balance, skipping wallet")
		return skip(reasonNoBalance)
	}

	plan := s.planner.Plan(req, balance)
	outcome.Amount = plan.Amount
	if plan.Skipped() {
		log.Warnf("skipping wallet: %s", plan.SkipReason)
		return skip(plan.SkipReason)
	}

	hash, ok := s.transfer(ctx, log, sess, signer, plan.Amount)
	outcome.TxHash = hash
	if ok {
		outcome.Status = entity.StatusTransferred
	} else {
		outcome.Status = entity.StatusFailed
		outcome.Reason = reasonTransferFailed
	}

	if err := s.sleep(ctx, s.cfg.Transfer.Pause); err != nil {
		log.WithError(err).Debug("pause interrupted")
	}
	return outcome
}

// readBalance queries the signer's balance under the retry policy. Each retry
// replaces *sess with a new session since sessions are not reused after a
// failed call.
func (s *TransferService) readBalance(ctx context.Context, log *logrus.Entry, signer *chain.Signer, sess *chain.Session) (decimal.Decimal, error) {
	attempt := 0
	return retry.Do(ctx, s.policy(log, "balance query"), chain.IsRateLimited,
		func(ctx context.Context) (decimal.Decimal, error) {
			attempt++
			if attempt > 1 {
				if *sess != nil {
					(*sess).Close()
					*sess = nil
				}
				fresh, err := s.connector.Connect(ctx, signer)
				if err != nil {
					return decimal.Zero, err
				}
				*sess = fresh
			}
			asset, err := (*sess).GetBalance(ctx, signer.Address())
			if err != nil {
				return decimal.Zero, err
			}
			return asset.Amount, nil
		})
}

// transfer never propagates: every failure is logged and reported as false.
func (s *TransferService) transfer(ctx context.Context, log *logrus.Entry, sess chain.Session, signer *chain.Signer, amount decimal.Decimal) (string, bool) {
	display := utils.FormatDisplay(amount, s.cfg.Chain.Decimals) + " " + s.cfg.Chain.Symbol

	hash, err := sess.SendTokens(ctx, chain.SendRequest{
		From:   signer.Address(),
		To:     s.cfg.Recipient,
		Amount: amount,
	})
	if err != nil {
		entry := log.WithError(err).WithField("code", wrapErrors.CodeOf(err))
		if hash != "" {
			entry = entry.WithField("tx_hash", hash)
		}
		entry.Errorf("transfer of %s failed", display)
		return hash, false
	}

	log.WithFields(logrus.Fields{
		"from":    signer.Address(),
		"to":      s.cfg.Recipient,
		"tx_hash": hash,
	}).Infof("transferred %s", display)
	return hash, true
}
