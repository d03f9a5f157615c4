package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/zig_transfer/config"
	"github.com/linlinbupt123-crypto/zig_transfer/entity"
	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
	"github.com/linlinbupt123-crypto/zig_transfer/retry"
)

var (
	_ Connector = (*CosmosChain)(nil)
	_ Session   = (*cosmosSession)(nil)
)

// CosmosChain connects to a Cosmos SDK chain through its CometBFT RPC.
type CosmosChain struct {
	cfg      config.ChainConfig
	gasPrice GasPrice
}

func NewCosmosChain(cfg config.ChainConfig) (*CosmosChain, error) {
	gasPrice, err := ParseGasPrice(cfg.GasPrice)
	if err != nil {
		return nil, err
	}
	return &CosmosChain{cfg: cfg, gasPrice: gasPrice}, nil
}

// Connect makes a single attempt: dial, then probe status and check the
// network id. Retrying is up to the caller.
func (c *CosmosChain) Connect(ctx context.Context, signer *Signer) (Session, error) {
	rpcc, err := dialComet(ctx, c.cfg.RPC, c.cfg.RequestTimeout, c.cfg.RequestsPerSecond)
	if err != nil {
		return nil, wrapRPC(wrapErrors.DailChain, "dial "+c.cfg.RPC, err)
	}

	st, err := rpcc.status(ctx)
	if err != nil {
		rpcc.close()
		return nil, wrapRPC(wrapErrors.DailChain, "status "+c.cfg.RPC, err)
	}
	if st.NodeInfo.Network != c.cfg.ChainID {
		rpcc.close()
		return nil, wrapErrors.Newf(wrapErrors.GetchainIDErr,
			"endpoint serves chain %q, want %q", st.NodeInfo.Network, c.cfg.ChainID)
	}

	return &cosmosSession{
		chain:  c,
		rpc:    rpcc,
		signer: signer,
	}, nil
}

type cosmosSession struct {
	chain  *CosmosChain
	rpc    *cometRPC
	signer *Signer
}

func (s *cosmosSession) Close() {
	s.rpc.close()
}

// GetBalance returns the balance of the configured denom in base units.
func (s *cosmosSession) GetBalance(ctx context.Context, address string) (entity.Asset, error) {
	denom := s.chain.cfg.Denom
	res, err := s.rpc.abciQuery(ctx, pathQueryBalance, encodeQueryBalanceRequest(address, denom))
	if err != nil {
		return entity.Asset{}, wrapRPC(wrapErrors.QueryBalanceErr, "query balance "+address, err)
	}
	if res.Response.Code != 0 {
		return entity.Asset{}, wrapErrors.WrapWithCode(wrapErrors.QueryBalanceErr, "query balance "+address,
			abciError(res.Response.Code, res.Response.Codespace, res.Response.Log))
	}

	c, err := decodeQueryBalanceResponse(res.Response.Value)
	if err != nil {
		return entity.Asset{}, wrapErrors.WrapWithCode(wrapErrors.QueryBalanceErr, "decode balance", err)
	}
	amount := decimal.Zero
	if c.Amount != "" {
		if amount, err = decimal.NewFromString(c.Amount); err != nil {
			return entity.Asset{}, wrapErrors.WrapWithCode(wrapErrors.QueryBalanceErr, "decode balance amount", err)
		}
	}
	return entity.Asset{Address: address, Denom: denom, Amount: amount}, nil
}

func (s *cosmosSession) account(ctx context.Context, address string) (baseAccount, error) {
	res, err := s.rpc.abciQuery(ctx, pathQueryAccount, encodeQueryAccountRequest(address))
	if err != nil {
		return baseAccount{}, wrapRPC(wrapErrors.QueryAccountErr, "query account "+address, err)
	}
	if res.Response.Code != 0 {
		return baseAccount{}, wrapErrors.WrapWithCode(wrapErrors.QueryAccountErr, "query account "+address,
			abciError(res.Response.Code, res.Response.Codespace, res.Response.Log))
	}
	acc, err := decodeQueryAccountResponse(res.Response.Value)
	if err != nil {
		return baseAccount{}, wrapErrors.WrapWithCode(wrapErrors.QueryAccountErr, "decode account", err)
	}
	return acc, nil
}

// SendTokens signs a single MsgSend with SIGN_MODE_DIRECT, broadcasts it and,
// when a confirm timeout is configured, waits for inclusion. It returns the
// upper-case hex tx hash.
func (s *cosmosSession) SendTokens(ctx context.Context, req SendRequest) (string, error) {
	if s.signer == nil {
		return "", wrapErrors.New(wrapErrors.SignerErr, "session has no signer")
	}
	from := s.signer.Address()
	if req.From != "" && req.From != from {
		return "", wrapErrors.Newf(wrapErrors.SignerErr, "signer address %s does not match sender %s", from, req.From)
	}
	amount := req.Amount.Floor()
	if !amount.IsPositive() {
		return "", wrapErrors.Newf(wrapErrors.SendTxErr, "amount %s must be positive", amount)
	}

	cfg := s.chain.cfg
	acc, err := s.account(ctx, from)
	if err != nil {
		return "", err
	}

	msg := encodeAny(typeURLMsgSend, encodeMsgSend(from, req.To, []coin{{Denom: cfg.Denom, Amount: amount.String()}}))
	body := encodeTxBody([][]byte{msg}, cfg.Memo)
	fee := coin{Denom: s.chain.gasPrice.Denom, Amount: s.chain.gasPrice.Fee(cfg.GasLimit).String()}
	authInfo := encodeAuthInfo(s.signer.PubKey(), acc.Sequence, []coin{fee}, cfg.GasLimit)

	sig, err := s.signer.Sign(encodeSignDoc(body, authInfo, cfg.ChainID, acc.AccountNumber))
	if err != nil {
		return "", err
	}
	txBytes := encodeTxRaw(body, authInfo, [][]byte{sig})
	sum := sha256.Sum256(txBytes)
	hash := strings.ToUpper(hex.EncodeToString(sum[:]))

	res, err := s.rpc.broadcastTxSync(ctx, txBytes)
	if err != nil {
		return "", wrapRPC(wrapErrors.SendTxErr, "broadcast_tx_sync", err)
	}
	if res.Code != 0 {
		return "", wrapErrors.WrapWithCode(wrapErrors.TxRejected, "check tx "+hash,
			abciError(res.Code, res.Codespace, res.Log))
	}
	if res.Hash != "" {
		hash = strings.ToUpper(res.Hash)
	}

	if cfg.ConfirmTimeout > 0 {
		if err := s.waitForTx(ctx, sum[:], hash); err != nil {
			return hash, err
		}
	}
	return hash, nil
}

// waitForTx polls the tx endpoint until the transaction is indexed. Lookup
// errors are expected while the tx is still pending.
func (s *cosmosSession) waitForTx(ctx context.Context, rawHash []byte, hash string) error {
	cfg := s.chain.cfg
	deadline := time.Now().Add(cfg.ConfirmTimeout)
	var lastErr error
	for {
		res, err := s.rpc.tx(ctx, rawHash)
		if err == nil {
			if res.TxResult.Code != 0 {
				return wrapErrors.WrapWithCode(wrapErrors.TxRejected, "deliver tx "+hash,
					abciError(res.TxResult.Code, res.TxResult.Codespace, res.TxResult.Log))
			}
			return nil
		}
		lastErr = err

		if !time.Now().Before(deadline) {
			return wrapErrors.WrapWithCode(wrapErrors.ConfirmTxErr,
				fmt.Sprintf("tx %s not included after %s", hash, cfg.ConfirmTimeout), lastErr)
		}
		if err := retry.Sleep(ctx, cfg.ConfirmInterval); err != nil {
			return wrapErrors.WrapWithCode(wrapErrors.ConfirmTxErr, "wait for tx "+hash, err)
		}
	}
}
