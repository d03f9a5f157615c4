package domain

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/zig_transfer/config"
	"github.com/linlinbupt123-crypto/zig_transfer/entity"
	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
	"github.com/linlinbupt123-crypto/zig_transfer/utils"
)

// Plan is the amount to send from one wallet, in base units. A non-empty
// SkipReason means nothing is sent.
type Plan struct {
	Amount     decimal.Decimal
	SkipReason string
}

func (p Plan) Skipped() bool {
	return p.SkipReason != ""
}

// AmountPlanner decides per wallet how much to send for the run's transfer mode.
type AmountPlanner struct {
	decimals  int32
	reserve   decimal.Decimal
	randomMin int64
	randomMax int64
	rng       *rand.Rand
}

func NewAmountPlanner(cfg config.Config, rng *rand.Rand) (*AmountPlanner, error) {
	reserve, err := decimal.NewFromString(cfg.Transfer.FeeReserve)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.InvalidInputErr, "parse transfer.fee_reserve", err)
	}
	if reserve.IsNegative() {
		return nil, wrapErrors.New(wrapErrors.InvalidInputErr, "transfer.fee_reserve must not be negative")
	}
	t := cfg.Transfer
	if t.RandomMin < 1 || t.RandomMax < t.RandomMin {
		return nil, wrapErrors.Newf(wrapErrors.InvalidInputErr,
			"invalid random range [%d, %d]", t.RandomMin, t.RandomMax)
	}
	return &AmountPlanner{
		decimals:  cfg.Chain.Decimals,
		reserve:   utils.ToBase(reserve, cfg.Chain.Decimals),
		randomMin: t.RandomMin,
		randomMax: t.RandomMax,
		rng:       rng,
	}, nil
}

// Plan computes the amount for a wallet holding balance base units.
func (p *AmountPlanner) Plan(req entity.TransferRequest, balance decimal.Decimal) Plan {
	switch req.Mode {
	case entity.ModeFixedAmount:
		amount := utils.ToBase(req.Amount, p.decimals)
		if !amount.IsPositive() {
			return Plan{SkipReason: fmt.Sprintf("amount %s rounds to zero base units", req.Amount)}
		}
		return p.fit(amount, balance)

	case entity.ModeRandomAmount:
		whole := p.randomMin + p.rng.Int63n(p.randomMax-p.randomMin+1)
		return p.fit(utils.ToBase(decimal.NewFromInt(whole), p.decimals), balance)

	case entity.ModeAllBalance:
		amount := balance.Sub(p.reserve)
		if !amount.IsPositive() {
			reason := "balance does not cover the fee reserve of " + utils.FormatDisplay(p.reserve, p.decimals)
			return Plan{Amount: amount, SkipReason: reason}
		}
		return Plan{Amount: amount}
	}
	return Plan{SkipReason: "unknown transfer mode " + req.Mode.String()}
}

func (p *AmountPlanner) fit(amount, balance decimal.Decimal) Plan {
	if amount.GreaterThan(balance) {
		reason := fmt.Sprintf("amount %s exceeds balance %s",
			utils.FormatDisplay(amount, p.decimals), utils.FormatDisplay(balance, p.decimals))
		return Plan{Amount: amount, SkipReason: reason}
	}
	return Plan{Amount: amount}
}
