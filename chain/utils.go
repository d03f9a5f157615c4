package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"

	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
)

// IsRateLimited reports whether err carries an HTTP 429 from the endpoint.
// Text matching applies to the root cause only, never to wrapping ops.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if wrapErrors.Is(err, wrapErrors.RateLimited) {
		return true
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests
	}
	return strings.Contains(rootCause(err).Error(), tooManyRequests)
}

var tooManyRequests = fmt.Sprintf("%d %s", http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// wrapRPC tags rate-limit failures with RateLimited so callers and logs can
// tell them apart from the operation's own failure code.
func wrapRPC(code wrapErrors.Code, op string, err error) error {
	if IsRateLimited(err) {
		code = wrapErrors.RateLimited
	}
	return wrapErrors.WrapWithCode(code, op, err)
}

// GasPrice is an amount per unit of gas, e.g. 0.025uzig.
type GasPrice struct {
	Amount decimal.Decimal
	Denom  string
}

var gasPriceRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-zA-Z][a-zA-Z0-9/:._-]{2,127})$`)

func ParseGasPrice(s string) (GasPrice, error) {
	m := gasPriceRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return GasPrice{}, wrapErrors.Newf(wrapErrors.CodeGasPriceFormat, "invalid gas price %q", s)
	}
	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return GasPrice{}, wrapErrors.WrapWithCode(wrapErrors.CodeGasPriceFormat, "parse gas price", err)
	}
	return GasPrice{Amount: amount, Denom: m[2]}, nil
}

func (g GasPrice) String() string {
	return g.Amount.String() + g.Denom
}

// Fee is ceil(gasLimit * price), the same rounding cosmjs calculateFee uses.
func (g GasPrice) Fee(gasLimit uint64) decimal.Decimal {
	return g.Amount.Mul(decimal.NewFromInt(int64(gasLimit))).Ceil()
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

func abciError(code uint32, codespace, log string) error {
	if codespace != "" {
		return fmt.Errorf("code %d (%s): %s", code, codespace, log)
	}
	return fmt.Errorf("code %d: %s", code, log)
}
