package chain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/zig_transfer/entity"
)

// Connector opens sessions against one chain endpoint. A nil signer yields a
// read-only session.
type Connector interface {
	Connect(ctx context.Context, signer *Signer) (Session, error)
}

// Session is one RPC connection, optionally bound to a signer. Sessions are
// never shared between wallets.
type Session interface {
	GetBalance(ctx context.Context, address string) (entity.Asset, error)
	SendTokens(ctx context.Context, req SendRequest) (string, error)
	Close()
}

// SendRequest moves Amount base units of the session denom from the
// session signer to To.
type SendRequest struct {
	From   string
	To     string
	Amount decimal.Decimal
}
