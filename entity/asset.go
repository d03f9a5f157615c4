package entity

import "github.com/shopspring/decimal"

// Asset is an account balance of one denomination.
type Asset struct {
	Address string
	Denom   string          // uzig
	Amount  decimal.Decimal // base units, always integral
}
