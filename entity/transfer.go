package entity

import "github.com/shopspring/decimal"

type TransferMode int

const (
	ModeFixedAmount TransferMode = iota + 1
	ModeRandomAmount
	ModeAllBalance
)

func (m TransferMode) String() string {
	switch m {
	case ModeFixedAmount:
		return "fixed"
	case ModeRandomAmount:
		return "random"
	case ModeAllBalance:
		return "all"
	default:
		return "unknown"
	}
}

// TransferRequest is chosen once per run and applies to every wallet.
type TransferRequest struct {
	Mode   TransferMode
	Amount decimal.Decimal // display units, ModeFixedAmount only
}

type OutcomeStatus string

const (
	StatusTransferred OutcomeStatus = "transferred"
	StatusSkipped     OutcomeStatus = "skipped"
	StatusFailed      OutcomeStatus = "failed"
)

// TransferOutcome records what happened to one wallet.
type TransferOutcome struct {
	Index   int
	Address string
	Status  OutcomeStatus
	Reason  string
	Amount  decimal.Decimal // base units sent or attempted
	TxHash  string
}

// Report lists outcomes in input order.
type Report struct {
	RunID    string
	Outcomes []TransferOutcome
}

func (r *Report) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
