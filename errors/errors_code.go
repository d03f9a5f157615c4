package errors

type Code string

const (
	CodeUnknown        Code = "UNKNOWN_ERROR"
	LoadWalletsErr     Code = "LOAD_WALLETS_ERROR"
	InvalidInputErr    Code = "INVALID_INPUT_ERROR"
	InvalidRecipient   Code = "INVALID_RECIPIENT_ERROR"
	DailChain          Code = "DIAL_CHAIN_ERROR"
	RateLimited        Code = "RATE_LIMITED_ERROR"
	RetriesExhausted   Code = "RETRIES_EXHAUSTED_ERROR"
	SignerErr          Code = "SIGNER_ERROR"
	QueryBalanceErr    Code = "QUERY_BALANCE_ERROR"
	QueryAccountErr    Code = "QUERY_ACCOUNT_ERROR"
	SendTxErr          Code = "SEND_TX_ERROR"
	TxRejected         Code = "TX_REJECTED_ERROR"
	ConfirmTxErr       Code = "CONFIRM_TX_ERROR"
	GetchainIDErr      Code = "GET_CHAIN_ID_ERROR"
	CodeGasPriceFormat Code = "GAS_PRICE_FORMAT_ERROR"
)
