package utils

/*
BIP-44 path levels: m / purpose' / coin_type' / account' / change / address_index

	purpose'     44' marks a BIP-44 tree; the apostrophe means hardened derivation
	coin_type'   118' is the Cosmos SDK coin type shared by ZigChain keys
	account'     usually 0'
	change       0 for the external (receiving) chain
	address_index
*/
const (
	COSMOS_DERIVATION_PATH_PREFIX = "m/44'/118'/0'/0/"
	COSMOS_DEFAULT_PATH           = COSMOS_DERIVATION_PATH_PREFIX + "0"
)
