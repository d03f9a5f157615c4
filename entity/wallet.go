package entity

// WalletCredential is one entry of the wallets file.
type WalletCredential struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"` // hex, with or without 0x
	Mnemonic   string `json:"mnemonic,omitempty"`
}
