package repository

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/linlinbupt123-crypto/zig_transfer/entity"
	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
)

// Wallet reads the credential list from a JSON file:
//
//	[{"address": "zig1...", "privateKey": "<hex>"}, ...]
type Wallet struct {
	path string
}

func NewWalletRepo(path string) *Wallet {
	return &Wallet{path: path}
}

// List loads every credential in file order. Any unreadable or malformed
// entry fails the whole list.
func (r *Wallet) List() ([]entity.WalletCredential, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LoadWalletsErr, "read "+r.path, err)
	}

	var wallets []entity.WalletCredential
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LoadWalletsErr, "parse "+r.path, err)
	}

	for i := range wallets {
		w := &wallets[i]
		w.Address = strings.TrimSpace(w.Address)
		w.PrivateKey = strings.TrimSpace(w.PrivateKey)
		w.Mnemonic = strings.TrimSpace(w.Mnemonic)
		if w.Address == "" {
			return nil, wrapErrors.WrapWithCode(wrapErrors.LoadWalletsErr, "validate "+r.path,
				fmt.Errorf("entry %d: missing address", i))
		}
		if w.PrivateKey == "" && w.Mnemonic == "" {
			return nil, wrapErrors.WrapWithCode(wrapErrors.LoadWalletsErr, "validate "+r.path,
				fmt.Errorf("entry %d (%s): missing privateKey", i, w.Address))
		}
	}
	return wallets, nil
}
