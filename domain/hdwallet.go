package domain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/linlinbupt123-crypto/zig_transfer/chain"
	"github.com/linlinbupt123-crypto/zig_transfer/entity"
	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
	"github.com/linlinbupt123-crypto/zig_transfer/utils"
)

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// KeyRing turns wallet credentials into signers for one address prefix.
type KeyRing struct {
	prefix string
	path   string
}

func NewKeyRing(prefix string) *KeyRing {
	return &KeyRing{prefix: prefix, path: utils.COSMOS_DEFAULT_PATH}
}

// Signer builds the signer for cred. A raw private key wins over a mnemonic.
// The derived address must equal the listed one.
func (k *KeyRing) Signer(cred entity.WalletCredential) (*chain.Signer, error) {
	var (
		signer *chain.Signer
		err    error
	)
	switch {
	case cred.PrivateKey != "":
		signer, err = chain.NewSignerFromHex(cred.PrivateKey, k.prefix)
	case cred.Mnemonic != "":
		var key *ecdsa.PrivateKey
		key, err = DeriveKey(cred.Mnemonic, k.path)
		if err == nil {
			signer, err = chain.NewSigner(key, k.prefix)
		}
	default:
		err = wrapErrors.New(wrapErrors.SignerErr, "credential has neither privateKey nor mnemonic")
	}
	if err != nil {
		return nil, err
	}

	if cred.Address != "" && signer.Address() != cred.Address {
		return nil, wrapErrors.Newf(wrapErrors.SignerErr,
			"key derives %s, wallet lists %s", signer.Address(), cred.Address)
	}
	return signer, nil
}

// DeriveKey derives a secp256k1 key from a BIP-39 mnemonic (empty passphrase)
// along a BIP-32 path such as m/44'/118'/0'/0/0.
func DeriveKey(mnemonic, path string) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(strings.Join(strings.Fields(mnemonic), " "), "")
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "mnemonic to seed", err)
	}
	defer clearBytes(seed)

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "create master key", err)
	}

	indices, err := parseDerivationPath(path)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "derivation path "+path, err)
	}

	key := master
	for _, idx := range indices {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "derive child key", err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "get EC private key", err)
	}
	privBytes := priv.Serialize()
	defer clearBytes(privBytes)

	ecdsaKey, err := crypto.ToECDSA(privBytes)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "convert to ecdsa", err)
	}
	return ecdsaKey, nil
}

// parseDerivationPath accepts "m/44'/118'/0'/0/0" or "44'/118'/0'/0/0"
func parseDerivationPath(path string) ([]uint32, error) {
	p := strings.TrimSpace(path)
	if strings.HasPrefix(p, "m/") || strings.HasPrefix(p, "M/") {
		p = p[2:]
	}
	if p == "" {
		return nil, errors.New("empty derivation path")
	}
	parts := strings.Split(p, "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, errors.New("invalid path segment")
		}
		hardened := strings.HasSuffix(part, "'")
		if hardened {
			part = strings.TrimSuffix(part, "'")
		}
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation index %q", part)
		}
		idx := uint32(v)
		if hardened {
			if idx >= hdkeychain.HardenedKeyStart {
				return nil, fmt.Errorf("hardened index %d out of range", idx)
			}
			idx += hdkeychain.HardenedKeyStart
		}
		indices = append(indices, idx)
	}
	return indices, nil
}
