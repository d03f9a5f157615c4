package chain

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // cosmos addresses are defined over ripemd160

	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
)

// Signer holds a secp256k1 key and its bech32 account address.
type Signer struct {
	key     *ecdsa.PrivateKey
	pubKey  []byte
	address string
}

func NewSigner(key *ecdsa.PrivateKey, prefix string) (*Signer, error) {
	if key == nil {
		return nil, wrapErrors.New(wrapErrors.SignerErr, "nil private key")
	}
	pub := crypto.CompressPubkey(&key.PublicKey)
	addr, err := AddressFromPubKey(pub, prefix)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "derive address", err)
	}
	return &Signer{key: key, pubKey: pub, address: addr}, nil
}

// NewSignerFromHex accepts a 32-byte key as hex, with or without 0x.
func NewSignerFromHex(hexKey, prefix string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "parse private key", err)
	}
	return NewSigner(key, prefix)
}

func (s *Signer) Address() string {
	return s.address
}

// PubKey returns the 33-byte compressed public key.
func (s *Signer) PubKey() []byte {
	return s.pubKey
}

// Sign returns the 64-byte r||s signature over sha256(msg), as SIGN_MODE_DIRECT expects.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	hash := sha256.Sum256(msg)
	sig, err := crypto.Sign(hash[:], s.key)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "sign", err)
	}
	return sig[:64], nil
}

// AddressFromPubKey is bech32(prefix, ripemd160(sha256(pubkey))).
func AddressFromPubKey(pubKey []byte, prefix string) (string, error) {
	sha := sha256.Sum256(pubKey)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return EncodeAddress(prefix, hasher.Sum(nil))
}

func EncodeAddress(prefix string, raw []byte) (string, error) {
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, conv)
}

// DecodeAddress returns the raw account bytes of a bech32 address with the given prefix.
func DecodeAddress(prefix, addr string) ([]byte, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return nil, err
	}
	if hrp != prefix {
		return nil, fmt.Errorf("address %s has prefix %q, want %q", addr, hrp, prefix)
	}
	return bech32.ConvertBits(data, 5, 8, false)
}

// HasAddressPrefix is the only recipient check performed: prefix plus the
// bech32 separator. No checksum validation.
func HasAddressPrefix(addr, prefix string) bool {
	return strings.HasPrefix(addr, prefix+"1")
}
