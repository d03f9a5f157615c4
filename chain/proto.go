package chain

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Hand-rolled protobuf messages for the handful of Cosmos SDK types the
// transfer needs. Field numbers follow cosmos-sdk v0.47+ proto definitions.
// Zero scalars are omitted so the encoding matches what the chain re-derives
// when verifying SIGN_MODE_DIRECT signatures.

const (
	typeURLMsgSend     = "/cosmos.bank.v1beta1.MsgSend"
	typeURLSecp256k1   = "/cosmos.crypto.secp256k1.PubKey"
	typeURLBaseAccount = "/cosmos.auth.v1beta1.BaseAccount"

	pathQueryBalance = "/cosmos.bank.v1beta1.Query/Balance"
	pathQueryAccount = "/cosmos.auth.v1beta1.Query/Account"

	signModeDirect = 1
)

// accountWrapDepth is how many field-1 embeddings sit between an account
// type and its BaseAccount.
var accountWrapDepth = map[string]int{
	typeURLBaseAccount:                                 0,
	"/cosmos.auth.v1beta1.ModuleAccount":               1,
	"/cosmos.vesting.v1beta1.BaseVestingAccount":       1,
	"/cosmos.vesting.v1beta1.ContinuousVestingAccount": 2,
	"/cosmos.vesting.v1beta1.DelayedVestingAccount":    2,
	"/cosmos.vesting.v1beta1.PeriodicVestingAccount":   2,
	"/cosmos.vesting.v1beta1.PermanentLockedAccount":   2,
}

type coin struct {
	Denom  string
	Amount string
}

type baseAccount struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendMessage always emits the field: a set submessage is present even when empty.
func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendUvarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func encodeCoin(c coin) []byte {
	var b []byte
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, c.Amount)
	return b
}

func encodeAny(typeURL string, value []byte) []byte {
	var b []byte
	b = appendString(b, 1, typeURL)
	b = appendBytes(b, 2, value)
	return b
}

func encodeMsgSend(from, to string, amount []coin) []byte {
	var b []byte
	b = appendString(b, 1, from)
	b = appendString(b, 2, to)
	for _, c := range amount {
		b = appendMessage(b, 3, encodeCoin(c))
	}
	return b
}

// encodeTxBody takes messages already wrapped in Any.
func encodeTxBody(messages [][]byte, memo string) []byte {
	var b []byte
	for _, m := range messages {
		b = appendMessage(b, 1, m)
	}
	b = appendString(b, 2, memo)
	return b
}

func encodeAuthInfo(pubKey []byte, sequence uint64, fee []coin, gasLimit uint64) []byte {
	var single []byte
	single = appendUvarint(single, 1, signModeDirect)
	var modeInfo []byte
	modeInfo = appendMessage(modeInfo, 1, single)

	var pk []byte
	pk = appendBytes(pk, 1, pubKey)

	var signerInfo []byte
	signerInfo = appendMessage(signerInfo, 1, encodeAny(typeURLSecp256k1, pk))
	signerInfo = appendMessage(signerInfo, 2, modeInfo)
	signerInfo = appendUvarint(signerInfo, 3, sequence)

	var feeMsg []byte
	for _, c := range fee {
		feeMsg = appendMessage(feeMsg, 1, encodeCoin(c))
	}
	feeMsg = appendUvarint(feeMsg, 2, gasLimit)

	var b []byte
	b = appendMessage(b, 1, signerInfo)
	b = appendMessage(b, 2, feeMsg)
	return b
}

func encodeSignDoc(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = appendBytes(b, 1, bodyBytes)
	b = appendBytes(b, 2, authInfoBytes)
	b = appendString(b, 3, chainID)
	b = appendUvarint(b, 4, accountNumber)
	return b
}

func encodeTxRaw(bodyBytes, authInfoBytes []byte, signatures [][]byte) []byte {
	var b []byte
	b = appendBytes(b, 1, bodyBytes)
	b = appendBytes(b, 2, authInfoBytes)
	for _, sig := range signatures {
		b = appendMessage(b, 3, sig)
	}
	return b
}

func encodeQueryBalanceRequest(address, denom string) []byte {
	var b []byte
	b = appendString(b, 1, address)
	b = appendString(b, 2, denom)
	return b
}

func encodeQueryAccountRequest(address string) []byte {
	return appendString(nil, 1, address)
}

type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func parseFields(b []byte) ([]field, error) {
	var out []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.varint = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.bytes = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
		out = append(out, f)
	}
	return out, nil
}

func decodeCoin(b []byte) (coin, error) {
	fields, err := parseFields(b)
	if err != nil {
		return coin{}, err
	}
	var c coin
	for _, f := range fields {
		switch f.num {
		case 1:
			c.Denom = string(f.bytes)
		case 2:
			c.Amount = string(f.bytes)
		}
	}
	return c, nil
}

// decodeQueryBalanceResponse returns a zero coin when the balance field is absent.
func decodeQueryBalanceResponse(b []byte) (coin, error) {
	fields, err := parseFields(b)
	if err != nil {
		return coin{}, err
	}
	for _, f := range fields {
		if f.num == 1 && f.typ == protowire.BytesType {
			return decodeCoin(f.bytes)
		}
	}
	return coin{}, nil
}

func decodeQueryAccountResponse(b []byte) (baseAccount, error) {
	fields, err := parseFields(b)
	if err != nil {
		return baseAccount{}, err
	}
	for _, f := range fields {
		if f.num == 1 && f.typ == protowire.BytesType {
			return decodeAccountAny(f.bytes)
		}
	}
	return baseAccount{}, fmt.Errorf("account missing from query response")
}

func decodeAccountAny(b []byte) (baseAccount, error) {
	fields, err := parseFields(b)
	if err != nil {
		return baseAccount{}, err
	}
	var typeURL string
	var value []byte
	for _, f := range fields {
		switch f.num {
		case 1:
			typeURL = string(f.bytes)
		case 2:
			value = f.bytes
		}
	}

	depth, ok := accountWrapDepth[typeURL]
	if !ok {
		return baseAccount{}, fmt.Errorf("unsupported account type %s", typeURL)
	}
	for i := 0; i < depth; i++ {
		if value, err = firstMessageField(value); err != nil {
			return baseAccount{}, fmt.Errorf("unwrap %s: %w", typeURL, err)
		}
	}
	return decodeBaseAccount(value)
}

func firstMessageField(b []byte) ([]byte, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.num == 1 && f.typ == protowire.BytesType {
			return f.bytes, nil
		}
	}
	return nil, fmt.Errorf("embedded account missing")
}

func decodeBaseAccount(b []byte) (baseAccount, error) {
	fields, err := parseFields(b)
	if err != nil {
		return baseAccount{}, err
	}
	var acc baseAccount
	for _, f := range fields {
		switch f.num {
		case 1:
			acc.Address = string(f.bytes)
		case 3:
			acc.AccountNumber = f.varint
		case 4:
			acc.Sequence = f.varint
		}
	}
	return acc, nil
}
