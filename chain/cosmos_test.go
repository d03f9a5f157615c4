package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linlinbupt123-crypto/zig_transfer/config"
	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
)

// fakeNode is a minimal CometBFT JSON-RPC endpoint.
type fakeNode struct {
	mu sync.Mutex

	network     string
	limited     int // requests answered with 429 before serving
	balances    map[string]string
	account     baseAccount
	checkCode   uint32
	deliverCode uint32
	pendingTx   int // tx lookups answered "not found" before the tx shows up

	methods    []string
	broadcasts [][]byte
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.limited > 0 {
		f.limited--
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.methods = append(f.methods, req.Method)

	result, rpcErr := f.handle(req)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != "" {
		resp["error"] = map[string]interface{}{"code": -32603, "message": "Internal error", "data": rpcErr}
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeNode) handle(req rpcRequest) (interface{}, string) {
	switch req.Method {
	case "status":
		return map[string]interface{}{
			"node_info": map[string]string{"network": f.network, "version": "0.38.12"},
			"sync_info": map[string]string{"latest_block_height": "100"},
		}, ""

	case "abci_query":
		var path, dataHex string
		_ = json.Unmarshal(req.Params[0], &path)
		_ = json.Unmarshal(req.Params[1], &dataHex)
		data, _ := hex.DecodeString(dataHex)
		fields, _ := parseFields(data)
		address := string(fields[0].bytes)

		var value []byte
		switch path {
		case pathQueryBalance:
			amount, ok := f.balances[address]
			if !ok {
				return map[string]interface{}{"response": map[string]interface{}{"code": 0}}, ""
			}
			value = appendMessage(nil, 1, encodeCoin(coin{Denom: string(fields[1].bytes), Amount: amount}))
		case pathQueryAccount:
			if f.account.Address != address {
				return map[string]interface{}{"response": map[string]interface{}{
					"code": 22, "codespace": "sdk", "log": "account not found",
				}}, ""
			}
			base := encodeBaseAccountForTest(f.account.Address, f.account.AccountNumber, f.account.Sequence)
			value = appendMessage(nil, 1, encodeAny(typeURLBaseAccount, base))
		default:
			return nil, "unknown path " + path
		}
		return map[string]interface{}{"response": map[string]interface{}{"code": 0, "value": value}}, ""

	case "broadcast_tx_sync":
		var tx []byte
		_ = json.Unmarshal(req.Params[0], &tx)
		f.broadcasts = append(f.broadcasts, tx)
		sum := sha256.Sum256(tx)
		return map[string]interface{}{
			"code":      f.checkCode,
			"log":       "",
			"codespace": "",
			"hash":      strings.ToUpper(hex.EncodeToString(sum[:])),
		}, ""

	case "tx":
		if f.pendingTx > 0 {
			f.pendingTx--
			return nil, "tx not found"
		}
		return map[string]interface{}{
			"height":    "101",
			"tx_result": map[string]interface{}{"code": f.deliverCode, "log": "out of gas", "codespace": "sdk"},
		}, ""
	}
	return nil, "method not found"
}

func (f *fakeNode) calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.methods {
		if m == method {
			n++
		}
	}
	return n
}

func newTestChain(t *testing.T, node *fakeNode) (*CosmosChain, *Signer) {
	t.Helper()
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	cfg := config.Default().Chain
	cfg.RPC = srv.URL
	cfg.RequestTimeout = 5 * time.Second
	cfg.ConfirmTimeout = 0
	cfg.ConfirmInterval = time.Millisecond

	c, err := NewCosmosChain(cfg)
	require.NoError(t, err)

	signer, err := NewSignerFromHex(testKeyHex, cfg.Prefix)
	require.NoError(t, err)
	return c, signer
}

func TestConnectChecksNetwork(t *testing.T) {
	node := &fakeNode{network: "zig-test-2"}
	c, _ := newTestChain(t, node)

	sess, err := c.Connect(context.Background(), nil)
	require.NoError(t, err)
	sess.Close()
	assert.Equal(t, 1, node.calls("status"))

	node.network = "zig-mainnet-1"
	_, err = c.Connect(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, wrapErrors.GetchainIDErr, wrapErrors.CodeOf(err))
	assert.False(t, IsRateLimited(err))
}

func TestConnectRateLimited(t *testing.T) {
	node := &fakeNode{network: "zig-test-2", limited: 1}
	c, _ := newTestChain(t, node)

	_, err := c.Connect(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, wrapErrors.RateLimited, wrapErrors.CodeOf(err))

	sess, err := c.Connect(context.Background(), nil)
	require.NoError(t, err)
	sess.Close()
}

func TestGetBalance(t *testing.T) {
	node := &fakeNode{network: "zig-test-2", balances: map[string]string{"zig1rich": "10500000"}}
	c, _ := newTestChain(t, node)

	sess, err := c.Connect(context.Background(), nil)
	require.NoError(t, err)
	defer sess.Close()

	asset, err := sess.GetBalance(context.Background(), "zig1rich")
	require.NoError(t, err)
	assert.Equal(t, "uzig", asset.Denom)
	assert.True(t, asset.Amount.Equal(decimal.NewFromInt(10500000)))

	asset, err = sess.GetBalance(context.Background(), "zig1empty")
	require.NoError(t, err)
	assert.True(t, asset.Amount.IsZero())
}

func TestSendTokensBuildsSignedTx(t *testing.T) {
	node := &fakeNode{network: "zig-test-2"}
	c, signer := newTestChain(t, node)
	node.account = baseAccount{Address: signer.Address(), AccountNumber: 12, Sequence: 7}

	sess, err := c.Connect(context.Background(), signer)
	require.NoError(t, err)
	defer sess.Close()

	recipient := "zig13rpmgsk09jcd7yfemwmj5gvkahr9tu0h7tawjk"
	hash, err := sess.SendTokens(context.Background(), SendRequest{
		From:   signer.Address(),
		To:     recipient,
		Amount: decimal.RequireFromString("10490000.7"),
	})
	require.NoError(t, err)
	require.Len(t, node.broadcasts, 1)

	tx := node.broadcasts[0]
	sum := sha256.Sum256(tx)
	assert.Equal(t, strings.ToUpper(hex.EncodeToString(sum[:])), hash)

	raw, err := parseFields(tx)
	require.NoError(t, err)
	require.Len(t, raw, 3)
	body, authInfo, sig := raw[0].bytes, raw[1].bytes, raw[2].bytes

	doc := encodeSignDoc(body, authInfo, "zig-test-2", 12)
	docHash := sha256.Sum256(doc)
	assert.True(t, crypto.VerifySignature(signer.PubKey(), docHash[:], sig))

	bodyFields, err := parseFields(body)
	require.NoError(t, err)
	require.Len(t, bodyFields, 2)
	assert.Equal(t, "Auto Transfer ZIG", string(bodyFields[1].bytes))

	anyFields, err := parseFields(bodyFields[0].bytes)
	require.NoError(t, err)
	assert.Equal(t, typeURLMsgSend, string(anyFields[0].bytes))
	msg, err := parseFields(anyFields[1].bytes)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), string(msg[0].bytes))
	assert.Equal(t, recipient, string(msg[1].bytes))
	sent, err := decodeCoin(msg[2].bytes)
	require.NoError(t, err)
	assert.Equal(t, coin{Denom: "uzig", Amount: "10490000"}, sent)

	authFields, err := parseFields(authInfo)
	require.NoError(t, err)
	fee, err := parseFields(authFields[1].bytes)
	require.NoError(t, err)
	feeCoin, err := decodeCoin(fee[0].bytes)
	require.NoError(t, err)
	assert.Equal(t, coin{Denom: "uzig", Amount: "2164"}, feeCoin)
	assert.Equal(t, uint64(86531), fee[1].varint)

	assert.Equal(t, 0, node.calls("tx"), "confirmation disabled")
}

func TestSendTokensRejected(t *testing.T) {
	node := &fakeNode{network: "zig-test-2", checkCode: 5}
	c, signer := newTestChain(t, node)
	node.account = baseAccount{Address: signer.Address(), AccountNumber: 1}

	sess, err := c.Connect(context.Background(), signer)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.SendTokens(context.Background(), SendRequest{To: "zig1dest", Amount: decimal.NewFromInt(5)})
	require.Error(t, err)
	assert.Equal(t, wrapErrors.TxRejected, wrapErrors.CodeOf(err))
}

func TestSendTokensValidation(t *testing.T) {
	node := &fakeNode{network: "zig-test-2"}
	c, signer := newTestChain(t, node)

	readOnly, err := c.Connect(context.Background(), nil)
	require.NoError(t, err)
	defer readOnly.Close()
	_, err = readOnly.SendTokens(context.Background(), SendRequest{To: "zig1dest", Amount: decimal.NewFromInt(5)})
	assert.True(t, wrapErrors.Is(err, wrapErrors.SignerErr))

	sess, err := c.Connect(context.Background(), signer)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.SendTokens(context.Background(), SendRequest{From: "zig1other", To: "zig1dest", Amount: decimal.NewFromInt(5)})
	assert.True(t, wrapErrors.Is(err, wrapErrors.SignerErr))

	_, err = sess.SendTokens(context.Background(), SendRequest{To: "zig1dest", Amount: decimal.RequireFromString("0.9")})
	assert.True(t, wrapErrors.Is(err, wrapErrors.SendTxErr))

	// the account does not exist on chain
	_, err = sess.SendTokens(context.Background(), SendRequest{To: "zig1dest", Amount: decimal.NewFromInt(5)})
	assert.True(t, wrapErrors.Is(err, wrapErrors.QueryAccountErr))
	assert.Empty(t, node.broadcasts)
}

func TestSendTokensWaitsForInclusion(t *testing.T) {
	node := &fakeNode{network: "zig-test-2", pendingTx: 2}
	c, signer := newTestChain(t, node)
	c.cfg.ConfirmTimeout = 5 * time.Second
	node.account = baseAccount{Address: signer.Address(), AccountNumber: 3, Sequence: 1}

	sess, err := c.Connect(context.Background(), signer)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.SendTokens(context.Background(), SendRequest{To: "zig1dest", Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, 3, node.calls("tx"))

	node.deliverCode = 11
	_, err = sess.SendTokens(context.Background(), SendRequest{To: "zig1dest", Amount: decimal.NewFromInt(5)})
	require.Error(t, err)
	assert.Equal(t, wrapErrors.TxRejected, wrapErrors.CodeOf(err))
}

func TestSendTokensConfirmTimeout(t *testing.T) {
	node := &fakeNode{network: "zig-test-2", pendingTx: 1 << 20}
	c, signer := newTestChain(t, node)
	c.cfg.ConfirmTimeout = 20 * time.Millisecond
	c.cfg.ConfirmInterval = 5 * time.Millisecond
	node.account = baseAccount{Address: signer.Address(), AccountNumber: 3}

	sess, err := c.Connect(context.Background(), signer)
	require.NoError(t, err)
	defer sess.Close()

	hash, err := sess.SendTokens(context.Background(), SendRequest{To: "zig1dest", Amount: decimal.NewFromInt(5)})
	require.Error(t, err)
	assert.NotEmpty(t, hash)
	assert.Equal(t, wrapErrors.ConfirmTxErr, wrapErrors.CodeOf(err))
}

func TestGasPrice(t *testing.T) {
	gp, err := ParseGasPrice("0.025uzig")
	require.NoError(t, err)
	assert.Equal(t, "uzig", gp.Denom)
	assert.Equal(t, "2164", gp.Fee(86531).String())
	assert.Equal(t, "0.025uzig", gp.String())

	for _, bad := range []string{"", "uzig", "0.025", "1.u"} {
		_, err := ParseGasPrice(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsRateLimited(assert.AnError))
	assert.True(t, IsRateLimited(fmt.Errorf("bad response: 429 Too Many Requests")))
	assert.True(t, IsRateLimited(wrapErrors.WrapWithCode(wrapErrors.DailChain, "dial", rpc.HTTPError{StatusCode: 429})))
	assert.True(t, IsRateLimited(wrapErrors.WrapWithCode(wrapErrors.RateLimited, "status", errors.New("throttled"))))
	assert.False(t, IsRateLimited(rpc.HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}))

	// "429" inside an address or URL is not a rate limit
	assert.False(t, IsRateLimited(wrapErrors.WrapWithCode(wrapErrors.QueryBalanceErr,
		"query balance zig1qy429xv8nmd", errors.New("code 18 (sdk): invalid request"))))
	assert.False(t, IsRateLimited(wrapErrors.WrapWithCode(wrapErrors.DailChain,
		"dial http://node:4290", errors.New("connection refused"))))
	assert.False(t, IsRateLimited(fmt.Errorf("status http://10.0.0.1:4290: %w", errors.New("EOF"))))
}

func TestWrapRPCKeepsOperationCodeForOtherErrors(t *testing.T) {
	err := wrapRPC(wrapErrors.QueryBalanceErr, "query balance zig1qy429xv8nmd", errors.New("connection reset"))
	assert.Equal(t, wrapErrors.QueryBalanceErr, wrapErrors.CodeOf(err))
	assert.False(t, IsRateLimited(err))

	err = wrapRPC(wrapErrors.QueryBalanceErr, "query balance zig1abc", rpc.HTTPError{StatusCode: 429})
	assert.Equal(t, wrapErrors.RateLimited, wrapErrors.CodeOf(err))
	assert.True(t, IsRateLimited(err))
}
