package chain

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// cometRPC speaks CometBFT JSON-RPC 2.0 over HTTP. go-ethereum's client sends
// positional params, which CometBFT accepts for every method used here.
type cometRPC struct {
	client  *rpc.Client
	limiter *rate.Limiter
}

type statusResult struct {
	NodeInfo struct {
		Network string `json:"network"`
		Version string `json:"version"`
	} `json:"node_info"`
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
	} `json:"sync_info"`
}

type abciQueryResult struct {
	Response struct {
		Code      uint32 `json:"code"`
		Log       string `json:"log"`
		Value     []byte `json:"value"`
		Height    string `json:"height"`
		Codespace string `json:"codespace"`
	} `json:"response"`
}

type broadcastResult struct {
	Code      uint32 `json:"code"`
	Log       string `json:"log"`
	Codespace string `json:"codespace"`
	Hash      string `json:"hash"`
}

type txResult struct {
	Hash     string `json:"hash"`
	Height   string `json:"height"`
	TxResult struct {
		Code      uint32 `json:"code"`
		Log       string `json:"log"`
		Codespace string `json:"codespace"`
		GasWanted string `json:"gas_wanted"`
		GasUsed   string `json:"gas_used"`
	} `json:"tx_result"`
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// dialComet performs no network I/O for http(s) URLs; the first call does.
func dialComet(ctx context.Context, url string, timeout time.Duration, requestsPerSecond float64) (*cometRPC, error) {
	client, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(newHTTPClient(timeout)))
	if err != nil {
		return nil, err
	}
	c := &cometRPC{client: client}
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return c, nil
}

func (c *cometRPC) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return c.client.CallContext(ctx, result, method, args...)
}

func (c *cometRPC) status(ctx context.Context) (*statusResult, error) {
	var res statusResult
	if err := c.call(ctx, &res, "status"); err != nil {
		return nil, err
	}
	return &res, nil
}

// abciQuery runs a gRPC-style query at the latest height. Height goes out as a
// string because CometBFT decodes 64-bit integers from JSON strings.
func (c *cometRPC) abciQuery(ctx context.Context, path string, data []byte) (*abciQueryResult, error) {
	var res abciQueryResult
	if err := c.call(ctx, &res, "abci_query", path, hexString(data), "0", false); err != nil {
		return nil, err
	}
	return &res, nil
}

// broadcastTxSync returns once CheckTx has run. []byte marshals as base64,
// which is what CometBFT expects for the tx param.
func (c *cometRPC) broadcastTxSync(ctx context.Context, tx []byte) (*broadcastResult, error) {
	var res broadcastResult
	if err := c.call(ctx, &res, "broadcast_tx_sync", tx); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *cometRPC) tx(ctx context.Context, hash []byte) (*txResult, error) {
	var res txResult
	if err := c.call(ctx, &res, "tx", hash, false); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *cometRPC) close() {
	c.client.Close()
}
