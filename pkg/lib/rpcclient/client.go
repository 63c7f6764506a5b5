// Package rpcclient talks JSON-RPC 1.0 over HTTP to the node.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcjson"

	"github.com/superness/superaxecoinwallet/pkg/lib"
	"github.com/superness/superaxecoinwallet/pkg/lib/logging"
)

// Client issues calls against one node. The connection parameters are fixed
// at construction; only the selected wallet changes.
type Client struct {
	cfg     lib.RpcConfig
	timeout time.Duration
	http    *http.Client
	metrics *Metrics
	logger  logging.Logger
	nextID atomic.Int64

	mu     sync.RWMutex
	wallet string
}

type Option func(*Client)

// WithTimeout bounds every call. The default is 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l).With("module", "rpc") }
}

// WithHTTPClient uses a copy of hc for transport. The copy's Timeout is
// overridden; hc itself is left alone.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// New creates a client with no wallet selected. Missing config fields get defaults.
func New(cfg lib.RpcConfig, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg.WithDefaults(lib.Mainnet),
		timeout: lib.DefaultCallTimeout,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		// one connection per call
		c.http = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	}
	c.http.Timeout = c.timeout
	c.nextID.Store(time.Now().UnixMilli())
	return c
}

// Config returns the connection parameters.
func (c *Client) Config() lib.RpcConfig {
	return c.cfg
}

// SetWallet selects the wallet for wallet-scoped calls. An empty name clears it.
func (c *Client) SetWallet(name string) {
	c.mu.Lock()
	c.wallet = name
	c.mu.Unlock()
	c.logger.Info("Wallet selected", "wallet", name)
}

func (c *Client) Wallet() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wallet
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Call invokes method and returns the raw result. It does not retry.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params)
	c.metrics.observe(method, start, err)
	if err != nil {
		c.logger.Debug("RPC call failed", "method", method, "error", err, "duration", time.Since(start))
		return nil, err
	}
	c.logger.Debug("RPC call", "method", method, "duration", time.Since(start))
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(request{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", method, err)
	}

	target := "http://" + c.cfg.Address() + RequestPath(c.Wallet(), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: Connection, Message: "Connection failed: " + err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	return decodeResponse(data)
}

// envelope accepts any error shape; nodes behind proxies do not always send
// an {code, message} object.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func decodeResponse(data []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &Error{Kind: Protocol, Message: "Invalid JSON response", Err: err}
	}
	if !truthy(env.Error) {
		return env.Result, nil
	}
	var rpcErr btcjson.RPCError
	if err := json.Unmarshal(env.Error, &rpcErr); err != nil {
		// a bare string or number carries no message field
		rpcErr = btcjson.RPCError{}
	}
	return nil, applicationError(&rpcErr)
}

// truthy reports whether an error member is set. Absent, null, false, 0 and
// "" all mean success.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

func transportError(err error) *Error {
	if isTimeout(err) {
		return &Error{Kind: Timeout, Message: "Request timeout", Err: err}
	}
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}
	return &Error{Kind: Connection, Message: "Connection failed: " + cause.Error(), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CallFor invokes method and decodes the result into T.
func CallFor[T any](ctx context.Context, c *Client, method string, params ...interface{}) (T, error) {
	var out T
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{Kind: Protocol, Message: fmt.Sprintf("unexpected %s result: %v", method, err), Err: err}
	}
	return out, nil
}
