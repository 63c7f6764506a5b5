package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib"
)

// apiClient talks to the host's HTTP control surface.
type apiClient struct {
	base    *url.URL
	timeout time.Duration
	http    *http.Client
	ws      *websocket.Dialer
}

// newAPIClient defaults to https when tlsConfig is set. The host then asks
// for the client certificate it carries.
func newAPIClient(address string, timeout time.Duration, tlsConfig *tls.Config) (*apiClient, error) {
	if !strings.Contains(address, "://") {
		scheme := "http://"
		if tlsConfig != nil {
			scheme = "https://"
		}
		address = scheme + address
	}
	base, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid host address %q: %w", address, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	ws := *websocket.DefaultDialer
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig.Clone()
		ws.TLSClientConfig = tlsConfig.Clone()
	}
	return &apiClient{base: base, timeout: timeout, http: &http.Client{Transport: transport}, ws: &ws}, nil
}

func (c *apiClient) url(path string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

// do sends one request and decodes the JSON answer into out. Answers with a
// failure Result are decoded too; the caller inspects them.
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), r)
	if err != nil {
		return err
	}
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("host unreachable: %w", err)
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) Status(ctx context.Context) (*apiv1.StatusResponse, error) {
	out := new(apiv1.StatusResponse)
	return out, c.do(ctx, http.MethodGet, apiv1.PathStatus, nil, out)
}

func (c *apiClient) Start(ctx context.Context) (*apiv1.StartResponse, error) {
	out := new(apiv1.StartResponse)
	return out, c.do(ctx, http.MethodPost, apiv1.PathStart, nil, out)
}

func (c *apiClient) Stop(ctx context.Context) (*apiv1.StopResponse, error) {
	out := new(apiv1.StopResponse)
	return out, c.do(ctx, http.MethodPost, apiv1.PathStop, nil, out)
}

func (c *apiClient) Call(ctx context.Context, method string, params []json.RawMessage) (*apiv1.CallResponse, error) {
	out := new(apiv1.CallResponse)
	return out, c.do(ctx, http.MethodPost, apiv1.PathCall, &apiv1.CallRequest{Method: method, Params: params}, out)
}

func (c *apiClient) Wallet(ctx context.Context) (*apiv1.WalletResponse, error) {
	out := new(apiv1.WalletResponse)
	return out, c.do(ctx, http.MethodGet, apiv1.PathWallet, nil, out)
}

func (c *apiClient) SetWallet(ctx context.Context, name string) (*apiv1.WalletResponse, error) {
	out := new(apiv1.WalletResponse)
	return out, c.do(ctx, http.MethodPut, apiv1.PathWallet, &apiv1.WalletRequest{Name: name}, out)
}

// Logs copies the node output of the current or last run to stdout and stderr.
func (c *apiClient) Logs(ctx context.Context, stdout, stderr io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(apiv1.PathLogs), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("host unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var res apiv1.Result
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || res.Error == "" {
			return fmt.Errorf("logs: %s", resp.Status)
		}
		return errors.New(res.Error)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var chunk apiv1.LogChunk
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			return fmt.Errorf("invalid log stream: %w", err)
		}

		var w io.Writer
		switch chunk.Stream {
		case lib.StreamStdout:
			w = stdout
		case lib.StreamStderr:
			w = stderr
		}
		if w != nil {
			if _, err := w.Write(chunk.Data); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Events calls fn for every host event until ctx ends or the host closes the stream.
func (c *apiClient) Events(ctx context.Context, fn func(lib.Event)) error {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + apiv1.PathEvents

	conn, _, err := c.ws.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("host unreachable: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev lib.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		fn(ev)
	}
}
