package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib"
)

const fakeNode = `echo "node up $@"
trap 'echo bye; exit 0' TERM
while true; do sleep 0.05; done
`

// rpcNode answers the wallet bootstrap and a couple of plain calls.
type rpcNode struct {
	mu     sync.Mutex
	loaded []string
	paths  []string
}

func (n *rpcNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string        `json:"method"`
		Params []interface{} `json:"params"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, req.Method+" "+r.URL.Path)

	var id interface{} = 1
	res := btcjson.Response{ID: &id}
	switch req.Method {
	case "listwallets":
		b, _ := json.Marshal(append([]string{}, n.loaded...))
		res.Result = b
	case "loadwallet":
		res.Error = &btcjson.RPCError{Code: btcjson.ErrRPCWallet, Message: "Wallet file not found"}
	case "createwallet":
		name, _ := req.Params[0].(string)
		n.loaded = append(n.loaded, name)
		res.Result = json.RawMessage(`{"name":"` + name + `","warning":""}`)
	case "getbalance":
		res.Result = json.RawMessage(`1.5`)
	case "echo":
		b, _ := json.Marshal(req.Params)
		res.Result = b
	default:
		res.Error = &btcjson.RPCError{Code: -32601, Message: "Method not found"}
	}
	_ = json.NewEncoder(w).Encode(res)
}

func (n *rpcNode) lastPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

type testHost struct {
	node *NodeServer
	http *httptest.Server
	rpc  *rpcNode
}

func newTestHost(t *testing.T, execPath string) *testHost {
	t.Helper()
	return newTestHostWith(t, execPath, nil)
}

func newTestHostWith(t *testing.T, execPath string, tweak func(*lib.Options)) *testHost {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for the node")
	}

	rpc := &rpcNode{}
	rpcSrv := httptest.NewServer(rpc)
	t.Cleanup(rpcSrv.Close)
	_, port, err := net.SplitHostPort(rpcSrv.Listener.Addr().String())
	require.NoError(t, err)

	dataDir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	conf := fmt.Sprintf("server=1\nrpcuser=tester\nrpcpassword=pw\nrpcport=%s\nrpcallowip=127.0.0.1\n", port)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, lib.ConfigFileName), []byte(conf), 0o600))

	if execPath == "" {
		execPath = filepath.Join(t.TempDir(), "superaxecoind")
		require.NoError(t, os.WriteFile(execPath, []byte("#!/bin/sh\n"+fakeNode), 0o755))
	}

	opts := lib.Options{
		ExecutablePath: execPath,
		DataDir:        dataDir,
		SettleDelay:    100 * time.Millisecond,
		StopTimeout:    5 * time.Second,
		WalletDelay:    time.Millisecond,
	}
	if tweak != nil {
		tweak(&opts)
	}
	node, err := NewNodeServer(opts, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(node.Handler())
	t.Cleanup(func() {
		srv.Close()
		node.StopNode()
		node.Close()
	})
	return &testHost{node: node, http: srv, rpc: rpc}
}

func (h *testHost) do(t *testing.T, method, path string, body, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.http.URL+path, r)
	require.NoError(t, err)
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHTTP_StartCallStop(t *testing.T) {
	h := newTestHost(t, "")

	var start apiv1.StartResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, apiv1.PathStart, nil, &start))
	require.True(t, start.Success, start.Error)
	require.False(t, start.AlreadyRunning)
	require.Equal(t, lib.WalletCreatedNew, start.Outcome)
	require.Equal(t, lib.DefaultWalletName, start.Wallet)
	require.Equal(t, lib.NodeStateRunning, start.Status.State)
	require.NotZero(t, start.Status.Pid)

	var status apiv1.StatusResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, apiv1.PathStatus, nil, &status))
	require.Equal(t, lib.NodeStateRunning, status.Status.State)
	require.Equal(t, lib.DefaultWalletName, status.Wallet)
	require.NotNil(t, status.RPC)
	require.Equal(t, "tester", status.RPC.User)
	require.NotNil(t, status.LastWallet)
	require.Equal(t, lib.WalletCreatedNew, status.LastWallet.Outcome)

	// a second start leaves the node alone
	var again apiv1.StartResponse
	h.do(t, http.MethodPost, apiv1.PathStart, nil, &again)
	require.True(t, again.Success)
	require.True(t, again.AlreadyRunning)
	require.Equal(t, start.Status.Pid, again.Status.Pid)

	var call apiv1.CallResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, apiv1.PathCall, apiv1.CallRequest{Method: "getbalance"}, &call))
	require.True(t, call.Success, call.Error)
	require.JSONEq(t, `1.5`, string(call.Value))
	require.Equal(t, "getbalance /wallet/default_wallet", h.rpc.lastPath())

	h.do(t, http.MethodPost, apiv1.PathCall, apiv1.CallRequest{
		Method: "echo",
		Params: []json.RawMessage{json.RawMessage(`"a"`), json.RawMessage(`2`), json.RawMessage(`{"k":true}`)},
	}, &call)
	require.True(t, call.Success)
	require.JSONEq(t, `["a",2,{"k":true}]`, string(call.Value))
	require.Equal(t, "echo /", h.rpc.lastPath())

	call = apiv1.CallResponse{}
	h.do(t, http.MethodPost, apiv1.PathCall, apiv1.CallRequest{Method: "nosuchmethod"}, &call)
	require.False(t, call.Success)
	require.Equal(t, "Method not found", call.Error)
	require.Equal(t, "application", call.Kind)
	require.Equal(t, -32601, call.Code)

	var wallet apiv1.WalletResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPut, apiv1.PathWallet, apiv1.WalletRequest{Name: "savings"}, &wallet))
	require.Equal(t, "savings", wallet.Wallet)
	h.do(t, http.MethodPost, apiv1.PathCall, apiv1.CallRequest{Method: "getbalance"}, &call)
	require.Equal(t, "getbalance /wallet/savings", h.rpc.lastPath())

	var stop apiv1.StopResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, apiv1.PathStop, nil, &stop))
	require.True(t, stop.Success)
	require.True(t, stop.WasRunning)
	require.False(t, stop.Forced)
	require.Equal(t, lib.NodeStateStopped, stop.Status.State)

	call = apiv1.CallResponse{}
	require.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodPost, apiv1.PathCall, apiv1.CallRequest{Method: "getbalance"}, &call))
	require.Equal(t, "not_running", call.Kind)

	// stopping again is a no-op
	stop = apiv1.StopResponse{}
	h.do(t, http.MethodPost, apiv1.PathStop, nil, &stop)
	require.True(t, stop.Success)
	require.False(t, stop.WasRunning)
	require.Equal(t, "Daemon not running", stop.Message)
}

func TestHTTP_StartMissingExecutable(t *testing.T) {
	h := newTestHost(t, filepath.Join(t.TempDir(), "missing", "superaxecoind"))

	var start apiv1.StartResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, apiv1.PathStart, nil, &start))
	require.False(t, start.Success)
	require.Equal(t, "executable_not_found", start.Kind)
	require.True(t, strings.HasPrefix(start.Error, "Daemon not found at: "))
	require.Equal(t, lib.NodeStateStopped, start.Status.State)
}

func TestHTTP_BadRequests(t *testing.T) {
	h := newTestHost(t, "")

	var call apiv1.CallResponse
	require.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, apiv1.PathCall, apiv1.CallRequest{Method: "  "}, &call))
	require.Equal(t, "bad_request", call.Kind)

	require.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, apiv1.PathCall, map[string]string{"bogus": "x"}, &call))

	var wallet apiv1.WalletResponse
	require.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, apiv1.PathWallet, nil, &wallet))
	require.Equal(t, "not_running", wallet.Kind)

	require.Equal(t, http.StatusMethodNotAllowed, h.do(t, http.MethodGet, apiv1.PathStart, nil, nil))
}

func TestHTTP_Logs(t *testing.T) {
	h := newTestHost(t, "")

	var res apiv1.Result
	require.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, apiv1.PathLogs, nil, &res))
	require.Equal(t, "not_found", res.Kind)

	var start apiv1.StartResponse
	h.do(t, http.MethodPost, apiv1.PathStart, nil, &start)
	require.True(t, start.Success, start.Error)
	h.node.StopNode()

	resp, err := http.Get(h.http.URL + apiv1.PathLogs)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var stdout bytes.Buffer
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var chunk apiv1.LogChunk
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &chunk))
		if chunk.Stream == lib.StreamStdout {
			stdout.Write(chunk.Data)
		}
	}
	require.NoError(t, scanner.Err())
	require.Contains(t, stdout.String(), "node up -datadir=")
	require.Contains(t, stdout.String(), "bye")
}

func TestHTTP_Events(t *testing.T) {
	h := newTestHost(t, "")

	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + apiv1.PathEvents
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var snapshot lib.Event
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Equal(t, lib.EventStatus, snapshot.Kind)
	require.Equal(t, lib.NodeStateStopped, snapshot.State)

	go func() {
		resp, err := http.Post(h.http.URL+apiv1.PathStart, "application/json", nil)
		if err == nil {
			resp.Body.Close()
		}
	}()

	var states []lib.NodeState
	var wallet *lib.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for wallet == nil {
		var ev lib.Event
		require.NoError(t, conn.ReadJSON(&ev))
		switch ev.Kind {
		case lib.EventStatus:
			states = append(states, ev.State)
			require.NotEmpty(t, ev.RunID)
		case lib.EventWallet:
			wallet = &ev
		}
	}
	require.Equal(t, []lib.NodeState{lib.NodeStateStarting, lib.NodeStateRunning}, states)
	require.Equal(t, lib.WalletCreatedNew, wallet.Outcome)
	require.NotEmpty(t, wallet.RunID)
}

func TestHTTP_Metrics(t *testing.T) {
	h := newTestHost(t, "")

	var start apiv1.StartResponse
	h.do(t, http.MethodPost, apiv1.PathStart, nil, &start)
	require.True(t, start.Success, start.Error)

	resp, err := http.Get(h.http.URL + apiv1.PathMetrics)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Contains(t, string(body), "superaxecoin_node_state "+strconv.Itoa(int(lib.NodeStateRunning)))
	require.Contains(t, string(body), `superaxecoin_rpc_calls_total{method="listwallets",outcome="ok"} 1`)
}

func TestHTTP_StartAbandonedByCaller(t *testing.T) {
	h := newTestHost(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.http.URL+apiv1.PathStart, nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, _ = http.DefaultClient.Do(req)

	require.Eventually(t, func() bool {
		return h.node.Client() != nil
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, lib.NodeStateRunning, h.node.sup.State())
}

func TestHTTP_RejectsNonJSONWrites(t *testing.T) {
	h := newTestHost(t, "")

	var start apiv1.StartResponse
	h.do(t, http.MethodPost, apiv1.PathStart, nil, &start)
	require.True(t, start.Success, start.Error)
	before := h.rpc.lastPath()

	send := func(method, path, contentType, body string) int {
		req, err := http.NewRequest(method, h.http.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var res apiv1.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		if resp.StatusCode == http.StatusUnsupportedMediaType {
			require.Equal(t, "unsupported_media_type", res.Kind)
		}
		return resp.StatusCode
	}

	call := `{"method":"echo","params":["sendtoaddress"]}`
	require.Equal(t, http.StatusUnsupportedMediaType, send(http.MethodPost, apiv1.PathCall, "text/plain", call))
	require.Equal(t, http.StatusUnsupportedMediaType, send(http.MethodPost, apiv1.PathCall, "application/x-www-form-urlencoded", call))
	require.Equal(t, http.StatusUnsupportedMediaType, send(http.MethodPost, apiv1.PathCall, "", call))
	require.Equal(t, http.StatusUnsupportedMediaType, send(http.MethodPut, apiv1.PathWallet, "text/plain", `{"name":"other"}`))
	require.Equal(t, http.StatusUnsupportedMediaType, send(http.MethodPost, apiv1.PathStop, "text/plain", ""))

	require.Equal(t, before, h.rpc.lastPath())
	require.Equal(t, lib.NodeStateRunning, h.node.sup.State())
	require.Equal(t, "default_wallet", h.node.Client().Wallet())

	// parameters on the media type are fine
	require.Equal(t, http.StatusOK, send(http.MethodPost, apiv1.PathCall, "application/json; charset=utf-8", call))
	require.Equal(t, "echo /", h.rpc.lastPath())
}

func TestHTTP_RejectsForeignOrigin(t *testing.T) {
	h := newTestHost(t, "")

	send := func(method, path, origin string) int {
		req, err := http.NewRequest(method, h.http.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	require.Equal(t, http.StatusForbidden, send(http.MethodPost, apiv1.PathStart, "http://evil.example"))
	require.Equal(t, http.StatusForbidden, send(http.MethodGet, apiv1.PathStatus, "http://evil.example"))
	require.Equal(t, http.StatusForbidden, send(http.MethodGet, apiv1.PathStatus, "null"))
	require.Equal(t, lib.NodeStateStopped, h.node.sup.State())

	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + apiv1.PathEvents
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.Equal(t, http.StatusOK, send(http.MethodGet, apiv1.PathStatus, h.http.URL))
}

func TestShutdown_RefusesLaterStarts(t *testing.T) {
	h := newTestHost(t, "")

	var start apiv1.StartResponse
	h.do(t, http.MethodPost, apiv1.PathStart, nil, &start)
	require.True(t, start.Success, start.Error)

	res := h.node.Shutdown()
	require.True(t, res.WasRunning)
	require.Equal(t, lib.NodeStateStopped, h.node.sup.State())
	require.Nil(t, h.node.Client())

	_, err := h.node.StartNode(context.Background())
	require.ErrorIs(t, err, errShuttingDown)

	start = apiv1.StartResponse{}
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, apiv1.PathStart, nil, &start))
	require.False(t, start.Success)
	require.Equal(t, "shutting_down", start.Kind)
	require.Equal(t, lib.NodeStateStopped, start.Status.State)

	// a second shutdown is harmless
	require.False(t, h.node.Shutdown().WasRunning)
}

func TestShutdown_CancelsStartInFlight(t *testing.T) {
	// the wallet step waits long enough for shutdown to overlap it
	h := newTestHostWith(t, "", func(o *lib.Options) { o.WalletDelay = time.Minute })

	started := make(chan error, 1)
	go func() {
		_, err := h.node.StartNode(context.Background())
		started <- err
	}()
	require.Eventually(t, func() bool {
		return h.node.sup.State() == lib.NodeStateRunning
	}, 5*time.Second, 10*time.Millisecond)

	begin := time.Now()
	res := h.node.Shutdown()
	require.Less(t, time.Since(begin), 10*time.Second)
	require.True(t, res.WasRunning)

	select {
	case err := <-started:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("start did not return after shutdown")
	}
	require.Equal(t, lib.NodeStateStopped, h.node.sup.State())
	require.Nil(t, h.node.Client())
}
