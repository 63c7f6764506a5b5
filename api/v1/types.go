// Package apiv1 holds the JSON messages of the host's HTTP control surface.
package apiv1

import (
	"encoding/json"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

// Paths served by the host.
const (
	PathStatus  = "/v1/status"
	PathStart   = "/v1/start"
	PathStop    = "/v1/stop"
	PathCall    = "/v1/call"
	PathWallet  = "/v1/wallet"
	PathLogs    = "/v1/logs"
	PathEvents  = "/v1/events"
	PathMetrics = "/metrics"
)

// Failures travel as data: Success is false and Error carries the message.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Kind classifies Error, e.g. "executable_not_found" or "timeout".
	Kind string `json:"kind,omitempty"`
}

type RpcInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
}

type StatusResponse struct {
	Result
	Status lib.NodeStatus `json:"status"`
	Wallet string         `json:"wallet,omitempty"`
	RPC    *RpcInfo       `json:"rpc,omitempty"`
	// LastWallet is the latest wallet resolution outcome.
	LastWallet *lib.Event `json:"lastWallet,omitempty"`
}

type StartResponse struct {
	Result
	AlreadyRunning bool              `json:"alreadyRunning,omitempty"`
	Wallet         string            `json:"wallet,omitempty"`
	Outcome        lib.WalletOutcome `json:"outcome,omitempty"`
	WalletError    string            `json:"walletError,omitempty"`
	Status         lib.NodeStatus    `json:"status"`
}

type StopResponse struct {
	Result
	WasRunning bool           `json:"wasRunning"`
	Forced     bool           `json:"forced"`
	Message    string         `json:"message,omitempty"`
	Status     lib.NodeStatus `json:"status"`
}

type CallRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

type CallResponse struct {
	Result
	Code   int             `json:"code,omitempty"`
	Value  json.RawMessage `json:"result,omitempty"`
	Wallet string          `json:"wallet,omitempty"`
}

type WalletRequest struct {
	Name string `json:"name"`
}

type WalletResponse struct {
	Result
	Wallet string `json:"wallet"`
}

// LogChunk is one line of the newline-delimited JSON log stream.
type LogChunk struct {
	Stream string `json:"stream"`
	Data   []byte `json:"data"`
}
