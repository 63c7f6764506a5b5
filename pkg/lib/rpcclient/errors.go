package rpcclient

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// Connection means the node could not be reached.
	Connection ErrorKind = iota + 1
	// Timeout means no complete response arrived in time.
	Timeout
	// Protocol means the response body was not a JSON-RPC response.
	Protocol
	// Application means the node answered with an error object.
	Application
)

func (k ErrorKind) String() string {
	switch k {
	case Connection:
		return "connection"
	case Timeout:
		return "timeout"
	case Protocol:
		return "protocol"
	case Application:
		return "application"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	ErrConnection  = errors.New("connection failed")
	ErrTimeout     = errors.New("request timeout")
	ErrProtocol    = errors.New("invalid JSON response")
	ErrApplication = errors.New("rpc error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case Connection:
		return ErrConnection
	case Timeout:
		return ErrTimeout
	case Protocol:
		return ErrProtocol
	case Application:
		return ErrApplication
	default:
		return nil
	}
}

// Error is a failed call. Code is only set for Application errors.
type Error struct {
	Kind    ErrorKind
	Code    btcjson.RPCErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// RPCError returns the node's error object for Application errors.
func (e *Error) RPCError() *btcjson.RPCError {
	if e.Kind != Application {
		return nil
	}
	return &btcjson.RPCError{Code: e.Code, Message: e.Message}
}

func applicationError(rpcErr *btcjson.RPCError) *Error {
	msg := rpcErr.Message
	if msg == "" {
		msg = "RPC Error"
	}
	return &Error{Kind: Application, Code: rpcErr.Code, Message: msg}
}
