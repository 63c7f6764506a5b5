package lib

import "time"

type EventKind string

const (
	EventStatus EventKind = "status"
	EventLog    EventKind = "log"
	EventWallet EventKind = "wallet"
)

// Log streams.
const (
	StreamStdout     = "stdout"
	StreamStderr     = "stderr"
	StreamSupervisor = "supervisor"
)

// WalletOutcome tags how the active wallet was established.
type WalletOutcome string

const (
	WalletAlreadyLoaded  WalletOutcome = "already_loaded"
	WalletLoadedExisting WalletOutcome = "loaded_existing"
	WalletCreatedNew     WalletOutcome = "created_new"
	WalletFailed         WalletOutcome = "failed"
)

// Event is a point-in-time notification. Events are not persisted or queued.
type Event struct {
	Kind  EventKind `json:"kind"`
	Time  time.Time `json:"time"`
	RunID string    `json:"runId,omitempty"`

	// status
	State NodeState `json:"state"`
	Error string    `json:"error,omitempty"`

	// log
	Stream string `json:"stream,omitempty"`
	Line   string `json:"line,omitempty"`

	// wallet
	Wallet  string        `json:"wallet,omitempty"`
	Outcome WalletOutcome `json:"outcome,omitempty"`
}

// Observer receives status, log and wallet events. Notify must not block for long;
// it is called from the goroutine that produced the event.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(ev Event) { f(ev) }

func StatusEvent(state NodeState, errMsg string) Event {
	return Event{Kind: EventStatus, Time: time.Now(), State: state, Error: errMsg}
}

func LogEvent(stream, line string) Event {
	return Event{Kind: EventLog, Time: time.Now(), Stream: stream, Line: line}
}

func WalletEvent(wallet string, outcome WalletOutcome, errMsg string) Event {
	return Event{Kind: EventWallet, Time: time.Now(), Wallet: wallet, Outcome: outcome, Error: errMsg}
}
