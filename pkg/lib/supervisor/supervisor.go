package supervisor

import (
	"os/exec"
	"sync"
	"time"

	"github.com/btcsuite/btcutil"

	"github.com/superness/superaxecoinwallet/pkg/lib"
	"github.com/superness/superaxecoinwallet/pkg/lib/logging"
	"github.com/superness/superaxecoinwallet/pkg/lib/output_storage"
)

// killGrace bounds how long a forced stop waits for the exit to be reaped.
const killGrace = 5 * time.Second

// Supervisor owns at most one node process.
//
// Observers are notified synchronously. They may call Status but must not call
// Start or Stop from Notify.
type Supervisor struct {
	opts     lib.Options
	dataDir  string
	execPath string
	logger   logging.Logger

	// serializes Start
	lifecycleMu sync.Mutex
	// serializes a state change with its notification
	emitMu sync.Mutex

	mu     sync.RWMutex
	state  lib.NodeState
	handle *processHandle
	last   *processHandle
	config *lib.RpcConfig

	observerMu sync.RWMutex
	observer   lib.Observer

	terminate func(pid int) error
	kill      func(pid int) error
}

type processHandle struct {
	runID string
	cmd   *exec.Cmd
	pid   int
	start time.Time
	done  chan struct{}

	stdout *output_storage.OutputStorage
	stderr *output_storage.OutputStorage

	// set before done is closed
	end      time.Time
	exitCode *int
	signal   string
	err      error

	stopRequested bool
	killOnce      sync.Once
}

// DefaultDataDir is the platform application-data directory of the node.
func DefaultDataDir() string {
	return btcutil.AppDataDir(lib.ServiceName, true)
}

// New creates a supervisor in the stopped state. Nothing is spawned or written.
func New(opts lib.Options, logger logging.Logger) (*Supervisor, error) {
	opts = opts.WithDefaults()
	if err := lib.Validate(opts); err != nil {
		return nil, err
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	s := &Supervisor{
		opts:      opts,
		dataDir:   dataDir,
		execPath:  ResolveExecutablePath(CurrentEnvironment(opts)),
		logger:    logging.OrNop(logger).With("module", "supervisor"),
		state:     lib.NodeStateStopped,
		terminate: terminateProcess,
		kill:      killProcessGroup,
	}
	return s, nil
}

func (s *Supervisor) DataDir() string { return s.dataDir }

func (s *Supervisor) ExecutablePath() string { return s.execPath }

func (s *Supervisor) Options() lib.Options { return s.opts }

// SetObserver replaces the observer. A nil observer drops events.
func (s *Supervisor) SetObserver(o lib.Observer) {
	s.observerMu.Lock()
	s.observer = o
	s.observerMu.Unlock()
}

// Notify forwards ev to the observer, stamping the current run ID.
func (s *Supervisor) Notify(ev lib.Event) {
	if ev.RunID == "" {
		s.mu.RLock()
		if s.handle != nil {
			ev.RunID = s.handle.runID
		} else if s.last != nil {
			ev.RunID = s.last.runID
		}
		s.mu.RUnlock()
	}
	s.notify(ev)
}

func (s *Supervisor) notify(ev lib.Event) {
	s.observerMu.RLock()
	o := s.observer
	s.observerMu.RUnlock()
	if o != nil {
		o.Notify(ev)
	}
}

// transition sets the state and notifies the observer in one step.
func (s *Supervisor) transition(state lib.NodeState, errMsg string) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.state = state
	runID := s.currentRunIDLocked()
	s.mu.Unlock()

	s.emitStatus(runID, state, errMsg)
}

func (s *Supervisor) emitStatus(runID string, state lib.NodeState, errMsg string) {
	s.logger.Info("Node state changed", "state", state, "run", runID, "error", errMsg)
	ev := lib.StatusEvent(state, errMsg)
	ev.RunID = runID
	s.notify(ev)
}

func (s *Supervisor) currentRunIDLocked() string {
	if s.handle != nil {
		return s.handle.runID
	}
	if s.last != nil {
		return s.last.runID
	}
	return ""
}

// logLine reports a supervisor message both to the logger and as a log event.
func (s *Supervisor) logLine(runID, msg string) {
	s.logger.Info(msg, "run", runID)
	ev := lib.LogEvent(lib.StreamSupervisor, msg)
	ev.RunID = runID
	s.notify(ev)
}
