package supervisor

import "errors"

// ErrorKind classifies supervisor failures.
type ErrorKind int

const (
	ExecutableNotFound ErrorKind = iota + 1
	ConfigError
	SpawnFailed
	ProcessExited
)

var (
	ErrExecutableNotFound = errors.New("node executable not found")
	ErrConfig             = errors.New("node config error")
	ErrSpawn              = errors.New("failed to spawn node")
	ErrProcessExited      = errors.New("node exited")

	// ErrBusy is returned by Start while a Stop is still in progress.
	ErrBusy = errors.New("node is stopping")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case ExecutableNotFound:
		return ErrExecutableNotFound
	case ConfigError:
		return ErrConfig
	case SpawnFailed:
		return ErrSpawn
	case ProcessExited:
		return ErrProcessExited
	default:
		return nil
	}
}

// Error is a supervisor failure. Match the kind with errors.Is(err, ErrExecutableNotFound) etc.
type Error struct {
	Kind    ErrorKind
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
