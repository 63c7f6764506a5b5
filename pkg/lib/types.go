package lib

import (
	"fmt"
	"time"
)

// NodeState is the supervisor's view of the node process.
type NodeState int

const (
	NodeStateStopped NodeState = iota
	NodeStateStarting
	NodeStateRunning
	NodeStateStopping
	NodeStateError
)

func (s NodeState) String() string {
	switch s {
	case NodeStateStopped:
		return "stopped"
	case NodeStateStarting:
		return "starting"
	case NodeStateRunning:
		return "running"
	case NodeStateStopping:
		return "stopping"
	case NodeStateError:
		return "error"
	default:
		return fmt.Sprintf("NodeState(%d)", int(s))
	}
}

// MarshalText lets the state travel as its name in JSON payloads.
func (s NodeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *NodeState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "stopped":
		*s = NodeStateStopped
	case "starting":
		*s = NodeStateStarting
	case "running":
		*s = NodeStateRunning
	case "stopping":
		*s = NodeStateStopping
	case "error":
		*s = NodeStateError
	default:
		return fmt.Errorf("unknown node state %q", string(b))
	}
	return nil
}

// NodeStatus captures the node process handle and its state at a point in time.
// Pid is zero when no process is alive.
type NodeStatus struct {
	State          NodeState  `json:"state"`
	RunID          string     `json:"runId,omitempty"`
	Pid            int        `json:"pid,omitempty"`
	DataDir        string     `json:"dataDir"`
	ExecutablePath string     `json:"executablePath"`
	StartTime      *time.Time `json:"startTime,omitempty"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	ExitCode       *int       `json:"exitCode,omitempty"`
	Signal         string     `json:"signal,omitempty"`
}

// Running reports whether a node process is currently alive.
func (st NodeStatus) Running() bool {
	return st.Pid != 0 && st.State != NodeStateStopped
}

// RpcConfig holds the connection parameters of the node's RPC endpoint.
type RpcConfig struct {
	Host     string `json:"host" validate:"required,hostname|ip"`
	Port     int    `json:"port" validate:"min=1,max=65535"`
	User     string `json:"user"`
	Password string `json:"pass"`
}

// WithDefaults returns a copy of cfg with every missing field filled in.
func (cfg RpcConfig) WithDefaults(network Network) RpcConfig {
	if cfg.Host == "" {
		cfg.Host = DefaultRPCHost
	}
	if cfg.Port == 0 {
		cfg.Port = network.DefaultRPCPort()
	}
	if cfg.User == "" {
		cfg.User = DefaultRPCUser
	}
	return cfg
}

// Address returns host:port.
func (cfg RpcConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// String never prints the password.
func (cfg RpcConfig) String() string {
	pass := ""
	if cfg.Password != "" {
		pass = "***"
	}
	return fmt.Sprintf("%s@%s (pass %s)", cfg.User, cfg.Address(), pass)
}

// RpcOverrides are caller-supplied values that win over the config file.
type RpcOverrides struct {
	Port     int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	User     string `json:"user,omitempty"`
	Password string `json:"pass,omitempty"`
}

// Apply returns cfg with every non-empty override applied.
func (o RpcOverrides) Apply(cfg RpcConfig) RpcConfig {
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.User != "" {
		cfg.User = o.User
	}
	if o.Password != "" {
		cfg.Password = o.Password
	}
	return cfg
}

// Options is the parsed command line handed to the supervisor and the orchestrator.
type Options struct {
	Network        Network       `validate:"oneof=mainnet testnet regtest"`
	DataDir        string
	ExecutablePath string
	Dev            bool
	NodeArgs       []string
	RPC            RpcOverrides
	DefaultWallet  string        `validate:"required"`
	SettleDelay    time.Duration `validate:"min=0"`
	StopTimeout    time.Duration `validate:"min=0"`
	WalletDelay    time.Duration `validate:"min=0"`
}

// DefaultOptions returns the options used when nothing was specified.
func DefaultOptions() Options {
	return Options{
		Network:       Mainnet,
		DefaultWallet: DefaultWalletName,
		SettleDelay:   DefaultSettleDelay,
		StopTimeout:   DefaultStopTimeout,
		WalletDelay:   DefaultWalletDelay,
	}
}

// WithDefaults fills zero values with the defaults. Durations of zero mean "use the default".
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Network == "" {
		o.Network = d.Network
	}
	if o.DefaultWallet == "" {
		o.DefaultWallet = d.DefaultWallet
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = d.SettleDelay
	}
	if o.StopTimeout == 0 {
		o.StopTimeout = d.StopTimeout
	}
	if o.WalletDelay == 0 {
		o.WalletDelay = d.WalletDelay
	}
	return o
}
