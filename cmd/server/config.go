package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

const (
	envPrefix          = "SAXC"
	defaultAddress     = "localhost:50051"
	defaultHTTPAddress = "localhost:50052"
)

// Config is the host configuration. Flags win over SAXC_* environment
// variables, which win over the .env file.
type Config struct {
	Network       string        `mapstructure:"network" validate:"oneof=mainnet testnet regtest"`
	Testnet       bool          `mapstructure:"testnet"`
	Regtest       bool          `mapstructure:"regtest"`
	DataDir       string        `mapstructure:"datadir"`
	Daemon        string        `mapstructure:"daemon"`
	Dev           bool          `mapstructure:"dev"`
	RPCPort       int           `mapstructure:"rpcport" validate:"min=0,max=65535"`
	RPCUser       string        `mapstructure:"rpcuser"`
	RPCPassword   string        `mapstructure:"rpcpassword"`
	DefaultWallet string        `mapstructure:"default-wallet" validate:"required"`
	SettleDelay   time.Duration `mapstructure:"settle-delay"`
	StopTimeout   time.Duration `mapstructure:"stop-timeout"`
	WalletDelay   time.Duration `mapstructure:"wallet-delay"`
	Autostart     bool          `mapstructure:"autostart"`

	Address     string `mapstructure:"address" validate:"required,hostname_port"`
	HTTPAddress string `mapstructure:"http-address" validate:"required,hostname_port"`
	TLSKey      string `mapstructure:"tls-key"`
	TLSCert     string `mapstructure:"tls-cert"`
	CATLSCert   string `mapstructure:"ca-tls-cert"`

	LogFormat string `mapstructure:"log-format" validate:"omitempty,oneof=plain text json"`
	LogLevel  string `mapstructure:"log-level" validate:"omitempty,oneof=trace debug info warn error"`

	// NodeArgs are passed to the node unchanged.
	NodeArgs []string `mapstructure:"-"`
}

func addFlags(flags *pflag.FlagSet) {
	flags.String("network", string(lib.Mainnet), "Chain to run: mainnet, testnet or regtest")
	flags.Bool("testnet", false, "Shorthand for --network=testnet")
	flags.Bool("regtest", false, "Shorthand for --network=regtest")
	flags.String("datadir", "", "Node data directory (default: platform application data directory)")
	flags.String("daemon", "", "Path to the node executable")
	flags.Bool("dev", false, "Look for the node in the developer build layout")
	flags.Int("rpcport", 0, "Override the node RPC port")
	flags.String("rpcuser", "", "Override the node RPC user")
	flags.String("rpcpassword", "", "Override the node RPC password")
	flags.String("default-wallet", lib.DefaultWalletName, "Wallet to load or create when none is loaded")
	flags.Duration("settle-delay", lib.DefaultSettleDelay, "Time the node gets before it counts as running")
	flags.Duration("stop-timeout", lib.DefaultStopTimeout, "Time the node gets to exit before it is killed")
	flags.Duration("wallet-delay", lib.DefaultWalletDelay, "Time to wait after start before resolving the wallet")
	flags.Bool("autostart", true, "Start the node when the host starts")
	flags.String("address", defaultAddress, "gRPC listen address")
	flags.String("http-address", defaultHTTPAddress, "HTTP listen address")
	flags.String("tls-key", "", "PEM server key; with --tls-cert and --ca-tls-cert enables mTLS")
	flags.String("tls-cert", "", "PEM server certificate")
	flags.String("ca-tls-cert", "", "PEM CA certificate for client verification")
	flags.String("log-format", "plain", "Log format: plain or json")
	flags.String("log-level", "info", "Log level")
	flags.String("env-file", ".env", "Optional dotenv file")
}

func loadConfig(cmd *cobra.Command, args []string) (*Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.NodeArgs = append([]string(nil), args...)

	switch {
	case cfg.Regtest:
		cfg.Network = string(lib.Regtest)
	case cfg.Testnet:
		cfg.Network = string(lib.Testnet)
	}

	if err := lib.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) TLSEnabled() bool {
	return c.TLSKey != "" && c.TLSCert != "" && c.CATLSCert != ""
}

// Options converts the configuration for the supervisor and the orchestrator.
// RPC overrides are forwarded to the node so both sides agree on them.
func (c *Config) Options() lib.Options {
	network := lib.Network(c.Network)
	args := network.NodeArgs()
	if c.RPCPort != 0 {
		args = append(args, "-rpcport="+strconv.Itoa(c.RPCPort))
	}
	if c.RPCUser != "" {
		args = append(args, "-rpcuser="+c.RPCUser)
	}
	if c.RPCPassword != "" {
		args = append(args, "-rpcpassword="+c.RPCPassword)
	}
	args = append(args, c.NodeArgs...)

	return lib.Options{
		Network:        network,
		DataDir:        c.DataDir,
		ExecutablePath: c.Daemon,
		Dev:            c.Dev,
		NodeArgs:       args,
		RPC: lib.RpcOverrides{
			Port:     c.RPCPort,
			User:     c.RPCUser,
			Password: c.RPCPassword,
		},
		DefaultWallet: c.DefaultWallet,
		SettleDelay:   c.SettleDelay,
		StopTimeout:   c.StopTimeout,
		WalletDelay:   c.WalletDelay,
	}.WithDefaults()
}
