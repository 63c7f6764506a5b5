// Package orchestrator brings the node up and makes sure a wallet is active.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/superness/superaxecoinwallet/pkg/lib"
	"github.com/superness/superaxecoinwallet/pkg/lib/logging"
	"github.com/superness/superaxecoinwallet/pkg/lib/rpcclient"
	"github.com/superness/superaxecoinwallet/pkg/lib/supervisor"
)

// Supervisor is the part of *supervisor.Supervisor the orchestrator drives.
type Supervisor interface {
	Start() (*supervisor.StartResult, error)
	Notify(lib.Event)
}

// WalletClient is the part of *rpcclient.Client used to resolve the wallet.
type WalletClient interface {
	Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
	SetWallet(name string)
}

// ClientFactory builds the RPC client for a freshly started node.
type ClientFactory func(cfg lib.RpcConfig) *rpcclient.Client

// Result is what a successful Run established.
type Result struct {
	Start   *supervisor.StartResult
	Config  lib.RpcConfig
	Client  *rpcclient.Client
	Wallet  string
	Outcome lib.WalletOutcome
	// WalletErr is set when the node runs but no wallet could be activated.
	WalletErr error
}

type Orchestrator struct {
	sup       Supervisor
	opts      lib.Options
	logger    logging.Logger
	newClient ClientFactory
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Orchestrator)

// WithClientFactory replaces how the RPC client is built.
func WithClientFactory(f ClientFactory) Option {
	return func(o *Orchestrator) { o.newClient = f }
}

func New(sup Supervisor, opts lib.Options, logger logging.Logger, options ...Option) *Orchestrator {
	o := &Orchestrator{
		sup:    sup,
		opts:   opts.WithDefaults(),
		logger: logging.OrNop(logger).With("module", "wallet"),
		sleep:  sleepContext,
	}
	o.newClient = func(cfg lib.RpcConfig) *rpcclient.Client {
		return rpcclient.New(cfg, rpcclient.WithLogger(logger))
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run starts the node, hands its credentials to a new RPC client and
// ensures a wallet is active. A start failure is returned as the error.
// A wallet failure leaves the node running and is reported in Result.WalletErr.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	o.logger.Info("Starting node")
	started, err := o.sup.Start()
	if err != nil {
		o.logger.Error("Node start failed", "error", err)
		return nil, err
	}

	cfg := o.opts.RPC.Apply(started.Config)
	o.logger.Info("Node started", "run", started.RunID, "pid", started.Pid, "rpc", cfg.String())
	client := o.newClient(cfg)

	res := &Result{Start: started, Config: cfg, Client: client}
	if err := o.sleep(ctx, o.opts.WalletDelay); err != nil {
		return nil, err
	}

	res.Outcome, res.Wallet, res.WalletErr = o.EnsureWallet(ctx, client, o.opts.DefaultWallet)
	return res, nil
}

// EnsureWallet activates a wallet on client:
// the first loaded wallet, else defaultName loaded from disk, else defaultName newly created.
// Exactly one outcome is reported to the supervisor's observer.
func (o *Orchestrator) EnsureWallet(ctx context.Context, client WalletClient, defaultName string) (lib.WalletOutcome, string, error) {
	outcome, name, err := o.ensureWallet(ctx, client, defaultName)
	if err != nil {
		o.logger.Error("Failed to ensure wallet loaded", "error", err)
		o.sup.Notify(lib.WalletEvent("", lib.WalletFailed, err.Error()))
		return lib.WalletFailed, "", err
	}
	o.sup.Notify(lib.WalletEvent(name, outcome, ""))
	return outcome, name, nil
}

func (o *Orchestrator) ensureWallet(ctx context.Context, client WalletClient, defaultName string) (lib.WalletOutcome, string, error) {
	o.logger.Info("Checking for loaded wallets")
	raw, err := client.Call(ctx, "listwallets")
	if err != nil {
		return lib.WalletFailed, "", fmt.Errorf("listwallets: %w", err)
	}
	var wallets []string
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, &wallets); err != nil {
		return lib.WalletFailed, "", fmt.Errorf("listwallets: %w", err)
	}
	if len(wallets) > 0 {
		o.logger.Info("Wallet already loaded", "wallet", wallets[0])
		client.SetWallet(wallets[0])
		return lib.WalletAlreadyLoaded, wallets[0], nil
	}

	o.logger.Info("Attempting to load wallet", "wallet", defaultName)
	_, err = client.Call(ctx, "loadwallet", defaultName)
	if err == nil {
		o.logger.Info("Loaded existing wallet", "wallet", defaultName)
		client.SetWallet(defaultName)
		return lib.WalletLoadedExisting, defaultName, nil
	}
	// any load failure means create
	o.logger.Info("Wallet not found, creating", "wallet", defaultName, "error", err)

	if _, err := client.Call(ctx, "createwallet", defaultName); err != nil {
		return lib.WalletFailed, "", fmt.Errorf("createwallet: %w", err)
	}
	o.logger.Info("Created new wallet", "wallet", defaultName)
	client.SetWallet(defaultName)
	return lib.WalletCreatedNew, defaultName, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
