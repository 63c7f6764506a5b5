package main

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib"
	"github.com/superness/superaxecoinwallet/pkg/lib/logging"
	"github.com/superness/superaxecoinwallet/pkg/lib/orchestrator"
	"github.com/superness/superaxecoinwallet/pkg/lib/output_storage"
	"github.com/superness/superaxecoinwallet/pkg/lib/rpcclient"
	"github.com/superness/superaxecoinwallet/pkg/lib/supervisor"
)

// healthService is the gRPC health service name that tracks the node.
const healthService = "superaxecoind"

const eventBuffer = 64

var (
	errNotRunning   = errors.New("node is not running")
	errShuttingDown = errors.New("server is shutting down")
)

// NodeServer owns the supervisor and exposes it to local clients.
type NodeServer struct {
	sup     *supervisor.Supervisor
	orch    *orchestrator.Orchestrator
	opts    lib.Options
	logger  logging.Logger
	events  *output_storage.Broadcaster[lib.Event]
	health  *health.Server
	metrics *rpcclient.Metrics

	registry  *prometheus.Registry
	nodeState prometheus.Gauge

	// serializes start requests so only one orchestration runs
	startMu sync.Mutex
	// cancelled once shutdown begins; starts check it under startMu
	closing    context.Context
	stopStarts context.CancelFunc

	mu         sync.RWMutex
	client     *rpcclient.Client
	lastWallet *lib.Event
}

func NewNodeServer(opts lib.Options, logger logging.Logger) (*NodeServer, error) {
	logger = logging.OrNop(logger)
	sup, err := supervisor.New(opts, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	s := &NodeServer{
		sup:      sup,
		opts:     sup.Options(),
		logger:   logger.With("module", "server"),
		events:   output_storage.RunNewBroadcaster[lib.Event](eventBuffer),
		health:   health.NewServer(),
		metrics:  rpcclient.NewMetrics(registry),
		registry: registry,
		nodeState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "superaxecoin",
			Subsystem: "node",
			Name:      "state",
			Help:      "Node state: 0 stopped, 1 starting, 2 running, 3 stopping, 4 error",
		}),
	}
	registry.MustRegister(s.nodeState)
	s.closing, s.stopStarts = context.WithCancel(context.Background())

	s.orch = orchestrator.New(sup, s.opts, logger, orchestrator.WithClientFactory(func(cfg lib.RpcConfig) *rpcclient.Client {
		return rpcclient.New(cfg, rpcclient.WithLogger(logger), rpcclient.WithMetrics(s.metrics))
	}))

	s.health.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)
	sup.SetObserver(s)
	return s, nil
}

// Notify fans supervisor events out to subscribers and tracks node health.
func (s *NodeServer) Notify(ev lib.Event) {
	switch ev.Kind {
	case lib.EventStatus:
		s.nodeState.Set(float64(ev.State))
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if ev.State == lib.NodeStateRunning {
			status = healthpb.HealthCheckResponse_SERVING
		}
		s.health.SetServingStatus(healthService, status)
		if ev.State == lib.NodeStateStopped {
			s.mu.Lock()
			s.client = nil
			s.mu.Unlock()
		}
	case lib.EventWallet:
		s.mu.Lock()
		last := ev
		s.lastWallet = &last
		s.mu.Unlock()
	}
	s.events.Publish(ev)
}

// StartNode starts the node and resolves the wallet. A running node is left as is.
// Once shutdown has begun it fails with errShuttingDown, and a start in
// flight is cancelled.
func (s *NodeServer) StartNode(ctx context.Context) (*apiv1.StartResponse, error) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.closing.Err() != nil {
		return nil, errShuttingDown
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(s.closing, cancel)()

	if client := s.Client(); client != nil && s.sup.State() == lib.NodeStateRunning {
		return &apiv1.StartResponse{
			Result:         apiv1.Result{Success: true},
			AlreadyRunning: true,
			Wallet:         client.Wallet(),
			Status:         s.sup.Status(),
		}, nil
	}

	res, err := s.orch.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.client = res.Client
	s.mu.Unlock()

	resp := &apiv1.StartResponse{
		Result:         apiv1.Result{Success: true},
		AlreadyRunning: res.Start.AlreadyRunning,
		Wallet:         res.Wallet,
		Outcome:        res.Outcome,
		Status:         s.sup.Status(),
	}
	if res.WalletErr != nil {
		resp.WalletError = res.WalletErr.Error()
	}
	return resp, nil
}

// StopNode stops the node and waits for it to exit.
func (s *NodeServer) StopNode() *supervisor.StopResult {
	res := s.sup.Stop()
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
	return res
}

// RefuseStarts makes every later StartNode fail and cancels the one in flight.
func (s *NodeServer) RefuseStarts() {
	s.stopStarts()
}

// Shutdown refuses further starts, waits for a start in flight to unwind and
// stops the node.
func (s *NodeServer) Shutdown() *supervisor.StopResult {
	s.RefuseStarts()
	s.startMu.Lock()
	defer s.startMu.Unlock()
	return s.StopNode()
}

// Client is the RPC client of the running node, or nil.
func (s *NodeServer) Client() *rpcclient.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *NodeServer) LastWalletEvent() *lib.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastWallet
}

// Close stops event delivery. Subscribers see their channels closed.
func (s *NodeServer) Close() {
	s.health.Shutdown()
	s.events.Stop()
}
