package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/superness/superaxecoinwallet/pkg/lib/logging"
)

const shutdownTimeout = 5 * time.Second

// run hosts the node until ctx is cancelled or a termination signal arrives.
// Both listeners are closed before the node is stopped, and the node is
// always stopped before run returns.
func run(ctx context.Context, cfg *Config, logger logging.Logger) error {
	node, err := NewNodeServer(cfg.Options(), logger)
	if err != nil {
		return err
	}
	defer node.Close()

	grpcSrv, err := NewGRPCServer(cfg, node)
	if err != nil {
		return err
	}

	// request contexts end with it, which closes log and event streams
	base, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	httpSrv, err := NewHTTPServer(cfg, node, base)
	if err != nil {
		grpcSrv.Stop()
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC listening", "address", grpcSrv.Addr().String(), "tls", cfg.TLSEnabled())
		if err := grpcSrv.Serve(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP listening", "address", httpSrv.Addr().String(), "tls", cfg.TLSEnabled())
		return httpSrv.Serve()
	})

	if cfg.Autostart {
		g.Go(func() error {
			if _, err := node.StartNode(ctx); err != nil && !errors.Is(err, errShuttingDown) {
				logger.Error("Autostart failed", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")

		node.RefuseStarts()
		cancelRequests()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcSrv.Stop()

		res := node.Shutdown()
		logger.Info("Node shut down", "was-running", res.WasRunning, "forced", res.Forced)
		return err
	})

	return g.Wait()
}
