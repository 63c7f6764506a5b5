package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer encapsulates TLS/mTLS configuration, gRPC server instance and listener.
type GRPCServer struct {
	lis net.Listener
	s   *grpc.Server
}

// NewGRPCServer constructs the gRPC server exposing the node health service.
// It requires client certificates (mTLS) when the TLS material is configured
// and serves plaintext otherwise.
func NewGRPCServer(cfg *Config, node *NodeServer) (*GRPCServer, error) {
	opts := []grpc.ServerOption{grpc.Creds(insecure.NewCredentials())}
	if cfg.TLSEnabled() {
		tlsConfig, err := serverTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts = []grpc.ServerOption{
			grpc.Creds(credentials.NewTLS(tlsConfig)),
			grpc.UnaryInterceptor(identityUnary(node.logger)),
			grpc.StreamInterceptor(identityStream(node.logger)),
		}
	}

	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s, node.health)

	return &GRPCServer{lis: lis, s: s}, nil
}

func serverTLSConfig(cfg *Config) (*tls.Config, error) {
	cert, err := tls.X509KeyPair([]byte(cfg.TLSCert), []byte(cfg.TLSKey))
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}

	caPool := x509.NewCertPool()
	if ok := caPool.AppendCertsFromPEM([]byte(cfg.CATLSCert)); !ok {
		return nil, fmt.Errorf("failed to append CA certificate to pool")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ClientCAs:    caPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// Serve starts serving gRPC on the configured listener.
func (g *GRPCServer) Serve() error {
	return g.s.Serve(g.lis)
}

// Addr returns the network address the server is bound to.
func (g *GRPCServer) Addr() net.Addr { return g.lis.Addr() }

// Stop gracefully stops the gRPC server.
func (g *GRPCServer) Stop() { g.s.GracefulStop() }

// HTTPServer hosts the control surface. With TLS material configured it
// serves HTTPS and, like the gRPC server, requires a client certificate
// that names the caller.
type HTTPServer struct {
	lis net.Listener
	s   *http.Server
	tls bool
}

func NewHTTPServer(cfg *Config, node *NodeServer, base context.Context) (*HTTPServer, error) {
	handler := node.Handler()
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	if cfg.TLSEnabled() {
		tlsConfig, err := serverTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = tlsConfig
		handler = requireClientID(node.logger, handler)
	}
	srv.Handler = handler

	lis, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return &HTTPServer{lis: lis, s: srv, tls: srv.TLSConfig != nil}, nil
}

// Serve blocks until Shutdown. It reports nil after a clean shutdown.
func (h *HTTPServer) Serve() error {
	var err error
	if h.tls {
		err = h.s.ServeTLS(h.lis, "", "")
	} else {
		err = h.s.Serve(h.lis)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (h *HTTPServer) Addr() net.Addr { return h.lis.Addr() }

// Shutdown stops accepting connections and waits for open requests.
func (h *HTTPServer) Shutdown(ctx context.Context) error { return h.s.Shutdown(ctx) }
