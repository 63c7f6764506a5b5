package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthService is the service name the host reports the node under.
const healthService = "superaxecoind"

// clientTLSConfig builds the client certificate setup from SAXC_TLS_KEY,
// SAXC_TLS_CERT and SAXC_CA_TLS_CERT. It returns nil when none is set.
func clientTLSConfig() (*tls.Config, error) {
	keyPEM := os.Getenv(envPrefix + "_TLS_KEY")
	certPEM := os.Getenv(envPrefix + "_TLS_CERT")
	caPEM := os.Getenv(envPrefix + "_CA_TLS_CERT")

	set := 0
	for _, v := range []string{keyPEM, certPEM, caPEM} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}

	switch set {
	case 0:
		return nil, nil
	case 3:
		cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse TLS cert/key from env: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(caPEM)) {
			return nil, fmt.Errorf("failed to parse CA cert from env")
		}

		return &tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      pool,
			MinVersion:   tls.VersionTLS13,
		}, nil
	default:
		return nil, fmt.Errorf("incomplete TLS environment; require %[1]s_TLS_KEY, %[1]s_TLS_CERT and %[1]s_CA_TLS_CERT", envPrefix)
	}
}

// dial connects to the host's gRPC endpoint, with client certificates when
// the TLS environment is set.
func dial(addr string) (*grpc.ClientConn, error) {
	tlsConfig, err := clientTLSConfig()
	if err != nil {
		return nil, err
	}
	creds := insecure.NewCredentials()
	if tlsConfig != nil {
		creds = credentials.NewTLS(tlsConfig)
	}
	return grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
}

// checkHealth asks the host whether the node is serving.
func checkHealth(ctx context.Context, addr string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := dial(addr)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: healthService})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
