package main

import (
	"context"
	"crypto/x509"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib/logging"
)

type clientIDContextKey struct{}

func clientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDContextKey{}).(string)
	return id, ok
}

func withClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDContextKey{}, id)
}

// clientIDFromTLS names the caller by the trust domain of its first SPIFFE
// URI SAN, or by the certificate common name.
func clientIDFromTLS(ctx context.Context) (string, bool) {
	if id, ok := clientIDFromContext(ctx); ok {
		return id, true
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p == nil {
		return "", false
	}
	ti, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok || len(ti.State.PeerCertificates) == 0 || ti.State.PeerCertificates[0] == nil {
		return "", false
	}

	return clientIDFromCert(ti.State.PeerCertificates[0])
}

func clientIDFromCert(leaf *x509.Certificate) (string, bool) {
	for _, uri := range leaf.URIs {
		if uri != nil && uri.Scheme == "spiffe" && uri.Host != "" {
			return uri.Host, true
		}
	}
	if leaf.Subject.CommonName != "" {
		return leaf.Subject.CommonName, true
	}
	return "", false
}

// requireClientID is identityUnary for the HTTP control surface.
func requireClientID(logger logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			id string
			ok bool
		)
		if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 && r.TLS.PeerCertificates[0] != nil {
			id, ok = clientIDFromCert(r.TLS.PeerCertificates[0])
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, apiv1.Result{Error: "client certificate carries no identity", Kind: "unauthenticated"})
			return
		}
		logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "client", id)
		next.ServeHTTP(w, r.WithContext(withClientID(r.Context(), id)))
	})
}

// identityUnary rejects callers without a client identity and logs the rest.
func identityUnary(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id, ok := clientIDFromTLS(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "client certificate carries no identity")
		}
		logger.Debug("gRPC call", "method", info.FullMethod, "client", id)
		return handler(withClientID(ctx, id), req)
	}
}

type streamWithCtx struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *streamWithCtx) Context() context.Context { return s.ctx }

// identityStream is identityUnary for streaming calls such as health Watch.
func identityStream(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		id, ok := clientIDFromTLS(ss.Context())
		if !ok {
			return status.Error(codes.Unauthenticated, "client certificate carries no identity")
		}
		logger.Debug("gRPC stream", "method", info.FullMethod, "client", id)
		return handler(srv, &streamWithCtx{ServerStream: ss, ctx: withClientID(ss.Context(), id)})
	}
}
