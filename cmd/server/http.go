package main

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib/rpcclient"
	"github.com/superness/superaxecoinwallet/pkg/lib/supervisor"
)

// maxBody bounds request bodies of the control surface.
const maxBody = 1 << 20

// Handler returns the HTTP control surface.
func (s *NodeServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+apiv1.PathStatus, s.handleStatus)
	mux.HandleFunc("POST "+apiv1.PathStart, s.handleStart)
	mux.HandleFunc("POST "+apiv1.PathStop, s.handleStop)
	mux.HandleFunc("POST "+apiv1.PathCall, s.handleCall)
	mux.HandleFunc("GET "+apiv1.PathWallet, s.handleGetWallet)
	mux.HandleFunc("PUT "+apiv1.PathWallet, s.handleSetWallet)
	mux.HandleFunc("GET "+apiv1.PathLogs, s.handleLogs)
	mux.HandleFunc("GET "+apiv1.PathEvents, s.handleEvents)
	mux.Handle("GET "+apiv1.PathMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return s.guard(mux)
}

// guard rejects requests from other browser origins and writes whose body
// is not declared as JSON.
func (s *NodeServer) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && !sameOrigin(origin, r.Host) {
			s.logger.Warn("Rejected cross-origin request", "origin", origin, "path", r.URL.Path)
			writeJSON(w, http.StatusForbidden, apiv1.Result{Error: "cross-origin requests are not allowed", Kind: "forbidden"})
			return
		}
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				writeJSON(w, http.StatusUnsupportedMediaType, apiv1.Result{Error: "Content-Type must be application/json", Kind: "unsupported_media_type"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == host
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func failure(err error) apiv1.Result {
	return apiv1.Result{Error: err.Error(), Kind: errorKind(err)}
}

func errorKind(err error) string {
	var rpcErr *rpcclient.Error
	switch {
	case errors.Is(err, supervisor.ErrExecutableNotFound):
		return "executable_not_found"
	case errors.Is(err, supervisor.ErrConfig):
		return "config"
	case errors.Is(err, supervisor.ErrSpawn):
		return "spawn_failed"
	case errors.Is(err, supervisor.ErrProcessExited):
		return "process_exited"
	case errors.Is(err, supervisor.ErrBusy):
		return "busy"
	case errors.Is(err, errNotRunning):
		return "not_running"
	case errors.Is(err, errShuttingDown):
		return "shutting_down"
	case errors.As(err, &rpcErr):
		return rpcErr.Kind.String()
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
