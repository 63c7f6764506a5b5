package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib"
)

// handleLogs streams the node output of the current or last run from the
// beginning as newline-delimited JSON. It ends when the run has ended.
func (s *NodeServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	stdout, stderr, err := s.sup.Output()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, &apiv1.Result{Error: "node has not run yet", Kind: "not_found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, failure(err))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	ctx := r.Context()
	for {
		if stdout == nil && stderr == nil {
			return
		}

		var chunk apiv1.LogChunk
		select {
		case <-ctx.Done():
			return
		case data, ok := <-stdout:
			if !ok {
				stdout = nil
				continue
			}
			chunk = apiv1.LogChunk{Stream: lib.StreamStdout, Data: data}
		case data, ok := <-stderr:
			if !ok {
				stderr = nil
				continue
			}
			chunk = apiv1.LogChunk{Stream: lib.StreamStderr, Data: data}
		}

		if err := enc.Encode(chunk); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
