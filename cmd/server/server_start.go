package main

import (
	"context"
	"net/http"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
)

func (s *NodeServer) handleStart(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Start requested", "remote", r.RemoteAddr)

	// the node keeps starting even if the caller goes away
	resp, err := s.StartNode(context.WithoutCancel(r.Context()))
	if err != nil {
		s.logger.Error("Start failed", "error", err)
		writeJSON(w, http.StatusOK, &apiv1.StartResponse{Result: failure(err), Status: s.sup.Status()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
