package main

import (
	"net/http"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
)

func (s *NodeServer) handleStop(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Stop requested", "remote", r.RemoteAddr)

	res := s.StopNode()
	writeJSON(w, http.StatusOK, &apiv1.StopResponse{
		Result:     apiv1.Result{Success: true},
		WasRunning: res.WasRunning,
		Forced:     res.Forced,
		Message:    res.Message,
		Status:     res.Status,
	})
}
