package main

import (
	"net/http"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
)

func (s *NodeServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := &apiv1.StatusResponse{
		Result:     apiv1.Result{Success: true},
		Status:     s.sup.Status(),
		LastWallet: s.LastWalletEvent(),
	}
	if client := s.Client(); client != nil {
		cfg := client.Config()
		resp.Wallet = client.Wallet()
		resp.RPC = &apiv1.RpcInfo{Host: cfg.Host, Port: cfg.Port, User: cfg.User}
	}
	writeJSON(w, http.StatusOK, resp)
}
