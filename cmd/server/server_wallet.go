package main

import (
	"net/http"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
)

func (s *NodeServer) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	client := s.Client()
	if client == nil {
		writeJSON(w, http.StatusServiceUnavailable, &apiv1.WalletResponse{Result: failure(errNotRunning)})
		return
	}
	writeJSON(w, http.StatusOK, &apiv1.WalletResponse{Result: apiv1.Result{Success: true}, Wallet: client.Wallet()})
}

// handleSetWallet selects the wallet for wallet-scoped calls. It does not load it.
func (s *NodeServer) handleSetWallet(w http.ResponseWriter, r *http.Request) {
	var req apiv1.WalletRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, &apiv1.WalletResponse{Result: apiv1.Result{Error: "invalid request: " + err.Error(), Kind: "bad_request"}})
		return
	}

	client := s.Client()
	if client == nil {
		writeJSON(w, http.StatusServiceUnavailable, &apiv1.WalletResponse{Result: failure(errNotRunning)})
		return
	}
	client.SetWallet(req.Name)
	writeJSON(w, http.StatusOK, &apiv1.WalletResponse{Result: apiv1.Result{Success: true}, Wallet: client.Wallet()})
}
