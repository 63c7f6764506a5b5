package main

import (
	"errors"
	"net/http"
	"strings"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib/rpcclient"
)

// handleCall forwards one RPC call to the node through the wallet-aware client.
func (s *NodeServer) handleCall(w http.ResponseWriter, r *http.Request) {
	var req apiv1.CallRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, &apiv1.CallResponse{Result: apiv1.Result{Error: "invalid request: " + err.Error(), Kind: "bad_request"}})
		return
	}
	req.Method = strings.TrimSpace(req.Method)
	if req.Method == "" {
		writeJSON(w, http.StatusBadRequest, &apiv1.CallResponse{Result: apiv1.Result{Error: "method is required", Kind: "bad_request"}})
		return
	}

	client := s.Client()
	if client == nil {
		writeJSON(w, http.StatusServiceUnavailable, &apiv1.CallResponse{Result: failure(errNotRunning)})
		return
	}

	params := make([]interface{}, len(req.Params))
	for i, p := range req.Params {
		params[i] = p
	}

	result, err := client.Call(r.Context(), req.Method, params...)
	if err != nil {
		resp := &apiv1.CallResponse{Result: failure(err), Wallet: client.Wallet()}
		var rpcErr *rpcclient.Error
		if errors.As(err, &rpcErr) {
			resp.Code = int(rpcErr.Code)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, &apiv1.CallResponse{Result: apiv1.Result{Success: true}, Value: result, Wallet: client.Wallet()})
}
