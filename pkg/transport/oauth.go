package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stacklok/mcp-vgateway/pkg/gwerrors"
	"github.com/stacklok/mcp-vgateway/pkg/httperr"
)

// oauthConnectRequest is the side-channel payload an ingress OAuth
// frontend posts once it holds a bearer token for a backend, per the
// {server_url, token} shape the original's demo backend sends to
// /oauth/connect.
type oauthConnectRequest struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
}

type oauthConnectResponse struct {
	Status string `json:"status"`
}

// oauthRoutes wraps backend.Manager.AttachOAuth behind a closure so this
// package doesn't need to import the concrete backend.Manager type.
type oauthRoutes struct {
	attach func(ctx context.Context, serverURL, token string) (alreadyConnected bool, err error)
}

func (o *oauthRoutes) connect(w http.ResponseWriter, r *http.Request) error {
	var req oauthConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httperr.WithCode(gwerrors.NewBadInputError("invalid JSON body", err), http.StatusBadRequest)
	}
	if req.ServerURL == "" || req.Token == "" {
		return httperr.WithCode(gwerrors.NewBadInputError("server_url and token are required", nil), http.StatusBadRequest)
	}

	alreadyConnected, err := o.attach(r.Context(), req.ServerURL, req.Token)
	if err != nil {
		return httperr.WithCode(fmt.Errorf("failed to attach oauth backend: %w", err), http.StatusInternalServerError)
	}

	status := "connected"
	if alreadyConnected {
		status = "already_connected"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(oauthConnectResponse{Status: status})
	return nil
}
