package api

import (
	"log/slog"
	"net/http"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/model"
)

// ClientsHandler handles client endpoints.
type ClientsHandler struct {
	Tracker *custody.Tracker
}

// List handles GET /api/clients.
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Tracker.Clients.ListClients(r.Context()))
}

// Create handles POST /api/clients.
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ClientContact
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, err := h.Tracker.Clients.CreateClient(r.Context(), req)
	if err != nil {
		writeCustodyError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("client created", "user", claims.Username, "client", client.Name)
	jsonResponse(w, http.StatusCreated, client)
}

// Get handles GET /api/clients/{id}.
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !canSeeClient(GetClaims(r.Context()), id) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	client, err := h.Tracker.Clients.GetClient(r.Context(), id)
	if err != nil {
		writeCustodyError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, client)
}

// Update handles PUT /api/clients/{id}.
func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.ClientContact
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, err := h.Tracker.Clients.UpdateClient(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeCustodyError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, client)
}

// Assets handles GET /api/clients/{id}/assets: the bottles the client holds.
func (h *ClientsHandler) Assets(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !canSeeClient(GetClaims(r.Context()), id) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	holdings, err := h.Tracker.Projector.Holdings(id)
	if err != nil {
		writeCustodyError(w, err)
		return
	}

	assets := make([]model.Asset, 0, len(holdings.AssetIDs))
	for _, assetID := range holdings.AssetIDs {
		// An asset removed since the last recompute is skipped.
		a, err := h.Tracker.Registry.GetAsset(r.Context(), assetID)
		if err != nil {
			continue
		}
		assets = append(assets, *a)
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Delete handles DELETE /api/clients/{id}. Only a client that never took part
// in a movement and has no linked users can be deleted.
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Tracker.DeleteClient(r.Context(), id); err != nil {
		writeCustodyError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("client deleted", "user", claims.Username, "client", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "client deleted"})
}

// Recompute handles POST /api/clients/{id}/recompute.
func (h *ClientsHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.Tracker.Projector.Recompute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeCustodyError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, holdings)
}
