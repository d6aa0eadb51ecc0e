package api

import (
	"net/http"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/model"
)

// TransfersHandler handles custody transfer endpoints.
type TransfersHandler struct {
	Tracker *custody.Tracker
}

// createTransferRequest identifies the bottle by ID or, as scanned in the
// field, by serial.
type createTransferRequest struct {
	AssetID string          `json:"asset_id"`
	Serial  string          `json:"serial"`
	From    model.Custodian `json:"from"`
	To      model.Custodian `json:"to"`
	Notes   string          `json:"notes"`
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AssetID == "" && req.Serial != "" {
		asset, err := h.Tracker.Registry.GetAssetBySerial(r.Context(), req.Serial)
		if err != nil {
			writeCustodyError(w, err)
			return
		}
		req.AssetID = asset.ID
	}

	claims := GetClaims(r.Context())
	movement, err := h.Tracker.Ledger.Transfer(r.Context(), custody.TransferRequest{
		AssetID:     req.AssetID,
		From:        req.From,
		To:          req.To,
		PerformedBy: claims.Username,
		Notes:       req.Notes,
	})
	if err != nil {
		writeCustodyError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, movement)
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	movements := h.Tracker.Ledger.List(r.Context(), custody.MovementFilter{
		AssetID:  q.Get("asset_id"),
		ClientID: q.Get("client_id"),
	})
	jsonResponse(w, http.StatusOK, movements)
}
