package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/imaging"
	"github.com/eluxtan/gasledger/internal/model"
	"github.com/eluxtan/gasledger/internal/scheduler"
	"github.com/eluxtan/gasledger/internal/store"
)

// AssetsHandler handles bottle endpoints.
type AssetsHandler struct {
	DB      *sql.DB
	Tracker *custody.Tracker
}

type createAssetRequest struct {
	Serial string `json:"serial"`
	model.AssetAttributes
}

type deleteAssetRequest struct {
	Reason string `json:"reason"`
}

type replayResponse struct {
	AssetID    string          `json:"asset_id"`
	Replayed   model.Custodian `json:"replayed"`
	Current    model.Custodian `json:"current"`
	Consistent bool            `json:"consistent"`
	Movements  int             `json:"movements"`
}

type statsResponse struct {
	model.AssetStats
	Clients       int    `json:"clients"`
	Movements     int    `json:"movements"`
	LastReconcile string `json:"last_reconcile,omitempty"`
}

// List handles GET /api/assets.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	jsonResponse(w, http.StatusOK, h.Tracker.Registry.ListAssets(r.Context(), model.AssetStatus(status)))
}

// Create handles POST /api/assets.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	asset, err := h.Tracker.Registry.CreateAsset(r.Context(), req.Serial, req.AssetAttributes)
	if err != nil {
		writeCustodyError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("asset registered", "user", claims.Username, "serial", asset.Serial)
	jsonResponse(w, http.StatusCreated, asset)
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := h.Tracker.Registry.GetAsset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeCustodyError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// GetBySerial handles GET /api/assets/serial/{serial}.
func (h *AssetsHandler) GetBySerial(w http.ResponseWriter, r *http.Request) {
	asset, err := h.Tracker.Registry.GetAssetBySerial(r.Context(), r.PathValue("serial"))
	if err != nil {
		writeCustodyError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// History handles GET /api/assets/{id}/history. Removed assets keep their history.
func (h *AssetsHandler) History(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Tracker.Ledger.History(r.Context(), r.PathValue("id")))
}

// Replay handles GET /api/assets/{id}/replay.
func (h *AssetsHandler) Replay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	asset, history, err := h.Tracker.Ledger.AssetHistory(r.Context(), id)
	if err != nil {
		writeCustodyError(w, err)
		return
	}

	replayed := model.Warehouse()
	if n := len(history); n > 0 {
		replayed = history[n-1].To
	}
	jsonResponse(w, http.StatusOK, replayResponse{
		AssetID:    id,
		Replayed:   replayed,
		Current:    asset.Custodian,
		Consistent: replayed.Equal(asset.Custodian),
		Movements:  len(history),
	})
}

// Delete handles DELETE /api/assets/{id}. It removes the asset outside the
// ledger; the body may carry a reason.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteAssetRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	claims := GetClaims(r.Context())
	removal, err := h.Tracker.RemoveAsset(r.Context(), r.PathValue("id"), claims.Username, req.Reason)
	if err != nil {
		writeCustodyError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, removal)
}

// Removals handles GET /api/assets/removals.
func (h *AssetsHandler) Removals(w http.ResponseWriter, r *http.Request) {
	removals, err := store.ListRemovals(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list removals", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list removals")
		return
	}
	if removals == nil {
		removals = []model.Removal{}
	}
	jsonResponse(w, http.StatusOK, removals)
}

// Stats handles GET /api/assets/stats.
func (h *AssetsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		AssetStats: h.Tracker.Registry.Stats(),
		Clients:    len(h.Tracker.Clients.ListClients(r.Context())),
		Movements:  h.Tracker.Ledger.Len(),
	}
	if last, err := store.GetSetting(r.Context(), h.DB, scheduler.LastReconcileKey); err == nil {
		resp.LastReconcile = last
	}
	jsonResponse(w, http.StatusOK, resp)
}

// UploadImage handles PUT /api/assets/{id}/image.
func (h *AssetsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.Tracker.Registry.GetAsset(r.Context(), id); err != nil {
		writeCustodyError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<10)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	if err := store.SetAssetImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "asset", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "image uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetImage handles GET /api/assets/{id}/image. ?size=thumb serves a thumbnail.
func (h *AssetsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetAssetImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	if r.URL.Query().Get("size") == "thumb" {
		thumb, err := imaging.Thumbnail(data)
		if err != nil {
			slog.Error("failed to build thumbnail", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to build thumbnail")
			return
		}
		data, mime = thumb.Data, thumb.MIME
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
