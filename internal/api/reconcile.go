package api

import (
	"log/slog"
	"net/http"
)

// ReconcileHandler triggers a full projection reconcile.
type ReconcileHandler struct {
	Reconciler Reconciler
}

type reconcileResponse struct {
	Drifted []string `json:"drifted"`
	Count   int      `json:"count"`
}

// Reconcile handles POST /api/reconcile.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drifted, err := h.Reconciler.Reconcile(r.Context())
	if err != nil {
		slog.Error("reconcile failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "reconcile failed")
		return
	}
	if drifted == nil {
		drifted = []string{}
	}

	claims := GetClaims(r.Context())
	slog.Info("manual reconcile", "user", claims.Username, "drifted", len(drifted))
	jsonResponse(w, http.StatusOK, reconcileResponse{Drifted: drifted, Count: len(drifted)})
}
