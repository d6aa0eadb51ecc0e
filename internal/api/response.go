package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

type conflictResponse struct {
	Error    string          `json:"error"`
	AssetID  string          `json:"asset_id"`
	Expected model.Custodian `json:"expected"`
	Actual   model.Custodian `json:"actual"`
}

// writeCustodyError maps custody errors to HTTP responses. A stale custodian
// conflict carries the actual custodian so the caller can refresh and retry.
func writeCustodyError(w http.ResponseWriter, err error) {
	var conflict *custody.ConflictError
	switch {
	case errors.As(err, &conflict):
		jsonResponse(w, http.StatusConflict, conflictResponse{
			Error:    err.Error(),
			AssetID:  conflict.AssetID,
			Expected: conflict.Expected,
			Actual:   conflict.Actual,
		})
	case errors.Is(err, custody.ErrStaleCustodian),
		errors.Is(err, custody.ErrNoOpTransfer),
		errors.Is(err, custody.ErrClientInUse),
		errors.Is(err, custody.ErrDuplicateSerial):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, custody.ErrNotFound),
		errors.Is(err, custody.ErrUnknownClient):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, custody.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		slog.Error("custody operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
