package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"platos/internal/apperr"
	applog "platos/internal/log"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error onto a status code. Anything that is
// not a domain error is logged and reported as a generic failure.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, action string) {
	var cycle *apperr.CycleError
	switch {
	case errors.As(err, &cycle):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": err.Error(),
			"dish":  cycle.DishID,
			"path":  cycle.Path,
		})
	case errors.Is(err, apperr.ErrInvalidArgument):
		writeJSONError(w, http.StatusBadRequest, apperr.Message(err))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		writeJSONError(w, http.StatusConflict, apperr.Message(err))
	case errors.Is(err, apperr.ErrDataIntegrity):
		applog.Error(ctx, "data integrity fault", "action", action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		applog.Debug(ctx, "request abandoned", "action", action, "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		applog.Error(ctx, "request failed", "action", action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to "+action)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}
