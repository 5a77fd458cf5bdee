package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mindprobe/mindprobe-api/internal/assessment"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStoreErr maps domain errors onto HTTP statuses. Everything in the
// taxonomy is recoverable by the caller; nothing here retries.
func writeStoreErr(w http.ResponseWriter, err error) {
	var verr *assessment.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "invalid answers",
			"errors":  verr.Problems,
		})
	case errors.Is(err, assessment.ErrBadConfig):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": err.Error()})
	case errors.Is(err, assessment.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, assessment.ErrUnauthorized):
		http.Error(w, "not the attempt owner", http.StatusForbidden)
	case errors.Is(err, assessment.ErrAlreadyCompleted):
		http.Error(w, "attempt already completed", http.StatusBadRequest)
	case errors.Is(err, assessment.ErrConcurrentModification):
		http.Error(w, "attempt completed concurrently", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
