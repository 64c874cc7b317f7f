package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"llmbridge/internal/app"
	"llmbridge/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForKind maps an error class to its HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case app.KindInvalidArgument:
		return http.StatusBadRequest
	case app.KindNotLoaded:
		return http.StatusConflict
	case app.KindLoadFailure:
		return http.StatusUnprocessableEntity
	case app.KindBusy:
		return http.StatusTooManyRequests
	case app.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps err to a status and writes the JSON payload. It
// returns the status written.
func writeServiceError(w http.ResponseWriter, err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		writeJSONError(w, he.StatusCode(), he.Error(), "")
		return he.StatusCode()
	}
	kind := app.Classify(err)
	status := statusForKind(kind)
	if status == http.StatusTooManyRequests {
		countBackpressure("lock")
	}
	writeJSONError(w, status, err.Error(), kind)
	return status
}

// writeJSONError writes a consistent JSON error payload and counts it by kind.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	countError(kind)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response", app.KindInternal)
	}
}
