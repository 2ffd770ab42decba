package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/b2tsrl/openwhispr/pkg/types"
)

// HTTPError is implemented by service errors that map to a specific
// HTTP status. Anything else is reported as a 500.
type HTTPError interface {
	error
	StatusCode() int
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

// writeServiceError maps service errors carrying an HTTP status to that
// status.
func writeServiceError(w http.ResponseWriter, err error) {
	var he HTTPError
	if errors.As(err, &he) {
		writeJSONError(w, he.StatusCode(), he.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}
