package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aiva-platform/chat/internal/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a classified JSON error response.
func writeError(w http.ResponseWriter, status int, kind model.ErrorKind, message string) {
	writeJSON(w, status, &model.APIError{Kind: kind, Message: message})
}

// writeServiceError maps a service-layer error onto the wire. Unclassified
// errors become a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, apiErr)
		return
	}
	writeError(w, http.StatusInternalServerError, model.ErrKindInternal, "internal error")
}
