// Package handler maps HTTP requests onto the chore, household, notification,
// and identity operations. All error responses share the {error, message}
// envelope so clients can display the message directly.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/hearth/internal/apperr"
)

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError translates an operation error into the wire envelope.
// Authorization failures map to 401; everything else is a 400 carrying the
// operation's message verbatim.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if apperr.IsKind(err, apperr.Authorization) {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, errorResponse{Error: true, Message: err.Error()})
}

// decode parses the JSON request body into v. An empty body is not an error;
// each operation validates its own required fields.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeInvalidBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "The request body could not be parsed"})
}
