// Package handlers provides HTTP response utilities for JSON APIs.
// These stateless functions standardize response formatting across handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ErrBadPayload wraps JSON bodies that cannot be decoded.
var ErrBadPayload = errors.New("invalid request payload")

// RespondJSON writes a JSON response with the given status code and data.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondNoContent writes an empty 204 response.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondError logs the error and writes a JSON error response of the form
// {"error": "<message>"}. Server errors are logged at error level and their
// message is replaced with the status text; client errors log at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "error", err, "status", status)
		msg = http.StatusText(status)
	} else {
		logger.Warn("request rejected", "error", err, "status", status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// DecodeJSON reads at most limit bytes of r's body into dst. Unknown fields
// are rejected.
func DecodeJSON(r *http.Request, limit int64, dst any) error {
	body := io.LimitReader(r.Body, limit)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadPayload)
		}
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
