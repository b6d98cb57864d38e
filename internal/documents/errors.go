package documents

import (
	"errors"
	"net/http"
)

// Domain errors for document operations.
var (
	ErrNotFound           = errors.New("document not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrNoteNotFound       = errors.New("note not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrDuplicate          = errors.New("document record already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrInvalidOwnership   = errors.New("invalid ownership")
	ErrFileTooLarge       = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrFileNotFound),
		errors.Is(err, ErrNoteNotFound),
		errors.Is(err, ErrTagNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidOwnership):
		return http.StatusForbidden
	case errors.Is(err, ErrInvariantViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
