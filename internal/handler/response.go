package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "text is required", "field": "text"}
//
// "field" is only present on validation errors. A 500 always carries the
// same generic message; the real cause goes to the log, never to the client.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/hardship-board/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`           // Human-readable description
	Field string `json:"field,omitempty"` // Offending input field, validation errors only
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE writing the body. Once Encode writes,
// the headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to an HTTP status and public body.
//
// errors.Is walks the whole chain, so a service error wrapped with
// fmt.Errorf("...: %w", err) still maps correctly.
func errorStatus(err error) (int, ErrorResponse) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			return http.StatusBadRequest, ErrorResponse{Error: appErr.Message, Field: appErr.Field}
		case errors.Is(err, apperror.ErrNotFound):
			return http.StatusNotFound, ErrorResponse{Error: appErr.Message}
		}
	}
	// Anything else is unexpected. NEVER expose its text: it may contain SQL,
	// file paths or other internals.
	return http.StatusInternalServerError, ErrorResponse{Error: apperror.GenericMessage}
}

// writeError sends the mapped error and logs anything that became a 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst at its zero
// value, so "missing field" errors come from validation instead of the
// decoder.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
