package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "not_found", "detail": "Todo not found."}
//
// "error" is machine-readable; "detail" is the message clients show.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/todo-service/internal/apperror"
	"github.com/sakif/todo-service/internal/validation"
)

// maxBodyBytes caps request bodies. Every payload here is a handful of
// short strings.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error  string `json:"error"`  // Machine-readable error type (e.g., "not_found")
	Detail string `json:"detail"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE writing the body. Once Encode
// writes, the headers are gone and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// The headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation   → 422
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	ErrForbidden    → 403
//	ErrUnauthorized → 401
//	anything else   → 500 with a generic message
//
// errors.Is walks the whole chain, so "creating todo: Todo not found."
// built with %w still maps to 404.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusUnprocessableEntity // 422
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
			errorType = "unauthorized"
			w.Header().Set("WWW-Authenticate", "Bearer")
		}

		writeJSON(w, status, ErrorResponse{
			Error:  errorType,
			Detail: appErr.Message,
		})
		return
	}

	// Unknown error: NEVER expose internal details (SQL, file paths) to clients.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:  "internal_error",
		Detail: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed or oversized bodies are validation errors (422), the same
// class as a payload that parses but breaks the schema.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		case errors.As(err, &typeErr):
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
		default:
			return apperror.ValidationFailed("body", "request body must be valid JSON")
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}

// pathID parses the {id} path parameter.
func pathID(r *http.Request) (int64, error) {
	return validation.ID(r.PathValue("id"))
}
