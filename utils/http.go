package utils

import (
	"encoding/json"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Error codes in the wire taxonomy
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeNotImplemented  = "NOT_IMPLEMENTED"
	CodeUnauthorized    = "UNAUTHORIZED"
)

// Meta carries per-response metadata. RequestID is propagated from the
// request-id middleware and appears on every response, success or error.
type Meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the error half of the response envelope
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Envelope is the uniform wire wrapper around every response
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// FieldError reports a single field-level validation failure so callers
// can render per-field UI without string-parsing messages
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMeta(r *http.Request) Meta {
	return Meta{
		RequestID: chimiddleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC(),
	}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 success envelope
func WriteOK(w http.ResponseWriter, r *http.Request, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Meta: newMeta(r)})
}

// WriteCreated writes a 201 success envelope
func WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Meta: newMeta(r)})
}

// WriteError writes an error envelope with the given status and code
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) error {
	return WriteJSON(w, status, Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
		Meta:    newMeta(r),
	})
}

// WriteValidationError writes a 400 VALIDATION_ERROR envelope
func WriteValidationError(w http.ResponseWriter, r *http.Request, message string, details map[string]interface{}) error {
	return WriteError(w, r, http.StatusBadRequest, CodeValidationError, message, details)
}

// WriteFieldErrors writes a 400 VALIDATION_ERROR envelope with
// field-level failures under details.fields
func WriteFieldErrors(w http.ResponseWriter, r *http.Request, fields []FieldError) error {
	return WriteValidationError(w, r, "Validation failed", map[string]interface{}{
		"fields": fields,
	})
}

// WriteNotFound writes a 404 NOT_FOUND envelope
func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteError(w, r, http.StatusNotFound, CodeNotFound, message, nil)
}

// WriteInternalError writes a 500 INTERNAL_ERROR envelope. The message
// is always generic; diagnostics belong in the server-side log.
func WriteInternalError(w http.ResponseWriter, r *http.Request) error {
	return WriteError(w, r, http.StatusInternalServerError, CodeInternalError, "An internal error occurred", nil)
}

// WriteNotImplemented writes a 501 NOT_IMPLEMENTED envelope
func WriteNotImplemented(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Not implemented"
	}
	return WriteError(w, r, http.StatusNotImplemented, CodeNotImplemented, message, nil)
}

// WriteUnauthorized writes a 401 UNAUTHORIZED envelope
func WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}
