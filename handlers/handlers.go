package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/pagination"
	"github.com/agentfleet/control-plane/store"
	"github.com/agentfleet/control-plane/utils"
)

// decodeJSONBody decodes a JSON request body into dst
func decodeJSONBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeStoreError maps a store error to the wire taxonomy. Raw store
// error text never reaches the client; diagnostics go to the log.
func writeStoreError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, notFoundMsg string, logFields ...zap.Field) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = utils.WriteNotFound(w, r, notFoundMsg)
	case errors.Is(err, store.ErrInvalidCursor):
		logger.Warn("invalid pagination cursor", append(logFields, zap.Error(err))...)
		_ = utils.WriteValidationError(w, r, "Invalid pagination cursor", nil)
	default:
		logger.Error("store operation failed", append(logFields, zap.Error(err))...)
		_ = utils.WriteInternalError(w, r)
	}
}

// parsePage parses pagination query parameters, writing a validation
// error response on failure
func parsePage(w http.ResponseWriter, r *http.Request) (pagination.Page, bool) {
	page, err := pagination.ParsePage(r.URL.Query().Get("limit"), r.URL.Query().Get("cursor"))
	if err != nil {
		_ = utils.WriteValidationError(w, r, "limit must be a positive integer", nil)
		return pagination.Page{}, false
	}
	return page, true
}

// NotFoundHandler is the JSON fallback for unmatched routes
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, r, "Endpoint not found")
}

// EventStreamHandler reserves the event-stream surface. The capability
// is staged behind the EVENTS_ENABLED flag but not yet shipped.
func EventStreamHandler(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			_ = utils.WriteNotImplemented(w, r, "Event stream is not enabled")
			return
		}
		_ = utils.WriteNotImplemented(w, r, "Event stream is not yet available")
	}
}
