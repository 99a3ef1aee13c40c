package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithID(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), chimiddleware.RequestIDKey, id)
	return req.WithContext(ctx)
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteOK(rec, requestWithID("req-1"), map[string]string{"k": "v"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, true, env["success"])
	assert.Equal(t, map[string]interface{}{"k": "v"}, env["data"])

	meta := env["meta"].(map[string]interface{})
	assert.Equal(t, "req-1", meta["request_id"])
	assert.NotEmpty(t, meta["timestamp"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	details := map[string]interface{}{"current_status": "approved"}
	require.NoError(t, WriteValidationError(rec, requestWithID("req-2"), "Already decided", details))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, false, env["success"])
	assert.Nil(t, env["data"])

	errBody := env["error"].(map[string]interface{})
	assert.Equal(t, CodeValidationError, errBody["code"])
	assert.Equal(t, "Already decided", errBody["message"])
	assert.Equal(t, "approved", errBody["details"].(map[string]interface{})["current_status"])
}

func TestWriteFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	fields := []FieldError{RequiredFieldError("category"), RequiredFieldError("outcome")}
	require.NoError(t, WriteFieldErrors(rec, requestWithID("req-3"), fields))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	errBody := env["error"].(map[string]interface{})
	got := errBody["details"].(map[string]interface{})["fields"].([]interface{})
	require.Len(t, got, 2)
	first := got[0].(map[string]interface{})
	assert.Equal(t, "category", first["field"])
	assert.Equal(t, "required", first["code"])
}

func TestWriteDefaultMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteNotFound(rec, requestWithID("r"), ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Resource not found")

	rec = httptest.NewRecorder()
	require.NoError(t, WriteNotImplemented(rec, requestWithID("r"), ""))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, WriteUnauthorized(rec, requestWithID("r"), ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}
