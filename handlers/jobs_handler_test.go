package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/store"
)

func TestHandleGetJob(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns job", func(t *testing.T) {
		mockStore := new(MockStore)
		job := models.NewJob("tkt_1")
		mockStore.On("GetJob", mock.Anything, job.ID).Return(job, nil)
		handler := NewJobHandler(mockStore, logger)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/jobs/"+job.ID, nil), "id", job.ID)
		rec := httptest.NewRecorder()

		handler.HandleGetJob(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Job
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &got))
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, models.JobStatusQueued, got.Status)
	})

	t.Run("maps missing job to 404", func(t *testing.T) {
		mockStore := new(MockStore)
		mockStore.On("GetJob", mock.Anything, "job_missing").Return(nil, store.ErrNotFound)
		handler := NewJobHandler(mockStore, logger)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/jobs/job_missing", nil), "id", "job_missing")
		rec := httptest.NewRecorder()

		handler.HandleGetJob(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Code)
	})
}

func TestHandleUpdateJob(t *testing.T) {
	logger := zap.NewNop()

	t.Run("applies partial update", func(t *testing.T) {
		mockStore := new(MockStore)
		job := models.NewJob("tkt_1")
		mockStore.On("GetJob", mock.Anything, job.ID).Return(job, nil)
		mockStore.On("UpdateJob", mock.Anything, mock.AnythingOfType("*models.Job")).Return(nil)
		handler := NewJobHandler(mockStore, logger)

		body := `{"status": "running", "execution_node": "node-7"}`
		req := withURLParam(httptest.NewRequest(http.MethodPatch, "/v1/jobs/"+job.ID, strings.NewReader(body)), "id", job.ID)
		rec := httptest.NewRecorder()

		handler.HandleUpdateJob(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Job
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &got))
		assert.Equal(t, models.JobStatusRunning, got.Status)
		assert.Equal(t, "node-7", got.ExecutionNode)
		mockStore.AssertExpectations(t)
	})

	t.Run("replaces context wholesale", func(t *testing.T) {
		mockStore := new(MockStore)
		job := models.NewJob("tkt_1")
		job.Context = map[string]interface{}{"old_key": "old"}
		mockStore.On("GetJob", mock.Anything, job.ID).Return(job, nil)
		mockStore.On("UpdateJob", mock.Anything, mock.AnythingOfType("*models.Job")).Return(nil)
		handler := NewJobHandler(mockStore, logger)

		body := `{"context": {"new_key": "new"}}`
		req := withURLParam(httptest.NewRequest(http.MethodPatch, "/v1/jobs/"+job.ID, strings.NewReader(body)), "id", job.ID)
		rec := httptest.NewRecorder()

		handler.HandleUpdateJob(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Job
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &got))
		assert.Equal(t, map[string]interface{}{"new_key": "new"}, got.Context)
	})

	t.Run("rejects empty update before any store call", func(t *testing.T) {
		mockStore := new(MockStore)
		handler := NewJobHandler(mockStore, logger)

		req := withURLParam(httptest.NewRequest(http.MethodPatch, "/v1/jobs/job_1", strings.NewReader(`{}`)), "id", "job_1")
		rec := httptest.NewRecorder()

		handler.HandleUpdateJob(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
		mockStore.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything)
		mockStore.AssertNotCalled(t, "UpdateJob", mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		mockStore := new(MockStore)
		handler := NewJobHandler(mockStore, logger)

		body := `{"status": "paused"}`
		req := withURLParam(httptest.NewRequest(http.MethodPatch, "/v1/jobs/job_1", strings.NewReader(body)), "id", "job_1")
		rec := httptest.NewRecorder()

		handler.HandleUpdateJob(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		mockStore.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything)
	})

	t.Run("maps vanish between fetch and persist to 404", func(t *testing.T) {
		mockStore := new(MockStore)
		job := models.NewJob("tkt_1")
		mockStore.On("GetJob", mock.Anything, job.ID).Return(job, nil)
		mockStore.On("UpdateJob", mock.Anything, mock.Anything).Return(store.ErrNotFound)
		handler := NewJobHandler(mockStore, logger)

		body := `{"status": "completed"}`
		req := withURLParam(httptest.NewRequest(http.MethodPatch, "/v1/jobs/"+job.ID, strings.NewReader(body)), "id", job.ID)
		rec := httptest.NewRecorder()

		handler.HandleUpdateJob(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
