package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/store"
	"github.com/agentfleet/control-plane/utils"
)

// UpdateJobRequest represents a partial job update. At least one field
// must be supplied; context and result replace wholesale, not merge.
type UpdateJobRequest struct {
	Status        *string                 `json:"status,omitempty" validate:"omitempty,oneof=queued running completed failed cancelled"`
	ExecutionNode *string                 `json:"execution_node,omitempty"`
	Context       *map[string]interface{} `json:"context,omitempty"`
	Result        *map[string]interface{} `json:"result,omitempty"`
}

// empty reports whether no updatable field was supplied
func (r *UpdateJobRequest) empty() bool {
	return r.Status == nil && r.ExecutionNode == nil && r.Context == nil && r.Result == nil
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(st store.Store, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		store:  st,
		logger: logger,
	}
}

// HandleGetJob handles GET /v1/jobs/{id}
func (h *JobHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{utils.RequiredFieldError("id")})
		return
	}

	job, err := h.store.GetJob(ctx, id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Job not found",
			zap.String("request_id", requestID),
			zap.String("job_id", id),
			zap.String("operation", "get_job"))
		return
	}

	_ = utils.WriteOK(w, r, job)
}

// HandleUpdateJob handles PATCH /v1/jobs/{id}
func (h *JobHandler) HandleUpdateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{utils.RequiredFieldError("id")})
		return
	}

	var req UpdateJobRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteValidationError(w, r, "Invalid request body", nil)
		return
	}

	// An empty update is rejected before any store call
	if req.empty() {
		_ = utils.WriteValidationError(w, r,
			"At least one of status, execution_node, context, result must be supplied", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeValidationFailure(w, r, err)
		return
	}

	job, err := h.store.GetJob(ctx, id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Job not found",
			zap.String("request_id", requestID),
			zap.String("job_id", id),
			zap.String("operation", "update_job"))
		return
	}

	if req.Status != nil {
		job.Status = models.JobStatus(*req.Status)
	}
	if req.ExecutionNode != nil {
		job.ExecutionNode = *req.ExecutionNode
	}
	if req.Context != nil {
		job.Context = *req.Context
	}
	if req.Result != nil {
		job.Result = *req.Result
	}

	// The job can vanish between the fetch and the persist; the store
	// reports that as not found too.
	if err := h.store.UpdateJob(ctx, job); err != nil {
		writeStoreError(w, r, h.logger, err, "Job not found",
			zap.String("request_id", requestID),
			zap.String("job_id", id),
			zap.String("operation", "update_job"))
		return
	}

	h.logger.Info("job updated",
		zap.String("request_id", requestID),
		zap.String("job_id", id))

	_ = utils.WriteOK(w, r, job)
}
