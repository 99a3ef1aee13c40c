package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/pagination"
	"github.com/agentfleet/control-plane/store"
	"github.com/agentfleet/control-plane/utils"
)

// DecisionRequest is the optional body of an approve/deny call. An
// absent or empty body is valid; defaults then apply.
type DecisionRequest struct {
	Comment   string `json:"comment"`
	DecidedBy string `json:"decided_by"`
}

// ApprovalListResponse is the data payload for approval list calls
type ApprovalListResponse struct {
	Approvals []*models.Approval  `json:"approvals"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

// ApprovalHandler handles approval-related HTTP requests
type ApprovalHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(st store.Store, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		store:  st,
		logger: logger,
	}
}

// HandleListApprovals handles GET /v1/approvals
func (h *ApprovalHandler) HandleListApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)
	q := r.URL.Query()

	filter := store.ApprovalFilter{
		JobID:       q.Get("job_id"),
		RequestedBy: q.Get("requested_by"),
		Tool:        q.Get("tool"),
		Status:      q.Get("status"),
	}

	if filter.Status != "" && !models.ApprovalStatus(filter.Status).Valid() {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{
			utils.InvalidValueFieldError("status", []string{"pending", "approved", "rejected"}),
		})
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	approvals, info, err := h.store.ListApprovals(ctx, filter, page)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Approval not found",
			zap.String("request_id", requestID),
			zap.String("operation", "list_approvals"))
		return
	}

	if approvals == nil {
		approvals = []*models.Approval{}
	}
	_ = utils.WriteOK(w, r, ApprovalListResponse{Approvals: approvals, PageInfo: info})
}

// HandleGetApproval handles GET /v1/approvals/{id}
func (h *ApprovalHandler) HandleGetApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{utils.RequiredFieldError("id")})
		return
	}

	approval, err := h.store.GetApproval(ctx, id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Approval not found",
			zap.String("request_id", requestID),
			zap.String("approval_id", id),
			zap.String("operation", "get_approval"))
		return
	}

	_ = utils.WriteOK(w, r, approval)
}

// HandleApprove handles POST /v1/approvals/{id}/approve
func (h *ApprovalHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.ApprovalStatusApproved)
}

// HandleDeny handles POST /v1/approvals/{id}/deny
func (h *ApprovalHandler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.ApprovalStatusRejected)
}

// decide applies the one-way approval state machine: the transition is
// permitted only from pending, and exactly once.
func (h *ApprovalHandler) decide(w http.ResponseWriter, r *http.Request, target models.ApprovalStatus) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{utils.RequiredFieldError("id")})
		return
	}

	req, err := parseDecisionBody(r)
	if err != nil {
		h.logger.Warn("failed to parse decision body",
			zap.String("request_id", requestID),
			zap.String("approval_id", id),
			zap.Error(err))
		_ = utils.WriteValidationError(w, r, "Invalid request body", nil)
		return
	}

	approval, err := h.store.GetApproval(ctx, id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Approval not found",
			zap.String("request_id", requestID),
			zap.String("approval_id", id),
			zap.String("operation", "decide_approval"))
		return
	}

	if approval.Status != models.ApprovalStatusPending {
		h.logger.Warn("approval already decided",
			zap.String("request_id", requestID),
			zap.String("approval_id", id),
			zap.String("current_status", string(approval.Status)))
		_ = utils.WriteValidationError(w, r, "Approval has already been decided", map[string]interface{}{
			"current_status": approval.Status,
		})
		return
	}

	decidedBy := req.DecidedBy
	if decidedBy == "" {
		decidedBy = "system"
	}
	decidedAt := time.Now().UTC()

	approval.Status = target
	approval.DecidedBy = &decidedBy
	approval.DecidedAt = &decidedAt
	if req.Comment != "" {
		approval.Comment = &req.Comment
	}

	if err := h.store.UpdateApproval(ctx, approval); err != nil {
		writeStoreError(w, r, h.logger, err, "Approval not found",
			zap.String("request_id", requestID),
			zap.String("approval_id", id),
			zap.String("operation", "decide_approval"))
		return
	}

	h.logger.Info("approval decided",
		zap.String("request_id", requestID),
		zap.String("approval_id", id),
		zap.String("status", string(target)),
		zap.String("decided_by", decidedBy))

	_ = utils.WriteOK(w, r, approval)
}

// parseDecisionBody reads an approve/deny body. No body at all is
// valid; a present but malformed body is not.
func parseDecisionBody(r *http.Request) (DecisionRequest, error) {
	var req DecisionRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}
