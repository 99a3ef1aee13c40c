package handlers

import (
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

// CreateAuditEventRequest is the body of an audit ingestion call. The
// enum fields are validated against their closed sets; every failing
// field is reported in one response.
type CreateAuditEventRequest struct {
	EventType    string                 `json:"event_type" validate:"required"`
	Category     string                 `json:"category" validate:"required,oneof=security compliance operational access data"`
	Severity     string                 `json:"severity" validate:"required,oneof=info warning error critical"`
	ActorID      string                 `json:"actor_id" validate:"required"`
	ActorType    string                 `json:"actor_type" validate:"required,oneof=user system agent service"`
	Action       string                 `json:"action" validate:"required"`
	ResourceID   string                 `json:"resource_id" validate:"required"`
	ResourceType string                 `json:"resource_type" validate:"required"`
	WorkspaceID  string                 `json:"workspace_id" validate:"required"`
	Outcome      string                 `json:"outcome" validate:"required,oneof=success failure pending"`
	Context      map[string]interface{} `json:"context"`
	Details      map[string]interface{} `json:"details"`
	Timestamp    *time.Time             `json:"timestamp"`
}

// AuditListResponse is the data payload for audit list calls
type AuditListResponse struct {
	Events   []*models.AuditEvent `json:"events"`
	PageInfo pagination.PageInfo  `json:"page_info"`
}

// AuditHandler handles audit-related HTTP requests
type AuditHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(st store.Store, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		store:  st,
		logger: logger,
	}
}

// HandleCreateAuditEvent handles POST /v1/audit
func (h *AuditHandler) HandleCreateAuditEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	var req CreateAuditEventRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.logger.Warn("failed to decode audit event body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteValidationError(w, r, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationFailure(w, r, err)
		return
	}

	now := time.Now().UTC()
	event := &models.AuditEvent{
		ID:           models.NewAuditEventID(),
		EventType:    req.EventType,
		Category:     models.AuditCategory(req.Category),
		Severity:     models.AuditSeverity(req.Severity),
		ActorID:      req.ActorID,
		ActorType:    models.ActorType(req.ActorType),
		Action:       req.Action,
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		WorkspaceID:  req.WorkspaceID,
		Outcome:      models.AuditOutcome(req.Outcome),
		Context:      req.Context,
		Details:      req.Details,
		Timestamp:    now,
		// ReceivedAt is the ingestion clock of record, never caller-settable.
		ReceivedAt: now,
	}
	if req.Timestamp != nil {
		event.Timestamp = req.Timestamp.UTC()
	}

	if err := h.store.CreateAuditEvent(ctx, event); err != nil {
		h.logger.Error("failed to persist audit event",
			zap.String("request_id", requestID),
			zap.String("event_id", event.ID),
			zap.Error(err))
		_ = utils.WriteInternalError(w, r)
		return
	}

	h.logger.Info("audit event recorded",
		zap.String("request_id", requestID),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.String("category", string(event.Category)),
		zap.String("workspace_id", event.WorkspaceID))

	_ = utils.WriteCreated(w, r, event)
}

// HandleListAuditEvents handles GET /v1/audit
func (h *AuditHandler) HandleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)
	q := r.URL.Query()

	filter := store.AuditFilter{
		WorkspaceID:  q.Get("workspace_id"),
		EventType:    q.Get("event_type"),
		Category:     q.Get("category"),
		Severity:     q.Get("severity"),
		ActorID:      q.Get("actor_id"),
		ActorType:    q.Get("actor_type"),
		ResourceID:   q.Get("resource_id"),
		ResourceType: q.Get("resource_type"),
		Outcome:      q.Get("outcome"),
	}

	var fieldErrs []utils.FieldError
	if filter.Category != "" && !models.AuditCategory(filter.Category).Valid() {
		fieldErrs = append(fieldErrs, utils.InvalidValueFieldError("category",
			[]string{"security", "compliance", "operational", "access", "data"}))
	}
	if filter.Severity != "" && !models.AuditSeverity(filter.Severity).Valid() {
		fieldErrs = append(fieldErrs, utils.InvalidValueFieldError("severity",
			[]string{"info", "warning", "error", "critical"}))
	}
	if filter.ActorType != "" && !models.ActorType(filter.ActorType).Valid() {
		fieldErrs = append(fieldErrs, utils.InvalidValueFieldError("actor_type",
			[]string{"user", "system", "agent", "service"}))
	}
	if filter.Outcome != "" && !models.AuditOutcome(filter.Outcome).Valid() {
		fieldErrs = append(fieldErrs, utils.InvalidValueFieldError("outcome",
			[]string{"success", "failure", "pending"}))
	}

	startTime, err := parseTimeParam(q.Get("start_time"))
	if err != nil {
		fieldErrs = append(fieldErrs, utils.FieldError{
			Field:   "start_time",
			Code:    "invalid_value",
			Message: "start_time must be an RFC 3339 timestamp",
		})
	}
	endTime, err := parseTimeParam(q.Get("end_time"))
	if err != nil {
		fieldErrs = append(fieldErrs, utils.FieldError{
			Field:   "end_time",
			Code:    "invalid_value",
			Message: "end_time must be an RFC 3339 timestamp",
		})
	}
	if len(fieldErrs) > 0 {
		_ = utils.WriteFieldErrors(w, r, fieldErrs)
		return
	}
	filter.StartTime = startTime
	filter.EndTime = endTime

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	events, info, err := h.store.ListAuditEvents(ctx, filter, page)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Audit event not found",
			zap.String("request_id", requestID),
			zap.String("operation", "list_audit_events"))
		return
	}

	if events == nil {
		events = []*models.AuditEvent{}
	}
	_ = utils.WriteOK(w, r, AuditListResponse{Events: events, PageInfo: info})
}

// HandleGetAuditEvent handles GET /v1/audit/{id}
func (h *AuditHandler) HandleGetAuditEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{utils.RequiredFieldError("id")})
		return
	}

	event, err := h.store.GetAuditEvent(ctx, id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Audit event not found",
			zap.String("request_id", requestID),
			zap.String("event_id", id),
			zap.String("operation", "get_audit_event"))
		return
	}

	_ = utils.WriteOK(w, r, event)
}

// parseTimeParam parses an optional RFC 3339 query parameter. A blank
// value means the bound is not set.
func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	return &utc, nil
}
