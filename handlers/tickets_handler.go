package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/pagination"
	"github.com/agentfleet/control-plane/store"
	"github.com/agentfleet/control-plane/utils"
)

// CreateTicketRequest represents a request to create a ticket.
// created_by is required even though it duplicates the authenticated
// actor: audit attribution is decoupled from transport identity.
type CreateTicketRequest struct {
	WorkspaceID string            `json:"workspace_id" validate:"required"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Priority    string            `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Labels      []string          `json:"labels"`
	AssignedTo  string            `json:"assigned_to"`
	CreatedBy   string            `json:"created_by" validate:"required"`
	Metadata    map[string]string `json:"metadata"`
}

// UpdateTicketRequest represents a partial ticket update. Only fields
// present in the body are applied; assigned_to set to the empty string
// clears the assignment, which is distinct from omitting the field.
type UpdateTicketRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *string            `json:"status,omitempty" validate:"omitempty,oneof=open in_progress pending resolved closed"`
	Priority    *string            `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Labels      *[]string          `json:"labels,omitempty"`
	AssignedTo  *string            `json:"assigned_to,omitempty"`
	Metadata    *map[string]string `json:"metadata,omitempty"`
}

// TicketListResponse is the data payload for ticket list calls
type TicketListResponse struct {
	Tickets  []*models.Ticket    `json:"tickets"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// TicketHandler handles ticket-related HTTP requests
type TicketHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(st store.Store, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		store:  st,
		logger: logger,
	}
}

// HandleCreateTicket handles POST /v1/tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	var req CreateTicketRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteValidationError(w, r, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeValidationFailure(w, r, err)
		return
	}

	ticket := models.NewTicket(req.WorkspaceID, req.Title, req.CreatedBy)
	ticket.Description = req.Description
	ticket.Labels = req.Labels
	ticket.AssignedTo = req.AssignedTo
	ticket.Metadata = req.Metadata
	if req.Priority != "" {
		ticket.Priority = models.TicketPriority(req.Priority)
	}

	if err := h.store.CreateTicket(ctx, ticket); err != nil {
		h.logger.Error("failed to create ticket",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalError(w, r)
		return
	}

	h.logger.Info("ticket created",
		zap.String("request_id", requestID),
		zap.String("ticket_id", ticket.ID),
		zap.String("workspace_id", ticket.WorkspaceID))

	_ = utils.WriteCreated(w, r, ticket)
}

// HandleListTickets handles GET /v1/tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)
	q := r.URL.Query()

	filter := store.TicketFilter{
		WorkspaceID: q.Get("workspace_id"),
		Status:      q.Get("status"),
		Priority:    q.Get("priority"),
		AssignedTo:  q.Get("assigned_to"),
		CreatedBy:   q.Get("created_by"),
		Labels:      splitLabelParam(q.Get("labels")),
	}

	if filter.Status != "" && !models.TicketStatus(filter.Status).Valid() {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{
			utils.InvalidValueFieldError("status", []string{"open", "in_progress", "pending", "resolved", "closed"}),
		})
		return
	}
	if filter.Priority != "" && !models.TicketPriority(filter.Priority).Valid() {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{
			utils.InvalidValueFieldError("priority", []string{"low", "medium", "high", "critical"}),
		})
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	tickets, info, err := h.store.ListTickets(ctx, filter, page)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Ticket not found",
			zap.String("request_id", requestID),
			zap.String("operation", "list_tickets"))
		return
	}

	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	_ = utils.WriteOK(w, r, TicketListResponse{Tickets: tickets, PageInfo: info})
}

// HandleGetTicket handles GET /v1/tickets/{id}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{utils.RequiredFieldError("id")})
		return
	}

	ticket, err := h.store.GetTicket(ctx, id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Ticket not found",
			zap.String("request_id", requestID),
			zap.String("ticket_id", id),
			zap.String("operation", "get_ticket"))
		return
	}

	_ = utils.WriteOK(w, r, ticket)
}

// HandleUpdateTicket handles PATCH /v1/tickets/{id}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		_ = utils.WriteFieldErrors(w, r, []utils.FieldError{utils.RequiredFieldError("id")})
		return
	}

	var req UpdateTicketRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteValidationError(w, r, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeValidationFailure(w, r, err)
		return
	}

	// Fetch-then-persist. A concurrent update between the fetch and the
	// persist can lose a writer's change; this is a documented
	// limitation, not a guarantee.
	ticket, err := h.store.GetTicket(ctx, id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Ticket not found",
			zap.String("request_id", requestID),
			zap.String("ticket_id", id),
			zap.String("operation", "update_ticket"))
		return
	}

	if req.Title != nil {
		ticket.Title = *req.Title
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.Status != nil {
		ticket.Status = models.TicketStatus(*req.Status)
	}
	if req.Priority != nil {
		ticket.Priority = models.TicketPriority(*req.Priority)
	}
	if req.Labels != nil {
		ticket.Labels = *req.Labels
	}
	if req.AssignedTo != nil {
		ticket.AssignedTo = *req.AssignedTo
	}
	if req.Metadata != nil {
		ticket.Metadata = *req.Metadata
	}
	ticket.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateTicket(ctx, ticket); err != nil {
		writeStoreError(w, r, h.logger, err, "Ticket not found",
			zap.String("request_id", requestID),
			zap.String("ticket_id", id),
			zap.String("operation", "update_ticket"))
		return
	}

	h.logger.Info("ticket updated",
		zap.String("request_id", requestID),
		zap.String("ticket_id", id))

	_ = utils.WriteOK(w, r, ticket)
}

// HandleCreateTicketJob handles POST /v1/tickets/{id}/jobs. The
// sub-resource is part of the route surface but the capability is
// intentionally unavailable in this revision.
func (h *TicketHandler) HandleCreateTicketJob(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotImplemented(w, r, "Job creation under a ticket is not yet available")
}

// writeValidationFailure renders a utils.ValidationError as field
// errors, or a generic validation error otherwise
func writeValidationFailure(w http.ResponseWriter, r *http.Request, err error) {
	if fields := utils.GetValidationFields(err); fields != nil {
		_ = utils.WriteFieldErrors(w, r, fields)
		return
	}
	_ = utils.WriteValidationError(w, r, err.Error(), nil)
}

// splitLabelParam splits a comma-separated label list, trimming
// whitespace and dropping empty segments
func splitLabelParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var labels []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
