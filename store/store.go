// Package store defines the persistence contract the control plane
// depends on. All durable state lives behind this interface; handlers
// never cache between requests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/pagination"
)

var (
	// ErrNotFound is returned when the requested entity does not exist
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidCursor is returned when a pagination cursor cannot be
	// decoded or no longer references a valid position
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// TicketFilter narrows a ticket list. Zero-value fields are ignored;
// Labels requires every listed label to be present.
type TicketFilter struct {
	WorkspaceID string
	Status      string
	Priority    string
	AssignedTo  string
	CreatedBy   string
	Labels      []string
}

// JobFilter narrows a job list
type JobFilter struct {
	TicketID string
	Status   string
}

// ApprovalFilter narrows an approval list
type ApprovalFilter struct {
	JobID       string
	RequestedBy string
	Tool        string
	Status      string
}

// AuditFilter narrows an audit event list. StartTime/EndTime bound the
// event timestamp, not the ingestion time.
type AuditFilter struct {
	WorkspaceID  string
	EventType    string
	Category     string
	Severity     string
	ActorID      string
	ActorType    string
	ResourceID   string
	ResourceType string
	Outcome      string
	StartTime    *time.Time
	EndTime      *time.Time
}

// Store is the durable persistence collaborator. Implementations must
// be safe for concurrent use and must return ErrNotFound and
// ErrInvalidCursor (possibly wrapped) for the corresponding conditions;
// any other error is treated as an infrastructure fault.
type Store interface {
	Ping(ctx context.Context) error

	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, ticket *models.Ticket) error
	DeleteTicket(ctx context.Context, id string) error
	ListTickets(ctx context.Context, filter TicketFilter, page pagination.Page) ([]*models.Ticket, pagination.PageInfo, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	ListJobs(ctx context.Context, filter JobFilter, page pagination.Page) ([]*models.Job, pagination.PageInfo, error)

	CreateApproval(ctx context.Context, approval *models.Approval) error
	GetApproval(ctx context.Context, id string) (*models.Approval, error)
	UpdateApproval(ctx context.Context, approval *models.Approval) error
	ListApprovals(ctx context.Context, filter ApprovalFilter, page pagination.Page) ([]*models.Approval, pagination.PageInfo, error)

	CreateAuditEvent(ctx context.Context, event *models.AuditEvent) error
	GetAuditEvent(ctx context.Context, id string) (*models.AuditEvent, error)
	ListAuditEvents(ctx context.Context, filter AuditFilter, page pagination.Page) ([]*models.AuditEvent, pagination.PageInfo, error)
}
