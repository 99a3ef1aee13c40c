package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is one of the enumerated values
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPending,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority represents the urgency of a ticket
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether the priority is one of the enumerated values
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket represents a unit of requested work within a workspace
type Ticket struct {
	ID          string            `json:"id" db:"id"`
	WorkspaceID string            `json:"workspace_id" db:"workspace_id"`
	Title       string            `json:"title" db:"title"`
	Description string            `json:"description" db:"description"`
	Status      TicketStatus      `json:"status" db:"status"`
	Priority    TicketPriority    `json:"priority" db:"priority"`
	Labels      []string          `json:"labels" db:"labels"`
	AssignedTo  string            `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedBy   string            `json:"created_by" db:"created_by"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
	Metadata    map[string]string `json:"metadata,omitempty" db:"metadata"`
}

// TableName returns the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}

// NewTicket creates a new Ticket. Status is always open at creation and
// priority defaults to medium.
func NewTicket(workspaceID, title, createdBy string) *Ticket {
	now := time.Now().UTC()
	return &Ticket{
		ID:          "tkt_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		WorkspaceID: workspaceID,
		Title:       title,
		Status:      TicketStatusOpen,
		Priority:    TicketPriorityMedium,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
