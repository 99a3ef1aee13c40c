package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus represents the decision state of an approval. The
// state machine is strictly one-way: pending -> approved or
// pending -> rejected, with no further transitions once decided.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// Valid reports whether the status is one of the enumerated values
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// Approval gates a specific pending agent tool call until a human or
// automated policy decides it.
type Approval struct {
	ID          string         `json:"id" db:"id"`
	JobID       string         `json:"job_id" db:"job_id"`
	ToolCallID  string         `json:"tool_call_id" db:"tool_call_id"`
	Tool        string         `json:"tool" db:"tool"`
	Resource    string         `json:"resource" db:"resource"`
	Status      ApprovalStatus `json:"status" db:"status"`
	RequestedBy string         `json:"requested_by" db:"requested_by"`
	RequestedAt time.Time      `json:"requested_at" db:"requested_at"`
	DecidedBy   *string        `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty" db:"decided_at"`
	Comment     *string        `json:"comment,omitempty" db:"comment"`
}

// TableName returns the table name for the Approval model
func (Approval) TableName() string {
	return "approvals"
}

// NewApproval creates a pending Approval for a specific tool call
func NewApproval(jobID, toolCallID, tool, resource, requestedBy string) *Approval {
	return &Approval{
		ID:          "apr_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		JobID:       jobID,
		ToolCallID:  toolCallID,
		Tool:        tool,
		Resource:    resource,
		Status:      ApprovalStatusPending,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}
}
