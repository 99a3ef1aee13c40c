package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the execution state of a job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Valid reports whether the status is one of the enumerated values
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Job represents an execution instance spawned under a ticket. The
// ticket_id reference is a plain string and is not enforced as a
// foreign key.
type Job struct {
	ID            string                 `json:"id" db:"id"`
	TicketID      string                 `json:"ticket_id" db:"ticket_id"`
	Status        JobStatus              `json:"status" db:"status"`
	ExecutionNode string                 `json:"execution_node,omitempty" db:"execution_node"`
	Context       map[string]interface{} `json:"context,omitempty" db:"context"`
	Result        map[string]interface{} `json:"result,omitempty" db:"result"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Job model
func (Job) TableName() string {
	return "jobs"
}

// NewJob creates a new queued Job under the given ticket
func NewJob(ticketID string) *Job {
	return &Job{
		ID:        "job_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		TicketID:  ticketID,
		Status:    JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}
