package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditCategory classifies the domain of an audited event
type AuditCategory string

const (
	AuditCategorySecurity    AuditCategory = "security"
	AuditCategoryCompliance  AuditCategory = "compliance"
	AuditCategoryOperational AuditCategory = "operational"
	AuditCategoryAccess      AuditCategory = "access"
	AuditCategoryData        AuditCategory = "data"
)

// Valid reports whether the category is one of the enumerated values
func (c AuditCategory) Valid() bool {
	switch c {
	case AuditCategorySecurity, AuditCategoryCompliance, AuditCategoryOperational,
		AuditCategoryAccess, AuditCategoryData:
		return true
	}
	return false
}

// AuditSeverity classifies the importance of an audited event
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityError    AuditSeverity = "error"
	AuditSeverityCritical AuditSeverity = "critical"
)

// Valid reports whether the severity is one of the enumerated values
func (s AuditSeverity) Valid() bool {
	switch s {
	case AuditSeverityInfo, AuditSeverityWarning, AuditSeverityError, AuditSeverityCritical:
		return true
	}
	return false
}

// ActorType classifies who or what performed an audited action
type ActorType string

const (
	ActorTypeUser    ActorType = "user"
	ActorTypeSystem  ActorType = "system"
	ActorTypeAgent   ActorType = "agent"
	ActorTypeService ActorType = "service"
)

// Valid reports whether the actor type is one of the enumerated values
func (a ActorType) Valid() bool {
	switch a {
	case ActorTypeUser, ActorTypeSystem, ActorTypeAgent, ActorTypeService:
		return true
	}
	return false
}

// AuditOutcome classifies the result of an audited action
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
	AuditOutcomePending AuditOutcome = "pending"
)

// Valid reports whether the outcome is one of the enumerated values
func (o AuditOutcome) Valid() bool {
	switch o {
	case AuditOutcomeSuccess, AuditOutcomeFailure, AuditOutcomePending:
		return true
	}
	return false
}

// AuditEvent is an immutable observation of a security, operational, or
// compliance-relevant event. Resource references are raw string IDs
// with no enforced foreign key: an audit write must succeed even if the
// referenced entity is gone.
//
// Timestamp is the event time and may be supplied by the caller for
// backfilled ingestion; ReceivedAt is the ingestion clock of record and
// is always server-set.
type AuditEvent struct {
	ID           string                 `json:"id" db:"id"`
	EventType    string                 `json:"event_type" db:"event_type"`
	Category     AuditCategory          `json:"category" db:"category"`
	Severity     AuditSeverity          `json:"severity" db:"severity"`
	ActorID      string                 `json:"actor_id" db:"actor_id"`
	ActorType    ActorType              `json:"actor_type" db:"actor_type"`
	Action       string                 `json:"action" db:"action"`
	ResourceID   string                 `json:"resource_id" db:"resource_id"`
	ResourceType string                 `json:"resource_type" db:"resource_type"`
	WorkspaceID  string                 `json:"workspace_id" db:"workspace_id"`
	Outcome      AuditOutcome           `json:"outcome" db:"outcome"`
	Context      map[string]interface{} `json:"context,omitempty" db:"context"`
	Details      map[string]interface{} `json:"details,omitempty" db:"details"`
	Timestamp    time.Time              `json:"timestamp" db:"timestamp"`
	ReceivedAt   time.Time              `json:"received_at" db:"received_at"`
}

// TableName returns the table name for the AuditEvent model
func (AuditEvent) TableName() string {
	return "audit_events"
}

// NewAuditEventID generates a fresh audit event identifier
func NewAuditEventID() string {
	return "aud_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
