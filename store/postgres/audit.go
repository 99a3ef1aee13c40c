package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/pagination"
	"github.com/agentfleet/control-plane/store"
)

const auditColumns = `id, event_type, category, severity, actor_id, actor_type,
	action, resource_id, resource_type, workspace_id, outcome, context, details,
	timestamp, received_at`

// CreateAuditEvent appends an audit event. There is deliberately no
// update or delete counterpart: the audit log is append-only.
func (s *Store) CreateAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	eventContext, err := encodeJSONMap(event.Context)
	if err != nil {
		return fmt.Errorf("failed to encode audit context: %w", err)
	}
	details, err := encodeJSONMap(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_events (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Category,
		event.Severity,
		event.ActorID,
		event.ActorType,
		event.Action,
		event.ResourceID,
		event.ResourceType,
		event.WorkspaceID,
		event.Outcome,
		eventContext,
		details,
		event.Timestamp,
		event.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	s.logger.Debug("audit event inserted",
		zap.String("id", event.ID),
		zap.String("event_type", event.EventType))
	return nil
}

// GetAuditEvent retrieves an audit event by id
func (s *Store) GetAuditEvent(ctx context.Context, id string) (*models.AuditEvent, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_events WHERE id = $1`
	event, err := scanAuditEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: audit event %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// ListAuditEvents retrieves audit events matching the filter, newest
// event time first
func (s *Store) ListAuditEvents(ctx context.Context, filter store.AuditFilter, page pagination.Page) ([]*models.AuditEvent, pagination.PageInfo, error) {
	offset, err := store.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	b := &whereBuilder{}
	if filter.WorkspaceID != "" {
		b.add("workspace_id = $%d", filter.WorkspaceID)
	}
	if filter.EventType != "" {
		b.add("event_type = $%d", filter.EventType)
	}
	if filter.Category != "" {
		b.add("category = $%d", filter.Category)
	}
	if filter.Severity != "" {
		b.add("severity = $%d", filter.Severity)
	}
	if filter.ActorID != "" {
		b.add("actor_id = $%d", filter.ActorID)
	}
	if filter.ActorType != "" {
		b.add("actor_type = $%d", filter.ActorType)
	}
	if filter.ResourceID != "" {
		b.add("resource_id = $%d", filter.ResourceID)
	}
	if filter.ResourceType != "" {
		b.add("resource_type = $%d", filter.ResourceType)
	}
	if filter.Outcome != "" {
		b.add("outcome = $%d", filter.Outcome)
	}
	if filter.StartTime != nil {
		b.add("timestamp >= $%d", *filter.StartTime)
	}
	if filter.EndTime != nil {
		b.add("timestamp <= $%d", *filter.EndTime)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM audit_events` + b.clause()
	if err := s.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to count audit events: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+auditColumns+` FROM audit_events%s ORDER BY timestamp DESC, id DESC LIMIT $%d OFFSET $%d`,
		b.clause(), b.next(), b.next()+1)
	args := append(b.args, page.Limit+1, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event, err := scanAuditEvent(rows)
		if err != nil {
			return nil, pagination.PageInfo{}, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("error iterating audit event rows: %w", err)
	}

	info := pagination.PageInfo{TotalCount: total}
	if len(events) > page.Limit {
		events = events[:page.Limit]
		info.HasNextPage = true
		info.EndCursor = store.EncodeCursor(offset + page.Limit)
	}
	return events, info, nil
}

func scanAuditEvent(row rowScanner) (*models.AuditEvent, error) {
	event := &models.AuditEvent{}
	var eventContext, details []byte

	err := row.Scan(
		&event.ID,
		&event.EventType,
		&event.Category,
		&event.Severity,
		&event.ActorID,
		&event.ActorType,
		&event.Action,
		&event.ResourceID,
		&event.ResourceType,
		&event.WorkspaceID,
		&event.Outcome,
		&eventContext,
		&details,
		&event.Timestamp,
		&event.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(eventContext) > 0 {
		if err := json.Unmarshal(eventContext, &event.Context); err != nil {
			return nil, fmt.Errorf("failed to decode audit context: %w", err)
		}
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &event.Details); err != nil {
			return nil, fmt.Errorf("failed to decode audit details: %w", err)
		}
	}
	return event, nil
}
