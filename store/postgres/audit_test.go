package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/pagination"
	"github.com/agentfleet/control-plane/store"
)

func auditRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "event_type", "category", "severity", "actor_id", "actor_type",
		"action", "resource_id", "resource_type", "workspace_id", "outcome",
		"context", "details", "timestamp", "received_at",
	})
}

func sampleAuditEvent() *models.AuditEvent {
	now := time.Now().UTC()
	return &models.AuditEvent{
		ID:           models.NewAuditEventID(),
		EventType:    "tool.invoked",
		Category:     models.AuditCategorySecurity,
		Severity:     models.AuditSeverityWarning,
		ActorID:      "agent-42",
		ActorType:    models.ActorTypeAgent,
		Action:       "execute",
		ResourceID:   "prod-db",
		ResourceType: "database",
		WorkspaceID:  "ws-1",
		Outcome:      models.AuditOutcomeSuccess,
		Timestamp:    now,
		ReceivedAt:   now,
	}
}

func TestCreateAuditEvent(t *testing.T) {
	s, mock := newMockStore(t)
	event := sampleAuditEvent()

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs(event.ID, "tool.invoked", "security", "warning", "agent-42", "agent",
			"execute", "prod-db", "database", "ws-1", "success",
			nil, nil, event.Timestamp, event.ReceivedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CreateAuditEvent(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuditEvent(t *testing.T) {
	t.Run("scans full row", func(t *testing.T) {
		s, mock := newMockStore(t)
		event := sampleAuditEvent()
		mock.ExpectQuery("FROM audit_events WHERE id").
			WithArgs(event.ID).
			WillReturnRows(auditRows().AddRow(
				event.ID, event.EventType, event.Category, event.Severity,
				event.ActorID, event.ActorType, event.Action, event.ResourceID,
				event.ResourceType, event.WorkspaceID, event.Outcome,
				[]byte(`{"tool":"shell.exec"}`), nil, event.Timestamp, event.ReceivedAt))

		got, err := s.GetAuditEvent(context.Background(), event.ID)
		require.NoError(t, err)
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, models.AuditCategorySecurity, got.Category)
		assert.Equal(t, map[string]interface{}{"tool": "shell.exec"}, got.Context)
		assert.Nil(t, got.Details)
	})

	t.Run("maps no rows to ErrNotFound", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("FROM audit_events WHERE id").
			WithArgs("aud_missing").
			WillReturnRows(auditRows())

		_, err := s.GetAuditEvent(context.Background(), "aud_missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestListAuditEvents(t *testing.T) {
	t.Run("binds every filter including time range", func(t *testing.T) {
		s, mock := newMockStore(t)
		event := sampleAuditEvent()
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_events WHERE workspace_id = \$1 AND category = \$2 AND timestamp >= \$3 AND timestamp <= \$4`).
			WithArgs("ws-1", "security", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`FROM audit_events WHERE workspace_id = \$1 AND category = \$2 AND timestamp >= \$3 AND timestamp <= \$4 ORDER BY timestamp DESC, id DESC LIMIT \$5 OFFSET \$6`).
			WithArgs("ws-1", "security", start, end, 3, 0).
			WillReturnRows(auditRows().AddRow(
				event.ID, event.EventType, event.Category, event.Severity,
				event.ActorID, event.ActorType, event.Action, event.ResourceID,
				event.ResourceType, event.WorkspaceID, event.Outcome,
				nil, nil, event.Timestamp, event.ReceivedAt))

		filter := store.AuditFilter{
			WorkspaceID: "ws-1",
			Category:    "security",
			StartTime:   &start,
			EndTime:     &end,
		}
		events, info, err := s.ListAuditEvents(context.Background(), filter, pagination.Page{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, 1, info.TotalCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pages with end cursor", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_events`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		rows := auditRows()
		for _, id := range []string{"aud_1", "aud_2"} {
			e := sampleAuditEvent()
			rows.AddRow(id, e.EventType, e.Category, e.Severity, e.ActorID, e.ActorType,
				e.Action, e.ResourceID, e.ResourceType, e.WorkspaceID, e.Outcome,
				nil, nil, e.Timestamp, e.ReceivedAt)
		}
		mock.ExpectQuery(`FROM audit_events ORDER BY timestamp DESC, id DESC LIMIT \$1 OFFSET \$2`).
			WithArgs(2, 0).
			WillReturnRows(rows)

		events, info, err := s.ListAuditEvents(context.Background(), store.AuditFilter{}, pagination.Page{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, events, 1)
		assert.True(t, info.HasNextPage)
		assert.Equal(t, "aud_1", events[0].ID)

		offset, err := store.DecodeCursor(info.EndCursor)
		require.NoError(t, err)
		assert.Equal(t, 1, offset)
	})
}
