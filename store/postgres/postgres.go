// Package postgres implements the store.Store contract on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/config"
)

// Store implements store.Store on a PostgreSQL connection pool
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New creates a Store backed by a new connection pool
func New(cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &Store{db: db, logger: logger}, nil
}

// NewWithDB creates a Store on an existing connection pool. Used by tests.
func NewWithDB(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.logger.Info("closing database connection")
	return s.db.Close()
}

// InitSchema creates the control-plane tables and indexes
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			labels TEXT NOT NULL DEFAULT '',
			assigned_to TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			metadata JSONB
		);

		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			ticket_id TEXT NOT NULL,
			status TEXT NOT NULL,
			execution_node TEXT NOT NULL DEFAULT '',
			context JSONB,
			result JSONB,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS approvals (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			tool_call_id TEXT NOT NULL,
			tool TEXT NOT NULL,
			resource TEXT NOT NULL,
			status TEXT NOT NULL,
			requested_by TEXT NOT NULL,
			requested_at TIMESTAMPTZ NOT NULL,
			decided_by TEXT,
			decided_at TIMESTAMPTZ,
			comment TEXT
		);

		CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			category TEXT NOT NULL,
			severity TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			actor_type TEXT NOT NULL,
			action TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			resource_type TEXT NOT NULL,
			workspace_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			context JSONB,
			details JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			received_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_workspace_id ON tickets(workspace_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
		CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at);

		CREATE INDEX IF NOT EXISTS idx_jobs_ticket_id ON jobs(ticket_id);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

		CREATE INDEX IF NOT EXISTS idx_approvals_job_id ON approvals(job_id);
		CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status);

		CREATE INDEX IF NOT EXISTS idx_audit_events_workspace_id ON audit_events(workspace_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_category ON audit_events(category);
		CREATE INDEX IF NOT EXISTS idx_audit_events_actor_id ON audit_events(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info("database schema initialized")
	return nil
}

// whereBuilder accumulates positional WHERE clauses
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// add appends a clause. expr must contain a single %d placeholder for
// the positional parameter index, e.g. "status = $%d".
func (b *whereBuilder) add(expr string, val interface{}) {
	b.args = append(b.args, val)
	b.clauses = append(b.clauses, fmt.Sprintf(expr, len(b.args)))
}

// clause renders the WHERE clause, or an empty string with no filters
func (b *whereBuilder) clause() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// next returns the next positional parameter index
func (b *whereBuilder) next() int {
	return len(b.args) + 1
}

// joinLabels flattens a label set into its stored comma-joined form
func joinLabels(labels []string) string {
	return strings.Join(labels, ",")
}

// splitLabels restores a label set from its stored form
func splitLabels(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
