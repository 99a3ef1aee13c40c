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

const ticketColumns = `id, workspace_id, title, description, status, priority,
	labels, assigned_to, created_by, created_at, updated_at, metadata`

// CreateTicket persists a new ticket
func (s *Store) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	metadata, err := encodeJSONMap(ticket.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode ticket metadata: %w", err)
	}

	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.WorkspaceID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		joinLabels(ticket.Labels),
		ticket.AssignedTo,
		ticket.CreatedBy,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	s.logger.Debug("ticket inserted", zap.String("id", ticket.ID))
	return nil
}

// GetTicket retrieves a ticket by id
func (s *Store) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	ticket, err := scanTicket(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ticket %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

// UpdateTicket persists the full ticket row
func (s *Store) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	metadata, err := encodeJSONMap(ticket.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode ticket metadata: %w", err)
	}

	query := `
		UPDATE tickets
		SET title = $2, description = $3, status = $4, priority = $5,
		    labels = $6, assigned_to = $7, updated_at = $8, metadata = $9
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		joinLabels(ticket.Labels),
		ticket.AssignedTo,
		ticket.UpdatedAt,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return requireRowAffected(result, "ticket", ticket.ID)
}

// DeleteTicket removes a ticket row. No route exposes this; it exists
// on the contract for operational use.
func (s *Store) DeleteTicket(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return requireRowAffected(result, "ticket", id)
}

// ListTickets retrieves tickets matching the filter, newest first
func (s *Store) ListTickets(ctx context.Context, filter store.TicketFilter, page pagination.Page) ([]*models.Ticket, pagination.PageInfo, error) {
	offset, err := store.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	b := &whereBuilder{}
	if filter.WorkspaceID != "" {
		b.add("workspace_id = $%d", filter.WorkspaceID)
	}
	if filter.Status != "" {
		b.add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		b.add("priority = $%d", filter.Priority)
	}
	if filter.AssignedTo != "" {
		b.add("assigned_to = $%d", filter.AssignedTo)
	}
	if filter.CreatedBy != "" {
		b.add("created_by = $%d", filter.CreatedBy)
	}
	for _, label := range filter.Labels {
		b.add("(',' || labels || ',') LIKE ('%%,' || $%d || ',%%')", label)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM tickets` + b.clause()
	if err := s.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to count tickets: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+ticketColumns+` FROM tickets%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		b.clause(), b.next(), b.next()+1)
	args := append(b.args, page.Limit+1, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, pagination.PageInfo{}, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("error iterating ticket rows: %w", err)
	}

	info := pagination.PageInfo{TotalCount: total}
	if len(tickets) > page.Limit {
		tickets = tickets[:page.Limit]
		info.HasNextPage = true
		info.EndCursor = store.EncodeCursor(offset + page.Limit)
	}
	return tickets, info, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	var labels string
	var metadata []byte

	err := row.Scan(
		&ticket.ID,
		&ticket.WorkspaceID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&labels,
		&ticket.AssignedTo,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	ticket.Labels = splitLabels(labels)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &ticket.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode ticket metadata: %w", err)
		}
	}
	return ticket, nil
}

// encodeJSONMap marshals a map for a JSONB column, NULL when empty
func encodeJSONMap(m interface{}) (interface{}, error) {
	switch v := m.(type) {
	case map[string]string:
		if len(v) == 0 {
			return nil, nil
		}
	case map[string]interface{}:
		if len(v) == 0 {
			return nil, nil
		}
	case nil:
		return nil, nil
	}
	return json.Marshal(m)
}

// requireRowAffected converts a zero-row mutation into ErrNotFound
func requireRowAffected(result sql.Result, kind, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, kind, id)
	}
	return nil
}
