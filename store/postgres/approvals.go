package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/pagination"
	"github.com/agentfleet/control-plane/store"
)

const approvalColumns = `id, job_id, tool_call_id, tool, resource, status,
	requested_by, requested_at, decided_by, decided_at, comment`

// CreateApproval persists a new approval gate
func (s *Store) CreateApproval(ctx context.Context, approval *models.Approval) error {
	query := `
		INSERT INTO approvals (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		approval.ID,
		approval.JobID,
		approval.ToolCallID,
		approval.Tool,
		approval.Resource,
		approval.Status,
		approval.RequestedBy,
		approval.RequestedAt,
		approval.DecidedBy,
		approval.DecidedAt,
		approval.Comment,
	)
	if err != nil {
		return fmt.Errorf("failed to insert approval: %w", err)
	}

	s.logger.Debug("approval inserted",
		zap.String("id", approval.ID),
		zap.String("job_id", approval.JobID),
		zap.String("tool", approval.Tool))
	return nil
}

// GetApproval retrieves an approval by id
func (s *Store) GetApproval(ctx context.Context, id string) (*models.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = $1`
	approval, err := scanApproval(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: approval %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return approval, nil
}

// UpdateApproval persists the decision fields of an approval
func (s *Store) UpdateApproval(ctx context.Context, approval *models.Approval) error {
	query := `
		UPDATE approvals
		SET status = $2, decided_by = $3, decided_at = $4, comment = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		approval.ID,
		approval.Status,
		approval.DecidedBy,
		approval.DecidedAt,
		approval.Comment,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	return requireRowAffected(result, "approval", approval.ID)
}

// ListApprovals retrieves approvals matching the filter, newest first
func (s *Store) ListApprovals(ctx context.Context, filter store.ApprovalFilter, page pagination.Page) ([]*models.Approval, pagination.PageInfo, error) {
	offset, err := store.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	b := &whereBuilder{}
	if filter.JobID != "" {
		b.add("job_id = $%d", filter.JobID)
	}
	if filter.RequestedBy != "" {
		b.add("requested_by = $%d", filter.RequestedBy)
	}
	if filter.Tool != "" {
		b.add("tool = $%d", filter.Tool)
	}
	if filter.Status != "" {
		b.add("status = $%d", filter.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM approvals` + b.clause()
	if err := s.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to count approvals: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+approvalColumns+` FROM approvals%s ORDER BY requested_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		b.clause(), b.next(), b.next()+1)
	args := append(b.args, page.Limit+1, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*models.Approval
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, pagination.PageInfo{}, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	if err := rows.Err(); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("error iterating approval rows: %w", err)
	}

	info := pagination.PageInfo{TotalCount: total}
	if len(approvals) > page.Limit {
		approvals = approvals[:page.Limit]
		info.HasNextPage = true
		info.EndCursor = store.EncodeCursor(offset + page.Limit)
	}
	return approvals, info, nil
}

func scanApproval(row rowScanner) (*models.Approval, error) {
	approval := &models.Approval{}
	err := row.Scan(
		&approval.ID,
		&approval.JobID,
		&approval.ToolCallID,
		&approval.Tool,
		&approval.Resource,
		&approval.Status,
		&approval.RequestedBy,
		&approval.RequestedAt,
		&approval.DecidedBy,
		&approval.DecidedAt,
		&approval.Comment,
	)
	if err != nil {
		return nil, err
	}
	return approval, nil
}
