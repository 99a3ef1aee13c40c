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

const jobColumns = `id, ticket_id, status, execution_node, context, result, created_at`

// CreateJob persists a new job
func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	jobContext, err := encodeJSONMap(job.Context)
	if err != nil {
		return fmt.Errorf("failed to encode job context: %w", err)
	}
	result, err := encodeJSONMap(job.Result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.TicketID,
		job.Status,
		job.ExecutionNode,
		jobContext,
		result,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	s.logger.Debug("job inserted", zap.String("id", job.ID), zap.String("ticket_id", job.TicketID))
	return nil
}

// GetJob retrieves a job by id
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: job %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// UpdateJob persists the full job row
func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	jobContext, err := encodeJSONMap(job.Context)
	if err != nil {
		return fmt.Errorf("failed to encode job context: %w", err)
	}
	jobResult, err := encodeJSONMap(job.Result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $2, execution_node = $3, context = $4, result = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Status,
		job.ExecutionNode,
		jobContext,
		jobResult,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return requireRowAffected(result, "job", job.ID)
}

// ListJobs retrieves jobs matching the filter, newest first
func (s *Store) ListJobs(ctx context.Context, filter store.JobFilter, page pagination.Page) ([]*models.Job, pagination.PageInfo, error) {
	offset, err := store.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	b := &whereBuilder{}
	if filter.TicketID != "" {
		b.add("ticket_id = $%d", filter.TicketID)
	}
	if filter.Status != "" {
		b.add("status = $%d", filter.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM jobs` + b.clause()
	if err := s.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to count jobs: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+jobColumns+` FROM jobs%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		b.clause(), b.next(), b.next()+1)
	args := append(b.args, page.Limit+1, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, pagination.PageInfo{}, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, pagination.PageInfo{}, fmt.Errorf("error iterating job rows: %w", err)
	}

	info := pagination.PageInfo{TotalCount: total}
	if len(jobs) > page.Limit {
		jobs = jobs[:page.Limit]
		info.HasNextPage = true
		info.EndCursor = store.EncodeCursor(offset + page.Limit)
	}
	return jobs, info, nil
}

func scanJob(row rowScanner) (*models.Job, error) {
	job := &models.Job{}
	var jobContext, jobResult []byte

	err := row.Scan(
		&job.ID,
		&job.TicketID,
		&job.Status,
		&job.ExecutionNode,
		&jobContext,
		&jobResult,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(jobContext) > 0 {
		if err := json.Unmarshal(jobContext, &job.Context); err != nil {
			return nil, fmt.Errorf("failed to decode job context: %w", err)
		}
	}
	if len(jobResult) > 0 {
		if err := json.Unmarshal(jobResult, &job.Result); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
	}
	return job, nil
}
