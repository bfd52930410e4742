package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/lmartins/obsidian-sync/shared/postgresql"
)

const jobColumns = `
	id, job_id, user_id, original_text, category, priority, tags,
	processed_markdown, ai_response, extracted_metadata, word_count, char_count,
	status, error_message, retry_count, vault_file_path,
	ai_model_used, processing_time_seconds,
	created_at, processed_at, synced_at, updated_at
`

// PostgresJobStore implements JobStore on top of PostgreSQL
type PostgresJobStore struct {
	db *sqlx.DB
}

// NewPostgresJobStore creates a job store backed by the given client
func NewPostgresJobStore(pg *postgresql.Client) *PostgresJobStore {
	return &PostgresJobStore{db: pg.GetDB()}
}

func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO processing_jobs (
			job_id, user_id, original_text, category, priority, tags,
			status, retry_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		job.JobID,
		job.UserID,
		job.OriginalText,
		job.Category,
		job.Priority,
		job.Tags,
		job.Status,
		job.RetryCount,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *PostgresJobStore) Get(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM processing_jobs
		WHERE job_id = $1 AND user_id = $2
	`

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, jobID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

func (s *PostgresJobStore) List(ctx context.Context, userID string, filter JobFilter) ([]domain.Job, int, error) {
	where := " WHERE user_id = $1"
	args := []interface{}{userID}
	argIdx := 2

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM processing_jobs" + where
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	query := "SELECT " + jobColumns + " FROM processing_jobs" + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, total, nil
}

func (s *PostgresJobStore) Update(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE processing_jobs
		SET status = $1,
			processed_markdown = $2,
			ai_response = $3,
			extracted_metadata = $4,
			word_count = $5,
			char_count = $6,
			error_message = $7,
			retry_count = $8,
			vault_file_path = $9,
			ai_model_used = $10,
			processing_time_seconds = $11,
			processed_at = $12,
			synced_at = $13,
			updated_at = $14
		WHERE job_id = $15 AND user_id = $16
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		job.Status,
		job.ProcessedMarkdown,
		job.AIResponse,
		job.ExtractedMetadata,
		job.WordCount,
		job.CharCount,
		job.ErrorMessage,
		job.RetryCount,
		job.VaultFilePath,
		job.AIModelUsed,
		job.ProcessingTimeSeconds,
		job.ProcessedAt,
		job.SyncedAt,
		job.UpdatedAt,
		job.JobID,
		job.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}
