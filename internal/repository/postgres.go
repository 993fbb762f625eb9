package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/optinet/optinet/pkg/model"
)

// PostgresJobRepository implements JobRepository directly against
// database/sql, bypassing GORM for the hot read/write paths.
type PostgresJobRepository struct {
	db *sql.DB
}

// NewPostgresJobRepository creates a new PostgresJobRepository.
func NewPostgresJobRepository(db *sql.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const postgresJobColumns = `id, uuid, program, status, COALESCE(status_info, ''), gas_limit, gas_used,
	COALESCE(normal_form, ''), COALESCE(error_msg, ''), priority, create_time, begin_time, end_time`

// SaveJob persists a newly submitted job.
func (r *PostgresJobRepository) SaveJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO reduction_job (uuid, program, status, status_info, gas_limit, gas_used, priority, create_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		job.JobUUID, job.Program, job.Status, job.StatusInfo, job.GasLimit, job.GasUsed, job.Priority, job.CreateTime,
	).Scan(&job.ID)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *PostgresJobRepository) GetJobByUUID(ctx context.Context, jobUUID string) (*model.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM reduction_job WHERE uuid = $1`, postgresJobColumns)

	job, err := scanJob(r.db.QueryRowContext(ctx, query, jobUUID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// GetPendingJobs retrieves up to limit jobs still pending.
func (r *PostgresJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reduction_job
		WHERE status = $1
		ORDER BY priority DESC, id ASC
		LIMIT $2
	`, postgresJobColumns)

	rows, err := r.db.QueryContext(ctx, query, model.JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return jobs, nil
}

// UpdateJobStatus updates a job's status and status info string.
func (r *PostgresJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus, info string) error {
	query := `UPDATE reduction_job SET status = $1, status_info = $2 WHERE uuid = $3`
	result, err := r.db.ExecContext(ctx, query, status, info, jobUUID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %s", jobUUID)
	}

	return nil
}

// CompleteJob records a finished reduction's outcome.
func (r *PostgresJobRepository) CompleteJob(ctx context.Context, jobUUID string, status model.JobStatus, gasUsed uint64, normalForm, errorMsg string) error {
	query := `
		UPDATE reduction_job
		SET status = $1, gas_used = $2, normal_form = $3, error_msg = $4, end_time = $5
		WHERE uuid = $6
	`
	result, err := r.db.ExecContext(ctx, query, status, gasUsed, normalForm, errorMsg, time.Now(), jobUUID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %s", jobUUID)
	}

	return nil
}

// LockJobForExecution attempts to transition a job from Pending to
// Running using FOR UPDATE NOWAIT.
func (r *PostgresJobRepository) LockJobForExecution(ctx context.Context, jobUUID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status model.JobStatus
	query := `SELECT status FROM reduction_job WHERE uuid = $1 AND status = $2 FOR UPDATE NOWAIT`
	err = tx.QueryRowContext(ctx, query, jobUUID, model.JobStatusPending).Scan(&status)
	if err != nil {
		return false, nil
	}

	updateQuery := `UPDATE reduction_job SET status = $1, begin_time = $2 WHERE uuid = $3`
	_, err = tx.ExecContext(ctx, updateQuery, model.JobStatusRunning, time.Now(), jobUUID)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}
