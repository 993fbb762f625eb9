package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/optinet/optinet/pkg/model"
)

// MySQLJobRepository implements JobRepository directly against
// database/sql, bypassing GORM for the hot read/write paths.
type MySQLJobRepository struct {
	db *sql.DB
}

// NewMySQLJobRepository creates a new MySQLJobRepository.
func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{db: db}
}

const mysqlJobColumns = `id, uuid, program, status, COALESCE(status_info, ''), gas_limit, gas_used,
	COALESCE(normal_form, ''), COALESCE(error_msg, ''), priority, create_time, begin_time, end_time`

func scanJob(row interface{ Scan(...interface{}) error }) (*model.Job, error) {
	job := &model.Job{}
	var beginTime, endTime sql.NullTime

	err := row.Scan(
		&job.ID, &job.JobUUID, &job.Program, &job.Status, &job.StatusInfo,
		&job.GasLimit, &job.GasUsed, &job.NormalForm, &job.ErrorMsg, &job.Priority,
		&job.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		return nil, err
	}

	if beginTime.Valid {
		job.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		job.EndTime = &endTime.Time
	}

	return job, nil
}

// SaveJob persists a newly submitted job.
func (r *MySQLJobRepository) SaveJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO reduction_job (uuid, program, status, status_info, gas_limit, gas_used, priority, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		job.JobUUID, job.Program, job.Status, job.StatusInfo, job.GasLimit, job.GasUsed, job.Priority, job.CreateTime,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		job.ID = id
	}

	return nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *MySQLJobRepository) GetJobByUUID(ctx context.Context, jobUUID string) (*model.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM reduction_job WHERE uuid = ?`, mysqlJobColumns)

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
func (r *MySQLJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reduction_job
		WHERE status = ?
		ORDER BY priority DESC, id ASC
		LIMIT ?
	`, mysqlJobColumns)

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
func (r *MySQLJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus, info string) error {
	query := `UPDATE reduction_job SET status = ?, status_info = ? WHERE uuid = ?`
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
func (r *MySQLJobRepository) CompleteJob(ctx context.Context, jobUUID string, status model.JobStatus, gasUsed uint64, normalForm, errorMsg string) error {
	query := `
		UPDATE reduction_job
		SET status = ?, gas_used = ?, normal_form = ?, error_msg = ?, end_time = ?
		WHERE uuid = ?
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

// LockJobForExecution attempts to transition a job from Pending to Running.
func (r *MySQLJobRepository) LockJobForExecution(ctx context.Context, jobUUID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status model.JobStatus
	query := `SELECT status FROM reduction_job WHERE uuid = ? AND status = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, jobUUID, model.JobStatusPending).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows || strings.Contains(err.Error(), "lock wait timeout") {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock job: %w", err)
	}

	updateQuery := `UPDATE reduction_job SET status = ?, begin_time = ? WHERE uuid = ?`
	_, err = tx.ExecContext(ctx, updateQuery, model.JobStatusRunning, time.Now(), jobUUID)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}
