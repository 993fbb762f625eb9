// Package repository provides database abstraction for the reduction service.
package repository

import (
	"context"

	"github.com/optinet/optinet/pkg/model"
)

// JobRepository defines the interface for job bookkeeping: the program
// text in, the normal form (or error) out, and the status/gas tracking
// in between. The core graph runtime itself never touches this
// interface — it is pure bookkeeping around an in-memory reduction.
type JobRepository interface {
	// SaveJob persists a newly submitted job.
	SaveJob(ctx context.Context, job *model.Job) error

	// GetJobByUUID retrieves a job by its UUID.
	GetJobByUUID(ctx context.Context, jobUUID string) (*model.Job, error)

	// GetPendingJobs retrieves up to limit jobs still in JobStatusPending,
	// ordered by priority then submission time.
	GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error)

	// UpdateJobStatus updates a job's status and status info string.
	UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus, info string) error

	// CompleteJob records a finished reduction's outcome: final status,
	// gas used, and either the rendered normal form or an error message.
	CompleteJob(ctx context.Context, jobUUID string, status model.JobStatus, gasUsed uint64, normalForm, errorMsg string) error

	// LockJobForExecution attempts to transition a job from Pending to
	// Running, returning false if another worker already claimed it.
	LockJobForExecution(ctx context.Context, jobUUID string) (bool, error)
}
