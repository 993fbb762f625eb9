package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/optinet/optinet/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements JobRepository using GORM, portable across
// whichever driver (postgres/mysql/sqlite) opened db.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// SaveJob persists a newly submitted job.
func (r *GormJobRepository) SaveJob(ctx context.Context, job *model.Job) error {
	record := FromModel(job)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	job.ID = record.ID
	return nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *GormJobRepository) GetJobByUUID(ctx context.Context, jobUUID string) (*model.Job, error) {
	var record ReductionJob

	err := r.db.WithContext(ctx).Where("uuid = ?", jobUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return record.ToModel(), nil
}

// GetPendingJobs retrieves up to limit jobs still pending, highest
// priority and oldest submission first.
func (r *GormJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	var records []ReductionJob

	err := r.db.WithContext(ctx).
		Where("status = ?", model.JobStatusPending).
		Order("priority DESC, id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}

	jobs := make([]*model.Job, len(records))
	for i, rec := range records {
		jobs[i] = rec.ToModel()
	}

	return jobs, nil
}

// UpdateJobStatus updates a job's status and status info string.
func (r *GormJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&ReductionJob{}).
		Where("uuid = ?", jobUUID).
		Updates(map[string]interface{}{
			"status":      status,
			"status_info": info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %s", jobUUID)
	}

	return nil
}

// CompleteJob records a finished reduction's outcome.
func (r *GormJobRepository) CompleteJob(ctx context.Context, jobUUID string, status model.JobStatus, gasUsed uint64, normalForm, errorMsg string) error {
	result := r.db.WithContext(ctx).
		Model(&ReductionJob{}).
		Where("uuid = ?", jobUUID).
		Updates(map[string]interface{}{
			"status":      status,
			"gas_used":    gasUsed,
			"normal_form": normalForm,
			"error_msg":   errorMsg,
			"end_time":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to complete job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %s", jobUUID)
	}

	return nil
}

// LockJobForExecution attempts to transition a job from Pending to
// Running under a row lock, so two workers never pick up the same job.
func (r *GormJobRepository) LockJobForExecution(ctx context.Context, jobUUID string) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record ReductionJob

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uuid = ? AND status = ?", jobUUID, model.JobStatusPending).
			First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		return tx.Model(&ReductionJob{}).
			Where("uuid = ?", jobUUID).
			Updates(map[string]interface{}{
				"status":     model.JobStatusRunning,
				"begin_time": time.Now(),
			}).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock job: %w", err)
	}

	return true, nil
}
