// Package repository provides database abstraction for the reduction service.
package repository

import (
	"time"

	"github.com/optinet/optinet/pkg/model"
)

// ReductionJob represents the reduction_job table: one row per submitted
// program, tracking its status/gas/outcome end to end.
type ReductionJob struct {
	ID         int64            `gorm:"column:id;primaryKey;autoIncrement"`
	UUID       string           `gorm:"column:uuid;type:varchar(64);uniqueIndex"`
	Program    string           `gorm:"column:program;type:text"`
	Status     model.JobStatus  `gorm:"column:status"`
	StatusInfo string           `gorm:"column:status_info;type:text"`
	GasLimit   uint64           `gorm:"column:gas_limit"`
	GasUsed    uint64           `gorm:"column:gas_used"`
	NormalForm string           `gorm:"column:normal_form;type:text"`
	ErrorMsg   string           `gorm:"column:error_msg;type:text"`
	Priority   int              `gorm:"column:priority"`
	CreateTime time.Time        `gorm:"column:create_time;autoCreateTime"`
	BeginTime  *time.Time       `gorm:"column:begin_time"`
	EndTime    *time.Time       `gorm:"column:end_time"`
}

// TableName returns the table name for ReductionJob.
func (ReductionJob) TableName() string {
	return "reduction_job"
}

// ToModel converts a ReductionJob row to model.Job.
func (j *ReductionJob) ToModel() *model.Job {
	return &model.Job{
		ID:         j.ID,
		JobUUID:    j.UUID,
		Program:    j.Program,
		Status:     j.Status,
		StatusInfo: j.StatusInfo,
		GasLimit:   j.GasLimit,
		GasUsed:    j.GasUsed,
		NormalForm: j.NormalForm,
		ErrorMsg:   j.ErrorMsg,
		Priority:   j.Priority,
		CreateTime: j.CreateTime,
		BeginTime:  j.BeginTime,
		EndTime:    j.EndTime,
	}
}

// FromModel builds a ReductionJob row from model.Job, for inserts.
func FromModel(job *model.Job) *ReductionJob {
	return &ReductionJob{
		ID:         job.ID,
		UUID:       job.JobUUID,
		Program:    job.Program,
		Status:     job.Status,
		StatusInfo: job.StatusInfo,
		GasLimit:   job.GasLimit,
		GasUsed:    job.GasUsed,
		NormalForm: job.NormalForm,
		ErrorMsg:   job.ErrorMsg,
		Priority:   job.Priority,
		CreateTime: job.CreateTime,
		BeginTime:  job.BeginTime,
		EndTime:    job.EndTime,
	}
}
