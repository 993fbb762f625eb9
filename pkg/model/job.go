// Package model defines the core data structures used throughout the application.
package model

import (
	"time"
)

// JobStatus represents the status of a reduction job.
type JobStatus int

const (
	JobStatusPending      JobStatus = 0 // Queued, not yet picked up by a worker
	JobStatusRunning      JobStatus = 1 // A worker is reducing it
	JobStatusSucceeded    JobStatus = 2 // Reached a normal form within its gas limit
	JobStatusFailed       JobStatus = 3 // Parse error, invariant violation, or other hard failure
	JobStatusGasExhausted JobStatus = 4 // Gas ran out before a normal form was reached
)

// String returns the string representation of JobStatus.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusRunning:
		return "running"
	case JobStatusSucceeded:
		return "succeeded"
	case JobStatusFailed:
		return "failed"
	case JobStatusGasExhausted:
		return "gas_exhausted"
	default:
		return "unknown"
	}
}

// Job represents a single reduction job: a program submitted for
// normalization, its gas budget, and (once it has run) the outcome.
type Job struct {
	ID         int64      `json:"id" db:"id"`
	JobUUID    string     `json:"uuid" db:"uuid"`
	Program    string     `json:"program" db:"program"`
	Status     JobStatus  `json:"status" db:"status"`
	StatusInfo string     `json:"status_info" db:"status_info"`
	GasLimit   uint64     `json:"gas_limit" db:"gas_limit"`
	GasUsed    uint64     `json:"gas_used" db:"gas_used"`
	NormalForm string     `json:"normal_form,omitempty" db:"normal_form"`
	ErrorMsg   string     `json:"error,omitempty" db:"error"`
	Priority   int        `json:"priority" db:"priority"`
	CreateTime time.Time  `json:"create_time" db:"create_time"`
	BeginTime  *time.Time `json:"begin_time" db:"begin_time"`
	EndTime    *time.Time `json:"end_time" db:"end_time"`
}

// IsHighPriority reports whether the job should jump the scheduler's
// default queue ahead of normal-priority jobs.
func (j *Job) IsHighPriority() bool {
	return j.Priority > 0
}

// IsTerminal reports whether the job has finished running, successfully
// or not, and will never be picked up by a worker again.
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusGasExhausted:
		return true
	default:
		return false
	}
}

// NewJob creates a new Job instance in the Pending state.
func NewJob(id int64, jobUUID, program string, gasLimit uint64) *Job {
	return &Job{
		ID:         id,
		JobUUID:    jobUUID,
		Program:    program,
		Status:     JobStatusPending,
		GasLimit:   gasLimit,
		CreateTime: time.Now(),
	}
}
