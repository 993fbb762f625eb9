package scheduler

import (
	"context"
	"fmt"

	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/utils"
)

// ReductionRunner is the narrow slice of internal/service.ReductionService
// that DefaultJobProcessor needs. Declaring it here instead of importing
// internal/service directly keeps internal/scheduler free of a dependency
// back on the package that already depends on it.
type ReductionRunner interface {
	Reduce(ctx context.Context, req *model.ReductionRequest) (*model.ReductionResponse, error)
}

// DefaultJobProcessor implements JobProcessor by delegating to a
// ReductionRunner: parse, compile, normalize, readback, persist.
type DefaultJobProcessor struct {
	runner ReductionRunner
	logger utils.Logger
}

// NewDefaultJobProcessor creates a new DefaultJobProcessor.
func NewDefaultJobProcessor(runner ReductionRunner, logger utils.Logger) *DefaultJobProcessor {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	return &DefaultJobProcessor{
		runner: runner,
		logger: logger,
	}
}

// Process runs a job's reduction and reports a processing error only for
// conditions the scheduler should nack (the runner itself persists
// JobStatusFailed/JobStatusGasExhausted outcomes as a normal, successful
// Process call).
func (p *DefaultJobProcessor) Process(ctx context.Context, job *model.Job) error {
	p.logger.Info("Starting reduction for job %s (gas_limit=%d)", job.JobUUID, job.GasLimit)

	resp, err := p.runner.Reduce(ctx, &model.ReductionRequest{
		JobUUID:  job.JobUUID,
		Program:  job.Program,
		GasLimit: job.GasLimit,
	})
	if err != nil {
		return fmt.Errorf("reduce job %s: %w", job.JobUUID, err)
	}

	p.logger.Info("Job %s finished with status %s (gas used: %d)",
		job.JobUUID, resp.Status, resp.Stats.Total())
	return nil
}
