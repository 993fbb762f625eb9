// Package scheduler provides job scheduling and worker pool management.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/optinet/optinet/internal/scheduler/source"
	"github.com/optinet/optinet/pkg/config"
	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/utils"
)

// JobProcessor defines the interface for processing jobs.
type JobProcessor interface {
	// Process runs a single job to completion (or failure).
	Process(ctx context.Context, job *model.Job) error
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	PollInterval  time.Duration // How often to poll for new jobs
	WorkerCount   int           // Number of concurrent workers
	PrioritySlots int           // Reserved slots for high priority jobs
	JobBatchSize  int           // Max jobs to fetch per poll
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  2 * time.Second,
		WorkerCount:   5,
		PrioritySlots: 2,
		JobBatchSize:  10,
	}
}

// FromConfig creates scheduler config from application config.
func FromConfig(cfg *config.SchedulerConfig) *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  time.Duration(cfg.PollInterval) * time.Second,
		WorkerCount:   cfg.WorkerCount,
		PrioritySlots: cfg.PrioritySlots,
		JobBatchSize:  cfg.TaskBatchSize,
	}
}

// Scheduler manages job scheduling and worker pool. It pulls JobEvents
// from a source.Aggregator (so the database poller and the HTTP webhook
// both feed the same queue) and dispatches them across a fixed worker
// pool with a reserved slot count for high-priority jobs.
type Scheduler struct {
	config    *SchedulerConfig
	processor JobProcessor
	logger    utils.Logger

	aggregator *source.Aggregator

	workerPool chan struct{}        // Semaphore for worker count
	jobQueue   chan *source.JobEvent // Job queue
	wg         sync.WaitGroup        // Wait group for workers

	running bool
	stopCh  chan struct{}
}

// New creates a new Scheduler with source aggregator.
func New(config *SchedulerConfig, aggregator *source.Aggregator, processor JobProcessor, logger utils.Logger) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Scheduler{
		config:     config,
		aggregator: aggregator,
		processor:  processor,
		logger:     logger,
		workerPool: make(chan struct{}, config.WorkerCount),
		jobQueue:   make(chan *source.JobEvent, config.JobBatchSize*2),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler with %d workers", s.config.WorkerCount)

	s.running = true

	// Fill the worker-pool semaphore with one token per worker
	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	// Start the aggregator
	if err := s.aggregator.Start(ctx); err != nil {
		return err
	}

	// Start the source-based event loop
	go s.sourceEventLoop(ctx)

	// Start the job processing loop
	go s.processLoop(ctx)

	return nil
}

// Stop stops the scheduler gracefully.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	s.running = false
	close(s.stopCh)

	// Wait for all workers to complete
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// shouldAcceptJob determines if a job should be accepted based on priority.
func (s *Scheduler) shouldAcceptJob(event *source.JobEvent) bool {
	activeWorkers := s.config.WorkerCount - len(s.workerPool)
	reservedSlots := s.config.WorkerCount - s.config.PrioritySlots

	// High priority jobs can always be accepted if there's capacity
	if event.Priority > 0 {
		return activeWorkers < s.config.WorkerCount
	}

	// Normal priority jobs can only use non-reserved slots
	return activeWorkers < reservedSlots
}

// processLoop processes queued jobs.
func (s *Scheduler) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event := <-s.jobQueue:
			// Acquire a worker slot
			select {
			case <-s.workerPool:
				s.wg.Add(1)
				go s.processJob(ctx, event)
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}
}

// processJob processes a single job.
func (s *Scheduler) processJob(ctx context.Context, event *source.JobEvent) {
	defer func() {
		s.workerPool <- struct{}{} // Release worker slot
		s.wg.Done()
	}()

	job := event.Job
	s.logger.Info("Processing job %s (gas_limit=%d)", job.JobUUID, job.GasLimit)

	startTime := time.Now()
	err := s.processor.Process(ctx, job)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Job %s failed after %v: %v", job.JobUUID, duration, err)
		if nackErr := s.aggregator.Nack(ctx, event, err.Error()); nackErr != nil {
			s.logger.Error("Failed to nack job %s: %v", job.JobUUID, nackErr)
		}
		return
	}

	if ackErr := s.aggregator.Ack(ctx, event); ackErr != nil {
		s.logger.Error("Failed to ack job %s: %v", job.JobUUID, ackErr)
	}

	s.logger.Info("Job %s completed successfully in %v", job.JobUUID, duration)
}

// sourceEventLoop receives job events from the aggregator and queues them for processing.
func (s *Scheduler) sourceEventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.aggregator.Jobs():
			if !ok {
				s.logger.Info("Aggregator channel closed")
				return
			}

			if !s.shouldAcceptJob(event) {
				// The source already locked this job; hand it back for
				// retry instead of leaving it stranded mid-flight.
				s.logger.Debug("No capacity for job %s, nacking", event.Job.JobUUID)
				if err := s.aggregator.Nack(ctx, event, "no worker capacity"); err != nil {
					s.logger.Error("Failed to nack event: %v", err)
				}
				continue
			}

			select {
			case s.jobQueue <- event:
				s.logger.Info("Queued job %s from source %s/%s",
					event.Job.JobUUID, event.SourceType, event.SourceName)
			default:
				// Queue full, nack the event so it can be retried
				s.logger.Warn("Job queue full, nacking job %s", event.Job.JobUUID)
				if err := s.aggregator.Nack(ctx, event, "job queue full"); err != nil {
					s.logger.Error("Failed to nack event: %v", err)
				}
			}
		}
	}
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		ActiveWorkers: s.config.WorkerCount - len(s.workerPool),
		TotalWorkers:  s.config.WorkerCount,
		QueuedJobs:    len(s.jobQueue),
		Running:       s.running,
	}
}

// SchedulerStats holds scheduler statistics.
type SchedulerStats struct {
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	QueuedJobs    int  `json:"queued_jobs"`
	Running       bool `json:"running"`
}
