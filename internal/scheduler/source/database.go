package source

import (
	"context"
	"sync"
	"time"

	"github.com/optinet/optinet/internal/repository"
	"github.com/optinet/optinet/pkg/collections"
	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/utils"
)

// SourceTypeDB identifies the polling database source.
const SourceTypeDB SourceType = "database"

func init() {
	Register(SourceTypeDB, NewDatabaseSource)
}

// DatabaseOptions tunes the polling loop.
type DatabaseOptions struct {
	// PollInterval is how often to poll for new jobs.
	PollInterval time.Duration

	// BatchSize is the maximum number of jobs to fetch per poll.
	BatchSize int
}

// DefaultDatabaseOptions returns the polling defaults.
func DefaultDatabaseOptions() *DatabaseOptions {
	return &DatabaseOptions{
		PollInterval: 2 * time.Second,
		BatchSize:    10,
	}
}

// DatabaseSource implements JobSource for database-based job fetching: it
// polls JobRepository for pending jobs and locks each before emitting it,
// so two instances polling the same table never double-process a job.
type DatabaseSource struct {
	name    string
	options *DatabaseOptions
	logger  utils.Logger

	jobRepo repository.JobRepository

	jobChan chan *JobEvent
	stopCh  chan struct{}

	mu      sync.RWMutex
	running bool
}

// NewDatabaseSource builds a DatabaseSource from a SourceConfig; the
// registry uses this constructor.
func NewDatabaseSource(cfg *SourceConfig) (JobSource, error) {
	opts := &DatabaseOptions{
		PollInterval: cfg.GetDuration("poll_interval", 2*time.Second),
		BatchSize:    cfg.GetInt("batch_size", 10),
	}

	return &DatabaseSource{
		name:    cfg.Name,
		options: opts,
		jobChan: make(chan *JobEvent, opts.BatchSize*2),
		stopCh:  make(chan struct{}),
	}, nil
}

// NewDatabaseSourceWithDeps builds a DatabaseSource with its repository
// and logger supplied directly, for callers that already hold them.
func NewDatabaseSourceWithDeps(name string, opts *DatabaseOptions, jobRepo repository.JobRepository, logger utils.Logger) *DatabaseSource {
	if opts == nil {
		opts = DefaultDatabaseOptions()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &DatabaseSource{
		name:    name,
		options: opts,
		logger:  logger,
		jobRepo: jobRepo,
		jobChan: make(chan *JobEvent, opts.BatchSize*2),
		stopCh:  make(chan struct{}),
	}
}

// SetRepository injects the job repository; required before Start when
// the source came from the registry.
func (s *DatabaseSource) SetRepository(jobRepo repository.JobRepository) {
	s.jobRepo = jobRepo
}

// SetLogger sets the logger.
func (s *DatabaseSource) SetLogger(logger utils.Logger) {
	s.logger = logger
}

// Type returns the source type.
func (s *DatabaseSource) Type() SourceType {
	return SourceTypeDB
}

// Name returns the source instance name.
func (s *DatabaseSource) Name() string {
	return s.name
}

// Start begins polling for pending jobs.
func (s *DatabaseSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	if s.jobRepo == nil {
		s.mu.Unlock()
		return nil // No repository configured, skip
	}

	s.running = true
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("Database source %s starting with poll_interval=%v, batch_size=%d",
			s.name, s.options.PollInterval, s.options.BatchSize)
	}

	go s.pollLoop(ctx)
	return nil
}

// Stop stops the database source.
func (s *DatabaseSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	return nil
}

// Jobs returns the job event channel.
func (s *DatabaseSource) Jobs() <-chan *JobEvent {
	return s.jobChan
}

// Ack acknowledges a job has been processed successfully. The processor
// already persisted the outcome via JobRepository.CompleteJob, so this is
// a no-op for the database source.
func (s *DatabaseSource) Ack(ctx context.Context, event *JobEvent) error {
	return nil
}

// Nack indicates a job processing failed before it could run to
// completion (e.g. the worker pool was full). It puts the job back to
// Pending so a later poll picks it up again.
func (s *DatabaseSource) Nack(ctx context.Context, event *JobEvent, reason string) error {
	if s.jobRepo == nil || event.Job == nil {
		return nil
	}
	return s.jobRepo.UpdateJobStatus(ctx, event.Job.JobUUID, model.JobStatusPending, reason)
}

// HealthCheck checks the database connection.
func (s *DatabaseSource) HealthCheck(ctx context.Context) error {
	if s.jobRepo == nil {
		return nil
	}
	// Try to fetch a single job as health check
	_, err := s.jobRepo.GetPendingJobs(ctx, 1)
	return err
}

// pollLoop continuously polls the database for pending jobs.
func (s *DatabaseSource) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.options.PollInterval)
	defer ticker.Stop()

	// Initial poll
	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll fetches pending jobs and emits them to the job channel. The
// fetched batch sits in a Queue between the fetch and the emit loop; a
// job that finds the channel full is put back to Pending for a later poll.
func (s *DatabaseSource) poll(ctx context.Context) {
	if s.jobRepo == nil {
		return
	}

	jobs, err := s.jobRepo.GetPendingJobs(ctx, s.options.BatchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("Database source %s failed to fetch jobs: %v", s.name, err)
		}
		return
	}

	pending := collections.NewQueue[*model.Job](len(jobs))
	for _, job := range jobs {
		pending.Enqueue(job)
	}

	for {
		job, ok := pending.Dequeue()
		if !ok {
			return
		}

		locked, err := s.jobRepo.LockJobForExecution(ctx, job.JobUUID)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("Database source %s failed to lock job %s: %v", s.name, job.JobUUID, err)
			}
			continue
		}
		if !locked {
			continue // Job already locked by another instance
		}

		event := NewJobEvent(job, SourceTypeDB, s.name).
			WithMetadata("locked_at", time.Now().Format(time.RFC3339))

		select {
		case s.jobChan <- event:
			if s.logger != nil {
				s.logger.Debug("Database source %s emitted job %s", s.name, job.JobUUID)
			}
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
			// Channel full: hand the locked job back to Pending so the
			// next poll picks it up.
			if err := s.Nack(ctx, event, "job channel full"); err != nil && s.logger != nil {
				s.logger.Error("Database source %s failed to release job %s: %v", s.name, job.JobUUID, err)
			}
			if s.logger != nil {
				s.logger.Warn("Database source %s job channel full, job %s will retry", s.name, job.JobUUID)
			}
		}
	}
}
