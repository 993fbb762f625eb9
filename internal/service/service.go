// Package service provides the main application service that integrates all components.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/optinet/optinet/internal/compiler"
	"github.com/optinet/optinet/internal/repository"
	"github.com/optinet/optinet/internal/scheduler"
	"github.com/optinet/optinet/internal/scheduler/source"
	"github.com/optinet/optinet/internal/storage"
	"github.com/optinet/optinet/pkg/compression"
	"github.com/optinet/optinet/pkg/config"
	"github.com/optinet/optinet/pkg/core"
	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/parallel"
	"github.com/optinet/optinet/pkg/syntax"
	"github.com/optinet/optinet/pkg/utils"
)

// initialHeapCapacity is the starting node-slot allocation for a fresh
// Heap; the allocator grows it on demand so this only avoids a handful
// of early reallocations for small programs.
const initialHeapCapacity = 1024

var tracer = otel.Tracer("github.com/optinet/optinet/internal/service")

// ReductionService runs submitted programs to normal form and records
// the outcome.
type ReductionService struct {
	config  *config.Config
	repo    repository.JobRepository
	storage storage.ArtifactStore
	logger  utils.Logger
}

// NewReductionService creates a ReductionService.
func NewReductionService(cfg *config.Config, repo repository.JobRepository, store storage.ArtifactStore, logger utils.Logger) *ReductionService {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	return &ReductionService{
		config:  cfg,
		repo:    repo,
		storage: store,
		logger:  logger,
	}
}

// Reduce parses req.Program, reduces it to normal form under req.GasLimit
// (or the configured default gas limit if omitted), persists the outcome
// through JobRepository, and archives the program and its normal form
// through storage.ArtifactStore. A parse/compile/readback failure is reported
// as a JobStatusFailed response, not a Go error — the caller's job still
// ran to a well-defined conclusion.
func (s *ReductionService) Reduce(ctx context.Context, req *model.ReductionRequest) (*model.ReductionResponse, error) {
	ctx, span := tracer.Start(ctx, "ReductionService.Reduce")
	defer span.End()

	gasLimit := req.GasLimit
	if gasLimit == 0 && s.config != nil {
		gasLimit = s.config.Core.DefaultGasLimit
	}

	span.SetAttributes(
		attribute.String("job.uuid", req.JobUUID),
		attribute.Int64("job.gas_limit", int64(gasLimit)),
	)

	timer := utils.NewTimer("reduce")

	pt := timer.Start("parse")
	term, err := syntax.Parse(req.Program)
	pt.Stop()
	if err != nil {
		return s.fail(ctx, req, fmt.Sprintf("parse error: %v", err)), nil
	}

	h := core.NewHeap(initialHeapCapacity, gasLimit)
	pt = timer.Start("compile")
	root, err := compiler.ToGraph(h, term)
	pt.Stop()
	if err != nil {
		return s.fail(ctx, req, fmt.Sprintf("compile error: %v", err)), nil
	}

	var normalPtr core.Ptr
	timer.TimeFunc("normalize", func() {
		normalPtr = core.NormalizeToFixpoint(h, root)
	})

	pt = timer.Start("readback")
	nfTerm, err := compiler.FromGraph(h, normalPtr)
	pt.Stop()
	if err != nil {
		return s.fail(ctx, req, fmt.Sprintf("readback error: %v", err)), nil
	}
	s.logger.Debug("%s", timer.Summary())

	stats := collectStats(h)
	gasUsed := h.Gas()
	normalForm := syntax.Print(nfTerm)

	status := model.JobStatusSucceeded
	if h.Stalled() {
		status = model.JobStatusGasExhausted
	}

	span.SetAttributes(
		attribute.Int64("job.gas_used", int64(gasUsed)),
		attribute.String("job.status", status.String()),
		attribute.Int64("job.rule.app_lam", int64(stats.AppLam)),
		attribute.Int64("job.rule.app_par", int64(stats.AppPar)),
		attribute.Int64("job.rule.let_lam", int64(stats.LetLam)),
		attribute.Int64("job.rule.let_par_annihilate", int64(stats.LetParAnnihilate)),
		attribute.Int64("job.rule.let_par_commute", int64(stats.LetParCommute)),
		attribute.Int64("job.rule.let_ctr", int64(stats.LetCtr)),
	)

	if s.repo != nil {
		if err := s.repo.CompleteJob(ctx, req.JobUUID, status, gasUsed, normalForm, ""); err != nil {
			s.logger.Error("failed to persist job %s: %v", req.JobUUID, err)
		}
	}

	s.archive(ctx, req.JobUUID, req.Program, normalForm)

	s.logger.Info("job %s reduced to normal form in %d rewrite steps (%s)", req.JobUUID, gasUsed, status)

	resp := &model.ReductionResponse{
		JobUUID:    req.JobUUID,
		Status:     status,
		NormalForm: normalForm,
		Stats:      stats,
	}
	s.notifyCallback(ctx, resp)
	return resp, nil
}

// notifyCallback POSTs a finished job's result to the configured
// completion webhook. Best effort: a failed notification is logged and
// the job outcome stands.
func (s *ReductionService) notifyCallback(ctx context.Context, resp *model.ReductionResponse) {
	if s.config == nil || !s.config.Callback.Enabled {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("failed to encode callback payload for job %s: %v", resp.JobUUID, err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Callback.URL, bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("failed to build callback request for job %s: %v", resp.JobUUID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.logger.Warn("callback for job %s failed: %v", resp.JobUUID, err)
		return
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode >= 300 {
		s.logger.Warn("callback for job %s returned status %d", resp.JobUUID, httpResp.StatusCode)
	}
}

func (s *ReductionService) fail(ctx context.Context, req *model.ReductionRequest, errMsg string) *model.ReductionResponse {
	if s.repo != nil {
		if err := s.repo.CompleteJob(ctx, req.JobUUID, model.JobStatusFailed, 0, "", errMsg); err != nil {
			s.logger.Error("failed to persist failed job %s: %v", req.JobUUID, err)
		}
	}
	s.logger.Warn("job %s failed: %s", req.JobUUID, errMsg)
	return &model.ReductionResponse{
		JobUUID: req.JobUUID,
		Status:  model.JobStatusFailed,
		Error:   errMsg,
	}
}

// compressThreshold is the artifact size above which archived blobs are
// compressed before upload. Normal forms of heavily shared graphs print
// as very repetitive text, so anything past a few KB compresses well;
// below it the codec overhead isn't worth a second file extension.
const compressThreshold = 4 * 1024

// archive uploads the submitted program and its rendered normal form,
// keyed by job UUID, compressing blobs above compressThreshold. Archive
// failures are logged, not fatal: the job's outcome is already durably
// recorded in the repository.
func (s *ReductionService) archive(ctx context.Context, jobUUID, program, normalForm string) {
	if s.storage == nil {
		return
	}
	s.archiveBlob(ctx, jobUUID+"/program.lc", []byte(program))
	s.archiveBlob(ctx, jobUUID+"/normal_form.lc", []byte(normalForm))
}

func (s *ReductionService) archiveBlob(ctx context.Context, key string, blob []byte) {
	if len(blob) > compressThreshold {
		comp := compression.Default()
		defer compression.Close(comp)
		compressed, err := comp.Compress(blob)
		if err != nil {
			s.logger.Warn("failed to compress artifact %s, storing raw: %v", key, err)
		} else {
			key += "." + comp.Codec().Name()
			blob = compressed
		}
	}
	if err := s.storage.Upload(ctx, key, bytes.NewReader(blob)); err != nil {
		s.logger.Warn("failed to archive artifact %s: %v", key, err)
	}
}

// collectStats reads h's per-rule rewrite histogram into a RewriteStats.
func collectStats(h *core.Heap) model.RewriteStats {
	return model.RewriteStats{
		AppLam:           h.RuleCount(core.RuleAppLam),
		AppPar:           h.RuleCount(core.RuleAppPar),
		LetLam:           h.RuleCount(core.RuleLetLam),
		LetParAnnihilate: h.RuleCount(core.RuleLetParAnnihilate),
		LetParCommute:    h.RuleCount(core.RuleLetParCommute),
		LetCtr:           h.RuleCount(core.RuleLetCtr),
	}
}

// ConvergenceResult reports, for one program run under a geometric
// sequence of gas limits, whether every limit at or above the first one
// that reaches a fixpoint produced byte-identical normalized text.
type ConvergenceResult struct {
	Program     string
	GasLimits   []uint64
	NormalForms []string
	Convergent  bool
}

// CheckConvergence runs program under len(gasLimits) independent Heaps
// concurrently via parallel.MapReduce (never sharing one Heap across
// goroutines — the core stays single-threaded per reduction) and asserts
// every limit at or above the first fixpoint-reaching one agrees on the
// normalized head text.
func CheckConvergence(ctx context.Context, program string, gasLimits []uint64) (*ConvergenceResult, error) {
	term, err := syntax.Parse(program)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	type run struct {
		gas        uint64
		normalForm string
		converged  bool
	}

	runs := parallel.MapReduce(ctx, gasLimits, parallel.DefaultPoolConfig(),
		func(ctx context.Context, gas uint64) run {
			h := core.NewHeap(initialHeapCapacity, gas)
			root, err := compiler.ToGraph(h, term)
			if err != nil {
				return run{gas: gas}
			}
			normalPtr := core.NormalizeToFixpoint(h, root)
			nfTerm, err := compiler.FromGraph(h, normalPtr)
			if err != nil {
				return run{gas: gas}
			}
			return run{gas: gas, normalForm: syntax.Print(nfTerm), converged: !h.Stalled()}
		},
		func(mapped []run) []run { return mapped },
	)

	result := &ConvergenceResult{Program: program, Convergent: true}
	var firstConverged string
	haveFirst := false
	for _, r := range runs {
		result.GasLimits = append(result.GasLimits, r.gas)
		result.NormalForms = append(result.NormalForms, r.normalForm)
		if !r.converged {
			continue
		}
		if !haveFirst {
			firstConverged = r.normalForm
			haveFirst = true
			continue
		}
		if r.normalForm != firstConverged {
			result.Convergent = false
		}
	}

	return result, nil
}

// Service is the long-running daemon wrapper around a ReductionService: it
// owns the database/storage connections and runs a scheduler that polls
// JobRepository for pending jobs.
type Service struct {
	config    *config.Config
	logger    utils.Logger
	repos     *repository.Repositories
	storage   storage.ArtifactStore
	reduction *ReductionService
	scheduler *scheduler.Scheduler

	sources    []source.JobSource
	aggregator *source.Aggregator

	running bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	s.reduction = NewReductionService(s.config, s.repos.Job, s.storage, s.logger)

	if err := s.initScheduler(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	s.repos = repository.NewRepositories(gormDB, s.config.Database.Type)
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the object storage.
func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.New(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// initScheduler initializes the job scheduler: a database source (the
// default poller) and an HTTP source (a job-submission webhook whose rows
// the database source then picks up), fanned into one Aggregator.
func (s *Service) initScheduler() error {
	s.logger.Info("Initializing scheduler...")

	dbSource := source.NewDatabaseSourceWithDeps(
		"default-db",
		&source.DatabaseOptions{
			PollInterval: time.Duration(s.config.Scheduler.PollInterval) * time.Second,
			BatchSize:    s.config.Scheduler.TaskBatchSize,
		},
		s.repos.Job,
		s.logger,
	)

	httpSource := source.NewHTTPSourceWithDeps(
		"default-http",
		source.DefaultHTTPOptions(),
		s.repos.Job,
		s.logger,
	)

	s.sources = []source.JobSource{dbSource, httpSource}
	s.aggregator = source.NewAggregator(s.sources, s.config.Scheduler.TaskBatchSize*2, s.logger)

	processor := scheduler.NewDefaultJobProcessor(s.reduction, s.logger)
	schedulerConfig := scheduler.FromConfig(&s.config.Scheduler)
	s.scheduler = scheduler.New(schedulerConfig, s.aggregator, processor, s.logger)

	s.logger.Info("Scheduler initialized with %d sources", len(s.sources))
	return nil
}

// Start starts the service.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting service...")

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	s.running = true
	s.logger.Info("Service started successfully")

	return nil
}

// Stop stops the service gracefully.
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if s.repos != nil {
		if err := s.repos.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
	}

	s.running = false
	s.logger.Info("Service stopped")

	return nil
}

// IsRunning returns whether the service is running.
func (s *Service) IsRunning() bool {
	return s.running
}

// Reduce exposes the underlying ReductionService for one-shot (non-daemon)
// callers such as the CLI's `run`/`bench` commands.
func (s *Service) Reduce(ctx context.Context, req *model.ReductionRequest) (*model.ReductionResponse, error) {
	return s.reduction.Reduce(ctx, req)
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		Running: s.running,
	}

	if s.scheduler != nil {
		stats.Scheduler = s.scheduler.Stats()
	}

	return stats
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.repos != nil {
		if err := s.repos.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}

	return nil
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Running   bool                     `json:"running"`
	Scheduler scheduler.SchedulerStats `json:"scheduler"`
}
