package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/optinet/optinet/internal/repository"
	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/utils"
)

// SourceTypeHTTP identifies the webhook submission source.
const SourceTypeHTTP SourceType = "http"

func init() {
	Register(SourceTypeHTTP, NewHTTPSource)
}

// HTTPOptions tunes the submission webhook.
type HTTPOptions struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// Path is the HTTP path for receiving job submissions.
	Path string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration

	// MaxBodySize is the maximum allowed request body size in bytes.
	MaxBodySize int64

	// DefaultGasLimit is used when a submission omits gas_limit.
	DefaultGasLimit uint64
}

// DefaultHTTPOptions returns the webhook defaults.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		ListenAddr:      ":8080",
		Path:            "/jobs",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		MaxBodySize:     1 << 20, // 1MB
		DefaultGasLimit: 1_000_000,
	}
}

// HTTPJobRequest represents an incoming job submission.
type HTTPJobRequest struct {
	Program  string            `json:"program"`
	GasLimit uint64            `json:"gas_limit,omitempty"`
	Priority int               `json:"priority,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HTTPJobResponse represents the response for a job submission.
type HTTPJobResponse struct {
	Success bool   `json:"success"`
	JobUUID string `json:"job_uuid,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTPSource implements JobSource as a webhook: a POST to Path inserts a
// new row into JobRepository and returns immediately. It never emits on
// its own Jobs() channel — the database source's poll loop is what picks
// the inserted row up and dispatches it to a worker, so every submission
// channel ultimately feeds one Aggregator.
type HTTPSource struct {
	name    string
	options *HTTPOptions
	logger  utils.Logger

	jobRepo repository.JobRepository

	server  *http.Server
	jobChan chan *JobEvent
	stopCh  chan struct{}

	mu      sync.RWMutex
	running bool
}

// NewHTTPSource builds an HTTPSource from a SourceConfig; the registry
// uses this constructor.
func NewHTTPSource(cfg *SourceConfig) (JobSource, error) {
	opts := &HTTPOptions{
		ListenAddr:      cfg.GetString("listen_addr", ":8080"),
		Path:            cfg.GetString("path", "/jobs"),
		ReadTimeout:     cfg.GetDuration("read_timeout", 30*time.Second),
		WriteTimeout:    cfg.GetDuration("write_timeout", 30*time.Second),
		MaxBodySize:     int64(cfg.GetInt("max_body_size", 1<<20)),
		DefaultGasLimit: uint64(cfg.GetInt("default_gas_limit", 1_000_000)),
	}

	return &HTTPSource{
		name:    cfg.Name,
		options: opts,
		jobChan: make(chan *JobEvent),
		stopCh:  make(chan struct{}),
	}, nil
}

// NewHTTPSourceWithDeps builds an HTTPSource with its repository and
// logger supplied directly, for callers that already hold them.
func NewHTTPSourceWithDeps(name string, opts *HTTPOptions, jobRepo repository.JobRepository, logger utils.Logger) *HTTPSource {
	if opts == nil {
		opts = DefaultHTTPOptions()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &HTTPSource{
		name:    name,
		options: opts,
		logger:  logger,
		jobRepo: jobRepo,
		jobChan: make(chan *JobEvent),
		stopCh:  make(chan struct{}),
	}
}

// SetRepository injects the job repository; required before Start when
// the source came from the registry.
func (s *HTTPSource) SetRepository(jobRepo repository.JobRepository) {
	s.jobRepo = jobRepo
}

// SetLogger sets the logger.
func (s *HTTPSource) SetLogger(logger utils.Logger) {
	s.logger = logger
}

// Type returns the source type.
func (s *HTTPSource) Type() SourceType {
	return SourceTypeHTTP
}

// Name returns the source instance name.
func (s *HTTPSource) Name() string {
	return s.name
}

// Start brings the webhook listener up.
func (s *HTTPSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(s.options.Path, s.handleJob)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         s.options.ListenAddr,
		Handler:      mux,
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
	}

	if s.logger != nil {
		s.logger.Info("HTTP source %s starting on %s%s", s.name, s.options.ListenAddr, s.options.Path)
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("HTTP source %s server error: %v", s.name, err)
			}
		}
	}()

	return nil
}

// Stop shuts the webhook listener down, finishing in-flight requests.
func (s *HTTPSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}

	return nil
}

// Jobs returns the job event channel. HTTPSource never writes to it: job
// submissions are persisted directly and left for the database source to
// pick up, so this channel stays empty. It is only here to satisfy
// JobSource for the Aggregator's uniform fan-in.
func (s *HTTPSource) Jobs() <-chan *JobEvent {
	return s.jobChan
}

// Ack is a no-op: HTTPSource never owns a job's lifecycle past insertion.
func (s *HTTPSource) Ack(ctx context.Context, event *JobEvent) error {
	return nil
}

// Nack is a no-op for the same reason.
func (s *HTTPSource) Nack(ctx context.Context, event *JobEvent, reason string) error {
	return nil
}

// HealthCheck checks if the HTTP server is running.
func (s *HTTPSource) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	if !running {
		return fmt.Errorf("HTTP source %s is not running", s.name)
	}
	return nil
}

// handleJob accepts one program submission and persists it as a
// pending job.
func (s *HTTPSource) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req HTTPJobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.Program == "" {
		s.sendError(w, http.StatusBadRequest, "program is required")
		return
	}

	if s.jobRepo == nil {
		s.sendError(w, http.StatusServiceUnavailable, "no repository configured")
		return
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = s.options.DefaultGasLimit
	}

	job := model.NewJob(0, uuid.NewString(), req.Program, gasLimit)
	job.Priority = req.Priority

	if err := s.jobRepo.SaveJob(r.Context(), job); err != nil {
		s.sendError(w, http.StatusInternalServerError, "failed to save job: "+err.Error())
		return
	}

	s.sendSuccess(w, job.JobUUID, "job accepted")
	if s.logger != nil {
		s.logger.Debug("HTTP source %s received job %s", s.name, job.JobUUID)
	}
}

// handleHealth answers liveness probes.
func (s *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"source": s.name,
		"type":   string(SourceTypeHTTP),
	})
}

// sendError sends an error response.
func (s *HTTPSource) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPJobResponse{
		Success: false,
		Message: message,
	})
}

// sendSuccess sends a success response.
func (s *HTTPSource) sendSuccess(w http.ResponseWriter, jobUUID, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(HTTPJobResponse{
		Success: true,
		JobUUID: jobUUID,
		Message: message,
	})
}
