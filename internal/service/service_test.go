package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optinet/optinet/pkg/config"
	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/utils"
)

// fakeJobRepository is a minimal in-memory stand-in for repository.JobRepository.
type fakeJobRepository struct {
	mu        sync.Mutex
	completed map[string]model.JobStatus
	gasUsed   map[string]uint64
}

func newFakeJobRepository() *fakeJobRepository {
	return &fakeJobRepository{
		completed: make(map[string]model.JobStatus),
		gasUsed:   make(map[string]uint64),
	}
}

func (r *fakeJobRepository) SaveJob(ctx context.Context, job *model.Job) error { return nil }

func (r *fakeJobRepository) GetJobByUUID(ctx context.Context, jobUUID string) (*model.Job, error) {
	return nil, nil
}

func (r *fakeJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	return nil, nil
}

func (r *fakeJobRepository) UpdateJobStatus(ctx context.Context, jobUUID string, status model.JobStatus, info string) error {
	return nil
}

func (r *fakeJobRepository) CompleteJob(ctx context.Context, jobUUID string, status model.JobStatus, gasUsed uint64, normalForm, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[jobUUID] = status
	r.gasUsed[jobUUID] = gasUsed
	return nil
}

func (r *fakeJobRepository) LockJobForExecution(ctx context.Context, jobUUID string) (bool, error) {
	return true, nil
}

// fakeStorage is a minimal in-memory stand-in for storage.ArtifactStore, only
// implementing the methods ReductionService.archive actually calls.
type fakeStorage struct {
	mu       sync.Mutex
	uploaded map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: make(map[string]string)}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[key] = string(data)
	return nil
}

func (s *fakeStorage) UploadFile(ctx context.Context, key string, localPath string) error { return nil }

func (s *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, nil
}

func (s *fakeStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	return nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error { return nil }

func (s *fakeStorage) Exists(ctx context.Context, key string) (bool, error) { return true, nil }

func (s *fakeStorage) GetURL(key string) string { return "" }

func testLogger() utils.Logger {
	return utils.NewDefaultLogger(utils.LevelDebug, io.Discard)
}

func TestReductionService_Reduce_Succeeds(t *testing.T) {
	repo := newFakeJobRepository()
	store := newFakeStorage()
	svc := NewReductionService(nil, repo, store, testLogger())

	resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
		JobUUID:  "uuid-1",
		Program:  "((λx: x) λy: y)",
		GasLimit: 10_000,
	})

	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSucceeded, resp.Status)
	assert.Equal(t, "uuid-1", resp.JobUUID)
	assert.NotEmpty(t, resp.NormalForm)
	assert.Equal(t, model.JobStatusSucceeded, repo.completed["uuid-1"])
	assert.NotEmpty(t, store.uploaded["uuid-1/program.lc"])
	assert.NotEmpty(t, store.uploaded["uuid-1/normal_form.lc"])
}

func TestReductionService_Reduce_ParseErrorIsAFailedStatusNotAGoError(t *testing.T) {
	repo := newFakeJobRepository()
	svc := NewReductionService(nil, repo, nil, testLogger())

	resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
		JobUUID:  "uuid-2",
		Program:  "(λx: y",
		GasLimit: 1_000,
	})

	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, resp.Status)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, model.JobStatusFailed, repo.completed["uuid-2"])
}

func TestReductionService_Reduce_GasExhaustion(t *testing.T) {
	repo := newFakeJobRepository()
	svc := NewReductionService(nil, repo, nil, testLogger())

	// Two beta steps needed, budget for one: the reduction stops with a
	// redex pending, which is gas exhaustion — a well-defined terminal
	// outcome, never a Go error.
	resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
		JobUUID:  "uuid-3",
		Program:  "((λx: x λy: y) λz: z)",
		GasLimit: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, model.JobStatusGasExhausted, resp.Status)
	assert.Equal(t, model.JobStatusGasExhausted, repo.completed["uuid-3"])
}

func TestReductionService_Reduce_ExactBudgetIsNotExhaustion(t *testing.T) {
	repo := newFakeJobRepository()
	svc := NewReductionService(nil, repo, nil, testLogger())

	// One beta step needed, budget of exactly one: the counter reaches
	// the limit, but no redex was left behind, so the job succeeded.
	resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
		JobUUID:  "uuid-3b",
		Program:  "(λx: x λa: λb: a)",
		GasLimit: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSucceeded, resp.Status)
	assert.Equal(t, uint64(1), resp.Stats.Total())
	assert.Equal(t, model.JobStatusSucceeded, repo.completed["uuid-3b"])
}

func TestReductionService_Reduce_DefaultsGasLimitFromConfig(t *testing.T) {
	repo := newFakeJobRepository()
	cfg := &config.Config{Core: config.CoreConfig{DefaultGasLimit: 50_000}}
	svc := NewReductionService(cfg, repo, nil, testLogger())

	resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
		JobUUID: "uuid-4",
		Program: "λx: x",
	})

	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSucceeded, resp.Status)
}

func TestCheckConvergence(t *testing.T) {
	result, err := CheckConvergence(context.Background(), "((λx: x) λy: y)", []uint64{100, 1_000, 10_000})
	require.NoError(t, err)
	assert.Len(t, result.GasLimits, 3)
	assert.Len(t, result.NormalForms, 3)
}

func TestCheckConvergence_ParseError(t *testing.T) {
	_, err := CheckConvergence(context.Background(), "(λx: y", []uint64{100})
	assert.Error(t, err)
}

func TestService_New(t *testing.T) {
	cfg := &config.Config{
		Core: config.CoreConfig{
			Version: "1.0.0",
			DataDir: "./test_data",
		},
		Database: config.DatabaseConfig{
			Type: "postgres",
			Host: "localhost",
			Port: 5432,
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: "./test_storage",
		},
		Scheduler: config.SchedulerConfig{
			WorkerCount:   5,
			PollInterval:  2,
			PrioritySlots: 2,
			TaskBatchSize: 10,
		},
	}

	t.Run("WithLogger", func(t *testing.T) {
		logger := utils.NewDefaultLogger(utils.LevelInfo, nil)
		svc, err := New(cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.False(t, svc.IsRunning())
	})

	t.Run("WithoutLogger", func(t *testing.T) {
		svc, err := New(cfg, nil)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestService_Stats(t *testing.T) {
	cfg := &config.Config{
		Core:      config.CoreConfig{Version: "1.0.0"},
		Database:  config.DatabaseConfig{Type: "postgres", Host: "localhost"},
		Storage:   config.StorageConfig{Type: "local"},
		Scheduler: config.SchedulerConfig{WorkerCount: 5},
	}

	svc, err := New(cfg, nil)
	require.NoError(t, err)

	stats := svc.Stats()
	assert.False(t, stats.Running)
}

func TestServiceStats_JSON(t *testing.T) {
	stats := ServiceStats{Running: true}
	assert.True(t, stats.Running)
}

func TestService_HealthCheck_NoComponents(t *testing.T) {
	cfg := &config.Config{
		Core:      config.CoreConfig{Version: "1.0.0"},
		Database:  config.DatabaseConfig{Type: "postgres", Host: "localhost"},
		Storage:   config.StorageConfig{Type: "local"},
		Scheduler: config.SchedulerConfig{WorkerCount: 5},
	}

	svc, err := New(cfg, nil)
	require.NoError(t, err)

	// HealthCheck should not fail when no components are initialized yet.
	err = svc.HealthCheck(context.Background())
	assert.NoError(t, err)
}

func TestReductionService_Reduce_NotifiesCallback(t *testing.T) {
	var mu sync.Mutex
	var received []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = body
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.Config{
		Core:     config.CoreConfig{DefaultGasLimit: 10_000},
		Callback: config.CallbackConfig{Enabled: true, URL: srv.URL},
	}
	svc := NewReductionService(cfg, nil, nil, testLogger())

	resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
		JobUUID: "uuid-cb",
		Program: "λx: x",
	})
	require.NoError(t, err)
	require.Equal(t, model.JobStatusSucceeded, resp.Status)

	mu.Lock()
	defer mu.Unlock()
	var posted model.ReductionResponse
	require.NoError(t, json.Unmarshal(received, &posted))
	assert.Equal(t, "uuid-cb", posted.JobUUID)
	assert.Equal(t, model.JobStatusSucceeded, posted.Status)
}
