package source

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optinet/optinet/pkg/model"
)

func TestHTTPSource_HandleJob_InsertsRowAndDoesNotEmit(t *testing.T) {
	repo := newFakeJobRepository()
	s := NewHTTPSourceWithDeps("http-1", DefaultHTTPOptions(), repo, testLogger())

	body, err := json.Marshal(HTTPJobRequest{Program: "(\\x.x)", GasLimit: 5000})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleJob(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out HTTPJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.JobUUID)

	require.Len(t, repo.pending, 1)
	assert.Equal(t, "(\\x.x)", repo.pending[0].Program)
	assert.Equal(t, uint64(5000), repo.pending[0].GasLimit)

	select {
	case event := <-s.Jobs():
		t.Fatalf("HTTPSource unexpectedly emitted a job event: %v", event)
	default:
		// expected: HTTPSource never writes to its own channel
	}
}

func TestHTTPSource_HandleJob_DefaultsGasLimit(t *testing.T) {
	repo := newFakeJobRepository()
	opts := DefaultHTTPOptions()
	opts.DefaultGasLimit = 42
	s := NewHTTPSourceWithDeps("http-1", opts, repo, testLogger())

	body, err := json.Marshal(HTTPJobRequest{Program: "x"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleJob(w, req)

	require.Len(t, repo.pending, 1)
	assert.Equal(t, uint64(42), repo.pending[0].GasLimit)
}

func TestHTTPSource_HandleJob_RejectsEmptyProgram(t *testing.T) {
	repo := newFakeJobRepository()
	s := NewHTTPSourceWithDeps("http-1", DefaultHTTPOptions(), repo, testLogger())

	body, _ := json.Marshal(HTTPJobRequest{Program: ""})
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleJob(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	assert.Empty(t, repo.pending)
}

func TestHTTPSource_HandleJob_RejectsNonPost(t *testing.T) {
	s := NewHTTPSourceWithDeps("http-1", DefaultHTTPOptions(), newFakeJobRepository(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	w := httptest.NewRecorder()
	s.handleJob(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
}

func TestHTTPSource_AckNackAreNoops(t *testing.T) {
	s := NewHTTPSourceWithDeps("http-1", DefaultHTTPOptions(), newFakeJobRepository(), testLogger())
	event := NewJobEvent(model.NewJob(1, "uuid-1", "x", 10), SourceTypeHTTP, "http-1")

	assert.NoError(t, s.Ack(context.Background(), event))
	assert.NoError(t, s.Nack(context.Background(), event, "reason"))
}

func TestHTTPSource_HealthCheck_FailsBeforeStart(t *testing.T) {
	s := NewHTTPSourceWithDeps("http-1", DefaultHTTPOptions(), newFakeJobRepository(), testLogger())
	assert.Error(t, s.HealthCheck(context.Background()))
}
