package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/models"
	"github.com/ternarybob/scribe/internal/services/scheduler"
	"github.com/ternarybob/scribe/internal/services/status"
)

type stubAcquirer struct {
	called chan struct{}
}

func (s *stubAcquirer) Acquire(ctx context.Context) (*models.AcquisitionResult, error) {
	close(s.called)
	return &models.AcquisitionResult{}, nil
}

type stubBulkEnhancer struct {
	called chan struct{}
}

func (s *stubBulkEnhancer) EnhanceAll(ctx context.Context) (*models.EnhancementResult, error) {
	close(s.called)
	return &models.EnhancementResult{}, nil
}

func TestPipelineHandler_StartsRunsInBackground(t *testing.T) {
	logger := arbor.NewLogger()
	acquirer := &stubAcquirer{called: make(chan struct{})}
	enhancer := &stubBulkEnhancer{called: make(chan struct{})}
	handler := NewPipelineHandler(context.Background(), status.NewService(nil, logger), acquirer, enhancer, logger)

	rec := httptest.NewRecorder()
	handler.ScrapeHandler(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	handler.EnhanceHandler(rec, httptest.NewRequest(http.MethodPost, "/api/enhance", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	for _, ch := range []chan struct{}{acquirer.called, enhancer.called} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("background run was not started")
		}
	}
}

func TestPipelineHandler_BusyReturnsConflict(t *testing.T) {
	logger := arbor.NewLogger()
	runState := status.NewService(nil, logger)
	require.True(t, runState.TryBegin(models.RunAcquiring))

	handler := NewPipelineHandler(context.Background(), runState,
		&stubAcquirer{called: make(chan struct{})}, &stubBulkEnhancer{called: make(chan struct{})}, logger)

	for _, call := range []func(http.ResponseWriter, *http.Request){handler.ScrapeHandler, handler.EnhanceHandler} {
		rec := httptest.NewRecorder()
		call(rec, httptest.NewRequest(http.MethodPost, "/api/enhance", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "busy", body.Error.Kind)
	}
}

func TestStatusHandler(t *testing.T) {
	logger := arbor.NewLogger()
	storage := newTestStorage(t)
	insertArticle(t, storage, "first", "First body.")

	runState := status.NewService(nil, logger)
	require.True(t, runState.TryBegin(models.RunEnhancing))
	runState.End(assert.AnError)

	handler := NewStatusHandler(runState, storage, nil, logger)
	rec := httptest.NewRecorder()
	handler.GetStatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, float64(1), body["articleCount"])
	assert.Equal(t, assert.AnError.Error(), body["lastError"])
	assert.NotNil(t, body["lastRun"])
	assert.NotContains(t, body, "schedule")
}

func TestStatusHandler_IncludesSchedule(t *testing.T) {
	logger := arbor.NewLogger()
	schedule, err := scheduler.NewService("0 */6 * * *", func() error { return nil }, logger)
	require.NoError(t, err)

	handler := NewStatusHandler(status.NewService(nil, logger), newTestStorage(t), schedule, logger)
	rec := httptest.NewRecorder()
	handler.GetStatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Schedule struct {
			Schedule  string `json:"schedule"`
			Enabled   bool   `json:"enabled"`
			IsRunning bool   `json:"is_running"`
		} `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "0 */6 * * *", body.Schedule.Schedule)
	assert.False(t, body.Schedule.Enabled)
	assert.False(t, body.Schedule.IsRunning)
}

func TestAPIHandler(t *testing.T) {
	handler := NewAPIHandler(arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}
