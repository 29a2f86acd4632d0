package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dorahyong/buyma/internal/application/reconciliation"
	"github.com/dorahyong/buyma/internal/application/registration"
	"github.com/dorahyong/buyma/internal/domain/listing"
	"github.com/dorahyong/buyma/internal/infrastructure/scheduler"
	httpdto "github.com/dorahyong/buyma/internal/interfaces/http/dto"
)

type stubPipelineRunner struct {
	batch   *registration.BatchResult
	pass    *reconciliation.PassResult
	history []*scheduler.RunRecord
	err     error
}

func (s *stubPipelineRunner) TriggerRegistration(ctx context.Context) (*registration.BatchResult, error) {
	return s.batch, s.err
}

func (s *stubPipelineRunner) TriggerReconciliation(ctx context.Context) (*reconciliation.PassResult, error) {
	return s.pass, s.err
}

func (s *stubPipelineRunner) RecentRuns(limit int) []*scheduler.RunRecord {
	if limit > len(s.history) {
		limit = len(s.history)
	}
	return s.history[:limit]
}

type stubQuotaReporter struct {
	hourly, daily int
}

func (s *stubQuotaReporter) QuotaUsage() (int, int) {
	return s.hourly, s.daily
}

// MockCallLogRepository is a mock implementation of listing.CallLogRepository
type MockCallLogRepository struct {
	mock.Mock
}

func (m *MockCallLogRepository) Save(ctx context.Context, log *listing.CallLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockCallLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCallLogRepository) CountEndpointSince(ctx context.Context, endpoint string, since time.Time) (int64, error) {
	args := m.Called(ctx, endpoint, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCallLogRepository) FindRecent(ctx context.Context, limit int) ([]*listing.CallLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.CallLog), args.Error(1)
}

// MockWebhookEventRepository is a mock implementation of listing.WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) Save(ctx context.Context, event *listing.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) FindByReferenceNumber(ctx context.Context, referenceNumber string) ([]*listing.WebhookEvent, error) {
	args := m.Called(ctx, referenceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) FindRecent(ctx context.Context, limit int) ([]*listing.WebhookEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.WebhookEvent), args.Error(1)
}

func newPipelineRouter(runner pipelineRunner, quota quotaReporter, callLogs *MockCallLogRepository, events *MockWebhookEventRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewPipelineHandler(runner, quota, callLogs, events).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestPipelineHandler_TriggerRegistration(t *testing.T) {
	runner := &stubPipelineRunner{
		batch: &registration.BatchResult{BatchID: "b1", Submitted: 3},
	}
	router := newPipelineRouter(runner, &stubQuotaReporter{}, new(MockCallLogRepository), new(MockWebhookEventRepository))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/registration/run", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp httpdto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "b1", data["batch_id"])
	assert.Equal(t, float64(3), data["submitted"])
}

func TestPipelineHandler_TriggerRejectsOverlap(t *testing.T) {
	runner := &stubPipelineRunner{err: scheduler.ErrRunInProgress}
	router := newPipelineRouter(runner, &stubQuotaReporter{}, new(MockCallLogRepository), new(MockWebhookEventRepository))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/reconciliation/run", nil))

	require.Equal(t, http.StatusConflict, w.Code)
	var resp httpdto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, httpdto.ErrCodeRunInProgress, resp.Error.Code)
}

func TestPipelineHandler_GetQuota(t *testing.T) {
	router := newPipelineRouter(&stubPipelineRunner{}, &stubQuotaReporter{hourly: 120, daily: 800},
		new(MockCallLogRepository), new(MockWebhookEventRepository))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/pipeline/quota", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp httpdto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(120), data["hourly_used"])
	assert.Equal(t, float64(800), data["daily_used"])
}

func TestPipelineHandler_ListRuns(t *testing.T) {
	runner := &stubPipelineRunner{history: []*scheduler.RunRecord{
		{Loop: scheduler.LoopRegistration},
		{Loop: scheduler.LoopReconciliation},
	}}
	router := newPipelineRouter(runner, &stubQuotaReporter{}, new(MockCallLogRepository), new(MockWebhookEventRepository))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/pipeline/runs?limit=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp httpdto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}

func TestPipelineHandler_ListCallLogs(t *testing.T) {
	callLogs := new(MockCallLogRepository)
	callLogs.On("FindRecent", mock.Anything, 50).Return([]*listing.CallLog{
		listing.NewCallLog("/api/v1/products.json", http.MethodPost, 201, listing.CallOutcomeAccepted),
	}, nil)
	router := newPipelineRouter(&stubPipelineRunner{}, &stubQuotaReporter{}, callLogs, new(MockWebhookEventRepository))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/call-logs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp httpdto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	entry := resp.Data.([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "accepted", entry["outcome"])
	callLogs.AssertExpectations(t)
}

func TestPipelineHandler_ListWebhookEvents(t *testing.T) {
	events := new(MockWebhookEventRepository)
	event, err := listing.ParseWebhookEvent("product/create",
		[]byte(`{"product":{"id":987654,"reference_number":"KR-1001"}}`))
	require.NoError(t, err)
	events.On("FindRecent", mock.Anything, 50).Return([]*listing.WebhookEvent{event}, nil)
	router := newPipelineRouter(&stubPipelineRunner{}, &stubQuotaReporter{}, new(MockCallLogRepository), events)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/webhook-events", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp httpdto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	entry := resp.Data.([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "product/create", entry["event_type"])
	assert.Equal(t, "KR-1001", entry["reference_number"])
}
