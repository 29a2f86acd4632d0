package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dorahyong/buyma/internal/application/reconciliation"
	"github.com/dorahyong/buyma/internal/application/registration"
	"github.com/dorahyong/buyma/internal/domain/listing"
	"github.com/dorahyong/buyma/internal/infrastructure/scheduler"
	"github.com/dorahyong/buyma/internal/interfaces/http/dto"
)

// pipelineRunner triggers pipeline runs and exposes their history
type pipelineRunner interface {
	TriggerRegistration(ctx context.Context) (*registration.BatchResult, error)
	TriggerReconciliation(ctx context.Context) (*reconciliation.PassResult, error)
	RecentRuns(limit int) []*scheduler.RunRecord
}

// quotaReporter exposes the marketplace client's current quota usage
type quotaReporter interface {
	QuotaUsage() (hourlyUsed, dailyUsed int)
}

// PipelineHandler serves operator endpoints: manual batch triggers, run
// history, quota usage, and the audit trails
type PipelineHandler struct {
	BaseHandler
	runner   pipelineRunner
	quota    quotaReporter
	callLogs listing.CallLogRepository
	events   listing.WebhookEventRepository
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(
	runner pipelineRunner,
	quota quotaReporter,
	callLogs listing.CallLogRepository,
	events listing.WebhookEventRepository,
) *PipelineHandler {
	return &PipelineHandler{
		runner:   runner,
		quota:    quota,
		callLogs: callLogs,
		events:   events,
	}
}

// TriggerRegistration runs one registration batch now
func (h *PipelineHandler) TriggerRegistration(c *gin.Context) {
	result, err := h.runner.TriggerRegistration(c.Request.Context())
	if err != nil {
		h.handleRunError(c, err)
		return
	}
	h.Success(c, result)
}

// TriggerReconciliation runs one reconciliation pass now
func (h *PipelineHandler) TriggerReconciliation(c *gin.Context) {
	result, err := h.runner.TriggerReconciliation(c.Request.Context())
	if err != nil {
		h.handleRunError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *PipelineHandler) handleRunError(c *gin.Context, err error) {
	if errors.Is(err, scheduler.ErrRunInProgress) {
		h.ErrorWithCode(c, dto.ErrCodeRunInProgress, err.Error())
		return
	}
	h.Internal(c, err.Error())
}

// ListRuns returns recent loop runs, newest first
func (h *PipelineHandler) ListRuns(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.Success(c, h.runner.RecentRuns(req.LimitOrDefault(20)))
}

// QuotaResponse reports current rolling-window quota usage
type QuotaResponse struct {
	HourlyUsed int `json:"hourly_used"`
	DailyUsed  int `json:"daily_used"`
}

// GetQuota returns the marketplace client's quota usage
func (h *PipelineHandler) GetQuota(c *gin.Context) {
	hourly, daily := h.quota.QuotaUsage()
	h.Success(c, QuotaResponse{HourlyUsed: hourly, DailyUsed: daily})
}

// CallLogResponse is one API call in the audit trail
type CallLogResponse struct {
	Endpoint        string    `json:"endpoint"`
	Method          string    `json:"method"`
	StatusCode      int       `json:"status_code"`
	Outcome         string    `json:"outcome"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	RequestUID      string    `json:"request_uid,omitempty"`
	RequestBody     string    `json:"request_body,omitempty"`
	ResponseBody    string    `json:"response_body,omitempty"`
	ErrorBody       string    `json:"error_body,omitempty"`
	DurationMS      int64     `json:"duration_ms"`
	CalledAt        time.Time `json:"called_at"`
}

// ListCallLogs returns recent marketplace calls, newest first
func (h *PipelineHandler) ListCallLogs(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	logs, err := h.callLogs.FindRecent(c.Request.Context(), req.LimitOrDefault(50))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]CallLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, CallLogResponse{
			Endpoint:        l.Endpoint,
			Method:          l.Method,
			StatusCode:      l.StatusCode,
			Outcome:         string(l.Outcome),
			ReferenceNumber: l.ReferenceNumber,
			RequestUID:      l.RequestUID,
			RequestBody:     l.RequestBody,
			ResponseBody:    l.ResponseBody,
			ErrorBody:       l.ErrorBody,
			DurationMS:      l.DurationMS,
			CalledAt:        l.CalledAt,
		})
	}
	h.Success(c, responses)
}

// WebhookEventResponse is one recorded webhook delivery
type WebhookEventResponse struct {
	EventType       string    `json:"event_type"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	BuymaProductID  string    `json:"buyma_product_id,omitempty"`
	ErrorSummary    string    `json:"error_summary,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
}

// ListWebhookEvents returns recent webhook deliveries, newest first
func (h *PipelineHandler) ListWebhookEvents(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	events, err := h.events.FindRecent(c.Request.Context(), req.LimitOrDefault(50))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]WebhookEventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, WebhookEventResponse{
			EventType:       string(e.EventType),
			ReferenceNumber: e.ReferenceNumber,
			BuymaProductID:  e.BuymaProductID,
			ErrorSummary:    e.ErrorSummary,
			ReceivedAt:      e.CreatedAt,
		})
	}
	h.Success(c, responses)
}

// RegisterRoutes registers pipeline operator routes
func (h *PipelineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pipeline := rg.Group("/pipeline")
	{
		pipeline.POST("/registration/run", h.TriggerRegistration)
		pipeline.POST("/reconciliation/run", h.TriggerReconciliation)
		pipeline.GET("/runs", h.ListRuns)
		pipeline.GET("/quota", h.GetQuota)
	}
	rg.GET("/call-logs", h.ListCallLogs)
	rg.GET("/webhook-events", h.ListWebhookEvents)
}
