package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/application/registration"
)

// eventHeader carries the marketplace's event type on webhook deliveries
const eventHeader = "X-Buyma-Event"

// maxWebhookBody bounds webhook payload size (1MB)
const maxWebhookBody = 1 << 20

// webhookProcessor applies one webhook delivery
type webhookProcessor interface {
	HandleEvent(ctx context.Context, eventHeader string, body []byte) (*registration.WebhookResult, error)
}

// WebhookHandler receives marketplace confirmation callbacks. The endpoint
// is called by the marketplace and carries no authentication beyond the
// obscurity of its path; it must always acknowledge with 200, because the
// marketplace cannot fix a delivery we failed to understand and would only
// retry it.
type WebhookHandler struct {
	BaseHandler
	service webhookProcessor
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service webhookProcessor, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{service: service, logger: logger}
}

// WebhookAck is the acknowledgement body returned for every delivery
type WebhookAck struct {
	Received        bool   `json:"received"`
	Status          string `json:"status,omitempty"`
	EventType       string `json:"event_type,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`
}

// HandleBuymaWebhook processes one marketplace event delivery
func (h *WebhookHandler) HandleBuymaWebhook(c *gin.Context) {
	event := c.GetHeader(eventHeader)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusOK, WebhookAck{Received: true})
		return
	}

	result, err := h.service.HandleEvent(c.Request.Context(), event, body)
	if err != nil {
		h.logger.Error("webhook could not be applied",
			zap.String("event", event),
			zap.String("request_id", getRequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, WebhookAck{Received: true})
		return
	}

	c.JSON(http.StatusOK, WebhookAck{
		Received:        true,
		Status:          string(result.Status),
		EventType:       result.EventType,
		ReferenceNumber: result.ReferenceNumber,
	})
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhook", h.HandleBuymaWebhook)
}
