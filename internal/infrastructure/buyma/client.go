package buyma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/domain/listing"
)

// maxResponseSize is the maximum allowed response size from the API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client is the rate-limited BUYMA personal shopper API client. Every call
// passes through the quota limiter and is recorded in the call log, whatever
// its outcome.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *QuotaLimiter
	logger     *zap.Logger
	callLogs   listing.CallLogRepository
}

// NewClient creates a client with the given configuration. The call log
// repository may be nil in tests.
func NewClient(config *ClientConfig, logger *zap.Logger, callLogs listing.CallLogRepository) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:  NewQuotaLimiter(config),
		logger:   logger,
		callLogs: callLogs,
	}, nil
}

// SeedQuota pre-fills the limiter windows from counts recovered out of the
// call log after a restart
func (c *Client) SeedQuota(hourlyUsed, dailyUsed int) {
	c.limiter.Seed(hourlyUsed, dailyUsed)
}

// QuotaUsage returns the current consumption of both quota windows
func (c *Client) QuotaUsage() (hourlyUsed, dailyUsed int) {
	return c.limiter.Usage()
}

// CreateProduct submits a creation document and returns the transient
// request UID. A nil error only means the request was accepted; the listing
// is confirmed later via webhook.
func (c *Client) CreateProduct(ctx context.Context, doc *ProductDocument) (string, error) {
	return c.submit(ctx, doc)
}

// UpdateProduct submits an update document for an existing listing. The
// endpoint is the same as creation; the marketplace ID marks it an update.
func (c *Client) UpdateProduct(ctx context.Context, doc *ProductDocument) (string, error) {
	if doc.ID == "" {
		return "", fmt.Errorf("%w: update document has no marketplace ID", ErrMissingRemoteID)
	}
	return c.submit(ctx, doc)
}

// DeleteProduct submits a deletion document for an existing listing
func (c *Client) DeleteProduct(ctx context.Context, doc *ProductDocument) (string, error) {
	if doc.Control != ControlDelete {
		return "", fmt.Errorf("buyma: document control is %q, expected %q", doc.Control, ControlDelete)
	}
	return c.submit(ctx, doc)
}

func (c *Client) submit(ctx context.Context, doc *ProductDocument) (string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(ProductRequest{Products: []ProductDocument{*doc}})
	if err != nil {
		return "", fmt.Errorf("buyma: failed to encode request: %w", err)
	}

	url := c.config.BaseURL + productsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("buyma: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.config.AccessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordCall(doc, 0, listing.CallOutcomeTransportError, "", body, nil, err.Error(), start)
		return "", fmt.Errorf("%w: %v", listing.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.recordCall(doc, resp.StatusCode, listing.CallOutcomeTransportError, "", body, nil, err.Error(), start)
		return "", fmt.Errorf("%w: failed to read response: %v", listing.ErrTransport, err)
	}

	return c.classify(doc, resp.StatusCode, body, respBody, start)
}

// classify maps the response status onto the call outcome taxonomy
func (c *Client) classify(doc *ProductDocument, status int, reqBody, body []byte, start time.Time) (string, error) {
	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		var parsed createResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			c.recordCall(doc, status, listing.CallOutcomeTransportError, "", reqBody, body, string(body), start)
			return "", fmt.Errorf("%w: malformed accepted response: %v", listing.ErrTransport, err)
		}
		c.recordCall(doc, status, listing.CallOutcomeAccepted, parsed.RequestUID, reqBody, body, "", start)
		c.logger.Info("marketplace call accepted",
			zap.String("reference_number", doc.ReferenceNumber),
			zap.String("request_uid", parsed.RequestUID),
		)
		return parsed.RequestUID, nil

	case status == http.StatusUnprocessableEntity:
		var parsed errorResponse
		_ = json.Unmarshal(body, &parsed)
		c.recordCall(doc, status, listing.CallOutcomeRejected, "", reqBody, body, string(body), start)
		c.logger.Warn("marketplace rejected document",
			zap.String("reference_number", doc.ReferenceNumber),
			zap.Int("status", status),
		)
		return "", &listing.RejectionError{Fields: parsed.Errors}

	case status == http.StatusTooManyRequests:
		c.recordCall(doc, status, listing.CallOutcomeQuotaExhausted, "", reqBody, body, string(body), start)
		c.logger.Warn("marketplace quota exhausted",
			zap.String("reference_number", doc.ReferenceNumber),
		)
		return "", listing.ErrQuotaExhausted

	default:
		c.recordCall(doc, status, listing.CallOutcomeTransportError, "", reqBody, body, string(body), start)
		return "", fmt.Errorf("%w: HTTP %d", listing.ErrTransport, status)
	}
}

// recordCall persists the call audit entry with the request and response
// bodies for every outcome. Failures to write the log are logged and
// swallowed so they never mask the call result.
func (c *Client) recordCall(doc *ProductDocument, status int, outcome listing.CallOutcome, requestUID string, requestBody, responseBody []byte, errorBody string, start time.Time) {
	if c.callLogs == nil {
		return
	}

	entry := listing.NewCallLog(productsPath, http.MethodPost, status, outcome)
	entry.ReferenceNumber = doc.ReferenceNumber
	entry.RequestUID = requestUID
	entry.RequestBody = string(requestBody)
	entry.ResponseBody = string(responseBody)
	entry.ErrorBody = errorBody
	entry.DurationMS = time.Since(start).Milliseconds()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.callLogs.Save(ctx, entry); err != nil {
		c.logger.Error("failed to record call log",
			zap.String("reference_number", doc.ReferenceNumber),
			zap.Error(err),
		)
	}
}
