package listing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dorahyong/buyma/internal/domain/shared"
)

// EventType is the marketplace notification kind, taken from the
// X-Buyma-Event request header.
type EventType string

const (
	EventProductCreate       EventType = "product/create"
	EventProductUpdate       EventType = "product/update"
	EventProductFailToCreate EventType = "product/fail_to_create"
	EventProductFailToUpdate EventType = "product/fail_to_update"
)

// WebhookEvent is a parsed marketplace notification persisted for audit
type WebhookEvent struct {
	shared.BaseEntity
	EventType       EventType `gorm:"type:varchar(40);not null;index"`
	ReferenceNumber string    `gorm:"type:varchar(64);not null;index"`
	BuymaProductID  string    `gorm:"type:varchar(32)"`
	ErrorSummary    string    `gorm:"type:text"`
	RawBody         string    `gorm:"type:text"`
	Fingerprint     string    `gorm:"type:varchar(64);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// IsSuccess reports whether the event confirms a listing
func (e *WebhookEvent) IsSuccess() bool {
	return e.EventType == EventProductCreate || e.EventType == EventProductUpdate
}

// IsFailure reports whether the event reports a failed operation
func (e *WebhookEvent) IsFailure() bool {
	return e.EventType == EventProductFailToCreate || e.EventType == EventProductFailToUpdate
}

// WebhookEventRepository defines persistence for the webhook audit trail.
// Save returns shared.ErrAlreadyExists when an event with the same
// fingerprint was already recorded.
type WebhookEventRepository interface {
	Save(ctx context.Context, event *WebhookEvent) error
	FindByReferenceNumber(ctx context.Context, referenceNumber string) ([]*WebhookEvent, error)
	FindRecent(ctx context.Context, limit int) ([]*WebhookEvent, error)
}

// webhookBody mirrors the notification document. Failure events carry the
// reference number and errors at the top level; success events nest both
// the reference number and the new listing ID under "product".
type webhookBody struct {
	ReferenceNumber string              `json:"reference_number"`
	Errors          map[string][]string `json:"errors"`
	Product         struct {
		ID              json.Number `json:"id"`
		ReferenceNumber string      `json:"reference_number"`
	} `json:"product"`
}

// ParseWebhookEvent builds a WebhookEvent from the event header and raw body.
// The reference number is taken from the top level first, then from the
// nested product; a body with neither is ErrAmbiguousWebhook.
func ParseWebhookEvent(eventHeader string, body []byte) (*WebhookEvent, error) {
	eventType := EventType(eventHeader)
	switch eventType {
	case EventProductCreate, EventProductUpdate, EventProductFailToCreate, EventProductFailToUpdate:
	default:
		return nil, fmt.Errorf("unknown event type %q", eventHeader)
	}

	var parsed webhookBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}

	ref := parsed.ReferenceNumber
	if ref == "" {
		ref = parsed.Product.ReferenceNumber
	}
	if ref == "" {
		return nil, ErrAmbiguousWebhook
	}

	sum := sha256.Sum256(append([]byte(eventHeader+"\n"), body...))

	return &WebhookEvent{
		BaseEntity:      shared.NewBaseEntity(),
		EventType:       eventType,
		ReferenceNumber: ref,
		BuymaProductID:  parsed.Product.ID.String(),
		ErrorSummary:    summarizeErrors(parsed.Errors),
		RawBody:         string(body),
		Fingerprint:     hex.EncodeToString(sum[:]),
	}, nil
}

func summarizeErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	re := &RejectionError{Fields: fields}
	return strings.TrimPrefix(re.Error(), "marketplace rejected the request: ")
}
