package registration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/listing"
	"github.com/dorahyong/buyma/internal/domain/shared"
	"github.com/dorahyong/buyma/internal/infrastructure/logger"
)

// conflictRetries bounds re-reads when a webhook races another writer on the
// same product
const conflictRetries = 3

// WebhookService applies marketplace confirmation events to the catalog.
// Processing is idempotent: duplicate deliveries are detected by fingerprint
// and state transitions tolerate re-application.
type WebhookService struct {
	products    catalog.ProductRepository
	events      listing.WebhookEventRepository
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewWebhookService creates a webhook service
func NewWebhookService(
	products catalog.ProductRepository,
	events listing.WebhookEventRepository,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	log *zap.Logger,
) *WebhookService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookService{
		products:    products,
		events:      events,
		idempotency: idempotency,
		idemCfg:     idemCfg,
		logger:      log,
	}
}

// HandleEvent parses and applies one webhook delivery. Errors mean the body
// could not be understood; the HTTP layer still acknowledges the delivery so
// the marketplace does not retry what it cannot fix.
func (s *WebhookService) HandleEvent(ctx context.Context, eventHeader string, body []byte) (*WebhookResult, error) {
	event, err := listing.ParseWebhookEvent(eventHeader, body)
	if err != nil {
		return nil, err
	}

	ctx, log := logger.WithReferenceNumber(ctx, s.logger, event.ReferenceNumber)
	result := &WebhookResult{
		EventType:       string(event.EventType),
		ReferenceNumber: event.ReferenceNumber,
	}

	if s.idemCfg.Enabled && s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, event.Fingerprint, s.idemCfg.TTL)
		if err != nil {
			// Deduplication is an optimization; the event store and the
			// idempotent transitions stay correct without it
			log.Warn("idempotency store unavailable", zap.Error(err))
		} else if !fresh {
			log.Debug("duplicate webhook delivery ignored")
			result.Status = WebhookDuplicate
			return result, nil
		}
	}

	if err := s.events.Save(ctx, event); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			result.Status = WebhookDuplicate
			return result, nil
		}
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}

	if err := s.apply(ctx, log, event); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("webhook references unknown product",
				zap.String("event_type", string(event.EventType)))
			result.Status = WebhookUnmatched
			return result, nil
		}
		return nil, err
	}

	result.Status = WebhookApplied
	return result, nil
}

// apply performs the state transition with a bounded re-read on optimistic
// conflicts
func (s *WebhookService) apply(ctx context.Context, log *zap.Logger, event *listing.WebhookEvent) error {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		product, err := s.products.FindByReferenceNumber(ctx, event.ReferenceNumber)
		if err != nil {
			return err
		}

		if event.IsSuccess() {
			if event.BuymaProductID == "" {
				return fmt.Errorf("%s event for %s carries no product ID",
					event.EventType, event.ReferenceNumber)
			}
			if err := product.ConfirmPublished(event.BuymaProductID); err != nil {
				return err
			}
			log.Info("listing confirmed",
				zap.String("event_type", string(event.EventType)),
				zap.String("buyma_product_id", event.BuymaProductID),
			)
		} else {
			reason := event.ErrorSummary
			if reason == "" {
				reason = string(event.EventType)
			}
			product.MarkFailed(reason)
			log.Warn("listing operation failed",
				zap.String("event_type", string(event.EventType)),
				zap.String("reason", reason),
			)
		}

		err = s.products.Save(ctx, product)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		lastErr = err
		log.Debug("conflicting write, re-reading product", zap.Int("attempt", attempt+1))
	}
	return lastErr
}
