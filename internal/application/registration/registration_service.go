package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/listing"
	"github.com/dorahyong/buyma/internal/infrastructure/logger"
)

// Config holds registration batch settings
type Config struct {
	BatchSize int
	// EnforceMargin rejects products whose sale would lose money
	EnforceMargin bool
	// HaltOnQuota stops the batch on the first 429
	HaltOnQuota bool
}

// Service runs registration batches: it selects eligible products, submits
// one creation call per product through the rate-limited marketplace port,
// and moves each product into the pending state. Calls are strictly
// sequential; confirmation arrives later via webhook.
type Service struct {
	products     catalog.ProductRepository
	marketplace  listing.Marketplace
	marginPolicy listing.MarginPolicy
	cfg          Config
	logger       *zap.Logger
}

// NewService creates a registration service
func NewService(
	products catalog.ProductRepository,
	marketplace listing.Marketplace,
	marginPolicy listing.MarginPolicy,
	cfg Config,
	log *zap.Logger,
) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		products:     products,
		marketplace:  marketplace,
		marginPolicy: marginPolicy,
		cfg:          cfg,
		logger:       log,
	}
}

// RunBatch executes one registration batch and returns its summary. The
// returned error is reserved for failures that prevented the batch from
// running at all; per-product outcomes are in the result.
func (s *Service) RunBatch(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.NewString()}
	ctx, batchLog := logger.WithBatchID(ctx, s.logger, result.BatchID)

	candidates, err := s.products.FindRegistrable(ctx, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load registrable products: %w", err)
	}
	result.Candidates = len(candidates)

	batchLog.Info("registration batch started", zap.Int("candidates", len(candidates)))

	for _, product := range candidates {
		if err := ctx.Err(); err != nil {
			result.Halted = true
			result.HaltReason = err.Error()
			break
		}

		halted := s.registerOne(ctx, product, result)
		if halted {
			result.Halted = true
			result.HaltReason = listing.ErrQuotaExhausted.Error()
			break
		}
	}

	batchLog.Info("registration batch finished",
		zap.Int("submitted", result.Submitted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Bool("halted", result.Halted),
	)
	return result, nil
}

// registerOne handles a single product and reports whether the batch must
// halt
func (s *Service) registerOne(ctx context.Context, product *catalog.Product, result *BatchResult) bool {
	ctx, log := logger.WithReferenceNumber(ctx, s.logger, product.ReferenceNumber)

	if product.AllVariantsOutOfStock() {
		// Stock may return; leave the product unregistered for a later batch
		log.Debug("skipping product with no purchasable variant")
		result.record(product.ReferenceNumber, ItemSkipped, "no purchasable variant")
		return false
	}

	if s.cfg.EnforceMargin && !s.marginPolicy.IsProfitable(
		product.PriceJPY, product.PurchasePriceKRW, product.ExpectedShippingFeeKRW) {
		reason := "selling price does not cover costs"
		log.Warn("rejecting unprofitable product")
		product.MarkFailed(reason)
		s.save(ctx, log, product)
		result.record(product.ReferenceNumber, ItemFailed, reason)
		return false
	}

	requestUID, payload, err := s.marketplace.Register(ctx, product)
	switch {
	case err == nil:
		if err := product.MarkSubmitted(requestUID, payload); err != nil {
			log.Error("could not record submission", zap.Error(err))
			result.record(product.ReferenceNumber, ItemFailed, err.Error())
			return false
		}
		s.save(ctx, log, product)
		result.record(product.ReferenceNumber, ItemSubmitted, "")
		return false

	case errors.Is(err, listing.ErrQuotaExhausted):
		// The whole account is throttled; submitting more only burns quota
		result.record(product.ReferenceNumber, ItemFailed, err.Error())
		return s.cfg.HaltOnQuota

	case listing.IsRejection(err):
		log.Warn("marketplace rejected product", zap.Error(err))
		product.MarkFailed(err.Error())
		s.save(ctx, log, product)
		result.record(product.ReferenceNumber, ItemFailed, err.Error())
		return false

	case errors.Is(err, listing.ErrTransport):
		// Transient; the product stays unregistered and is retried next batch
		log.Warn("transport error, will retry next batch", zap.Error(err))
		result.record(product.ReferenceNumber, ItemFailed, err.Error())
		return false

	default:
		// Builder errors: the product data itself cannot produce a document
		log.Warn("product cannot be submitted", zap.Error(err))
		product.MarkFailed(err.Error())
		s.save(ctx, log, product)
		result.record(product.ReferenceNumber, ItemFailed, err.Error())
		return false
	}
}

func (s *Service) save(ctx context.Context, log *zap.Logger, product *catalog.Product) {
	if err := s.products.Save(ctx, product); err != nil {
		log.Error("failed to persist product state", zap.Error(err))
	}
}
