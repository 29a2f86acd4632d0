package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/listing"
	"github.com/dorahyong/buyma/internal/domain/sourcing"
	"github.com/dorahyong/buyma/internal/infrastructure/logger"
)

// Config holds reconciliation pass settings
type Config struct {
	BatchSize int
	// DeleteOnStockout removes the listing once every variant is gone
	DeleteOnStockout bool
	// PriceSyncEnabled turns on the cost re-read and repricing phase
	PriceSyncEnabled bool
}

// Service keeps published listings aligned with the buying source. Each pass
// re-reads variant availability for a batch of listings and pushes stock
// updates through the rate-limited marketplace port, then re-reads purchase
// costs and raises selling prices that no longer clear the margin policy.
// Stock updates always go out before price-only updates: a stale price loses
// money on one sale, a stale stockout sells inventory that does not exist.
type Service struct {
	products     catalog.ProductRepository
	marketplace  listing.Marketplace
	inventory    sourcing.InventoryProvider
	prices       sourcing.PriceProvider
	marginPolicy listing.MarginPolicy
	cfg          Config
	logger       *zap.Logger
	nowFn        func() time.Time
}

// NewService creates a reconciliation service. The price provider may be nil
// when price sync is disabled.
func NewService(
	products catalog.ProductRepository,
	marketplace listing.Marketplace,
	inventory sourcing.InventoryProvider,
	prices sourcing.PriceProvider,
	marginPolicy listing.MarginPolicy,
	cfg Config,
	log *zap.Logger,
) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		products:     products,
		marketplace:  marketplace,
		inventory:    inventory,
		prices:       prices,
		marginPolicy: marginPolicy,
		cfg:          cfg,
		logger:       log,
		nowFn:        time.Now,
	}
}

// stockCheck pairs a listing with the source's fresh availability
type stockCheck struct {
	product *catalog.Product
	fresh   []sourcing.VariantAvailability
	changed bool
	// dropped is true when a previously purchasable variant went out of stock
	dropped bool
}

// RunPass executes one reconciliation pass. The returned error is reserved
// for failures that prevented the pass from running at all.
func (s *Service) RunPass(ctx context.Context) (*PassResult, error) {
	result := &PassResult{PassID: uuid.NewString()}
	ctx, passLog := logger.WithBatchID(ctx, s.logger, result.PassID)

	products, err := s.products.FindPublished(ctx, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load published products: %w", err)
	}
	result.Scanned = len(products)
	passLog.Info("reconciliation pass started", zap.Int("scanned", len(products)))

	checks, survivors := s.checkStock(ctx, products, result)

	// Listings that just lost a variant go first so an exhausted size is
	// never purchasable longer than it has to be
	ordered := make([]*stockCheck, 0, len(checks))
	for _, c := range checks {
		if c.dropped {
			ordered = append(ordered, c)
		}
	}
	for _, c := range checks {
		if !c.dropped {
			ordered = append(ordered, c)
		}
	}

	halted := false
	for _, check := range ordered {
		if err := ctx.Err(); err != nil {
			halted = true
			result.HaltReason = err.Error()
			break
		}
		if s.syncStock(ctx, check, result) {
			halted = true
			result.HaltReason = listing.ErrQuotaExhausted.Error()
			break
		}
	}

	if !halted && s.cfg.PriceSyncEnabled && s.prices != nil {
		for _, product := range survivors {
			if err := ctx.Err(); err != nil {
				halted = true
				result.HaltReason = err.Error()
				break
			}
			if s.syncPrice(ctx, product, result) {
				halted = true
				result.HaltReason = listing.ErrQuotaExhausted.Error()
				break
			}
		}
	}

	result.Halted = halted
	passLog.Info("reconciliation pass finished",
		zap.Int("stock_updated", result.StockUpdated),
		zap.Int("price_updated", result.PriceUpdated),
		zap.Int("deleted", result.Deleted),
		zap.Int("failed", result.Failed),
		zap.Bool("halted", halted),
	)
	return result, nil
}

// checkStock reads fresh availability for every listing. Survivors are the
// listings that will still exist after the stock phase and are therefore
// candidates for price sync.
func (s *Service) checkStock(
	ctx context.Context,
	products []*catalog.Product,
	result *PassResult,
) ([]*stockCheck, []*catalog.Product) {
	checks := make([]*stockCheck, 0, len(products))
	survivors := make([]*catalog.Product, 0, len(products))

	for _, product := range products {
		_, log := logger.WithReferenceNumber(ctx, s.logger, product.ReferenceNumber)

		fresh, err := s.inventory.FetchAvailability(ctx, product.BuyingShopName, product.ModelNumber)
		if err != nil {
			log.Warn("source availability lookup failed", zap.Error(err))
			result.record(product.ReferenceNumber, ActionFailed, err.Error())
			continue
		}

		check := &stockCheck{product: product, fresh: fresh}
		check.changed, check.dropped = diffAvailability(product, fresh)
		checks = append(checks, check)

		if !(check.changed && willDelete(product, fresh) && s.cfg.DeleteOnStockout) {
			survivors = append(survivors, product)
		}
	}
	return checks, survivors
}

// diffAvailability compares stored variants against the source's view
func diffAvailability(product *catalog.Product, fresh []sourcing.VariantAvailability) (changed, dropped bool) {
	available := make(map[string]bool, len(fresh))
	for _, f := range fresh {
		available[f.ColorValue+"\x00"+f.SizeValue] = f.Available
	}
	for i := range product.Variants {
		v := &product.Variants[i]
		now := available[v.ColorValue+"\x00"+v.SizeValue]
		if now != v.IsAvailable() {
			changed = true
			if !now {
				dropped = true
			}
		}
	}
	return changed, dropped
}

// willDelete reports whether applying the fresh availability leaves nothing
// purchasable
func willDelete(product *catalog.Product, fresh []sourcing.VariantAvailability) bool {
	available := make(map[string]bool, len(fresh))
	for _, f := range fresh {
		available[f.ColorValue+"\x00"+f.SizeValue] = f.Available
	}
	for i := range product.Variants {
		v := &product.Variants[i]
		if available[v.ColorValue+"\x00"+v.SizeValue] {
			return false
		}
	}
	return true
}

// syncStock pushes one listing's stock state and reports whether the pass
// must halt
func (s *Service) syncStock(ctx context.Context, check *stockCheck, result *PassResult) bool {
	product := check.product
	ctx, log := logger.WithReferenceNumber(ctx, s.logger, product.ReferenceNumber)

	if !check.changed {
		product.MarkStockSynced(s.nowFn())
		s.save(ctx, log, product)
		result.record(product.ReferenceNumber, ActionUnchanged, "")
		return false
	}

	applyAvailability(product, check.fresh)

	if product.AllVariantsOutOfStock() && s.cfg.DeleteOnStockout {
		if _, err := s.marketplace.Delete(ctx, product); err != nil {
			return s.recordRemoteFailure(log, product, result, "delete", err)
		}
		product.MarkDelisted()
		product.MarkStockSynced(s.nowFn())
		s.save(ctx, log, product)
		log.Info("listing removed, no purchasable variant left")
		result.record(product.ReferenceNumber, ActionDeleted, "all variants out of stock")
		return false
	}

	if _, _, err := s.marketplace.Update(ctx, product); err != nil {
		return s.recordRemoteFailure(log, product, result, "stock update", err)
	}
	product.MarkStockSynced(s.nowFn())
	s.save(ctx, log, product)
	log.Info("stock state pushed")
	result.record(product.ReferenceNumber, ActionStockUpdated, "")
	return false
}

// syncPrice re-reads the purchase cost and raises the selling price when the
// current one no longer clears the margin policy
func (s *Service) syncPrice(ctx context.Context, product *catalog.Product, result *PassResult) bool {
	ctx, log := logger.WithReferenceNumber(ctx, s.logger, product.ReferenceNumber)

	observation, err := s.prices.FetchPrice(ctx, product.BuyingShopName, product.ModelNumber)
	if err != nil {
		log.Warn("source price lookup failed", zap.Error(err))
		result.record(product.ReferenceNumber, ActionFailed, err.Error())
		return false
	}

	product.PurchasePriceKRW = observation.PurchasePriceKRW
	if observation.ShippingFeeKRW.IsPositive() {
		product.ExpectedShippingFeeKRW = observation.ShippingFeeKRW
	}

	if s.marginPolicy.IsProfitable(product.PriceJPY, product.PurchasePriceKRW, product.ExpectedShippingFeeKRW) {
		product.MarkPriceSynced(s.nowFn())
		s.save(ctx, log, product)
		return false
	}

	minimum := s.marginPolicy.MinimumPriceJPY(product.PurchasePriceKRW, product.ExpectedShippingFeeKRW)
	oldPrice := product.PriceJPY
	if err := product.UpdatePrice(minimum); err != nil {
		result.record(product.ReferenceNumber, ActionFailed, err.Error())
		return false
	}

	if _, _, err := s.marketplace.Update(ctx, product); err != nil {
		// Keep the stale price locally so the next pass recomputes from the
		// marketplace's actual state
		product.PriceJPY = oldPrice
		return s.recordRemoteFailure(log, product, result, "price update", err)
	}
	product.MarkPriceSynced(s.nowFn())
	s.save(ctx, log, product)
	log.Info("selling price raised to cover cost",
		zap.String("old_price_jpy", oldPrice.String()),
		zap.String("new_price_jpy", minimum.String()),
	)
	result.record(product.ReferenceNumber, ActionPriceUpdated, "")
	return false
}

// applyAvailability writes the source's view onto the stored variants. A
// variant the source no longer reports is out of stock.
func applyAvailability(product *catalog.Product, fresh []sourcing.VariantAvailability) {
	available := make(map[string]bool, len(fresh))
	for _, f := range fresh {
		available[f.ColorValue+"\x00"+f.SizeValue] = f.Available
	}
	for i := range product.Variants {
		v := &product.Variants[i]
		v.SetAvailability(available[v.ColorValue+"\x00"+v.SizeValue])
	}
}

// recordRemoteFailure classifies a marketplace error and reports whether the
// pass must halt
func (s *Service) recordRemoteFailure(
	log *zap.Logger,
	product *catalog.Product,
	result *PassResult,
	operation string,
	err error,
) bool {
	if errors.Is(err, listing.ErrQuotaExhausted) {
		result.record(product.ReferenceNumber, ActionFailed, err.Error())
		return true
	}
	// Left for the next pass, including rejections: the listing still exists
	log.Warn("remote call failed, retrying next pass",
		zap.String("operation", operation), zap.Error(err))
	result.record(product.ReferenceNumber, ActionFailed, err.Error())
	return false
}

func (s *Service) save(ctx context.Context, log *zap.Logger, product *catalog.Product) {
	if err := s.products.Save(ctx, product); err != nil {
		log.Error("failed to persist product state", zap.Error(err))
	}
}
