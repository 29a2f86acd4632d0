package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/shared"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Options").
		Preload("Variants").
		Preload("Images")
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.preloaded(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByReferenceNumber finds a product by its reference number
func (r *GormProductRepository) FindByReferenceNumber(ctx context.Context, referenceNumber string) (*catalog.Product, error) {
	if referenceNumber == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference number cannot be empty")
	}
	var product catalog.Product
	if err := r.preloaded(ctx).
		Where("reference_number = ?", referenceNumber).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindRegistrable returns products eligible for a creation call, oldest first
func (r *GormProductRepository) FindRegistrable(ctx context.Context, limit int) ([]*catalog.Product, error) {
	var products []*catalog.Product
	if err := r.preloaded(ctx).
		Where("control = ? AND publish_status = ?", catalog.ControlPublish, catalog.PublishStatusUnregistered).
		Order("created_at ASC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindPublished returns confirmed listings, least recently stock-synced first
func (r *GormProductRepository) FindPublished(ctx context.Context, limit int) ([]*catalog.Product, error) {
	var products []*catalog.Product
	if err := r.preloaded(ctx).
		Where("publish_status = ? AND control <> ?", catalog.PublishStatusPublished, catalog.ControlDelete).
		Order("COALESCE(stock_synced_at, '1970-01-01') ASC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save persists the aggregate. New products are inserted with their
// associations; existing ones are updated under an optimistic version check
// and their option/variant/image rows are replaced wholesale.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&catalog.Product{}).
			Where("id = ?", product.ID).
			Count(&count).Error; err != nil {
			return err
		}

		attachChildren(product)

		if count == 0 {
			return tx.Create(product).Error
		}

		loadedVersion := product.Version
		result := tx.Model(&catalog.Product{}).
			Where("id = ? AND version = ?", product.ID, loadedVersion).
			Updates(map[string]interface{}{
				"buyma_product_id":          product.BuymaProductID,
				"control":                   product.Control,
				"publish_status":            product.PublishStatus,
				"name":                      product.Name,
				"comments":                  product.Comments,
				"color_size_comments":       product.ColorSizeComments,
				"brand_id":                  product.BrandID,
				"brand_name":                product.BrandName,
				"category_id":               product.CategoryID,
				"model_number":              product.ModelNumber,
				"buying_shop_name":          product.BuyingShopName,
				"price_jpy":                 product.PriceJPY,
				"reference_price_jpy":       product.ReferencePriceJPY,
				"purchase_price_krw":        product.PurchasePriceKRW,
				"expected_shipping_fee_krw": product.ExpectedShippingFeeKRW,
				"available_until":           product.AvailableUntil,
				"registered_at":             product.RegisteredAt,
				"stock_synced_at":           product.StockSyncedAt,
				"price_synced_at":           product.PriceSyncedAt,
				"last_request_uid":          product.LastRequestUID,
				"last_error":                product.LastError,
				"last_sent_payload":         product.LastSentPayload,
				"version":                   loadedVersion + 1,
				"updated_at":                time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		product.Version = loadedVersion + 1

		if err := replaceChildren(tx, product); err != nil {
			return err
		}
		return nil
	})
}

// Delete removes a product and its associations
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		result := tx.Delete(&catalog.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// attachChildren stamps the parent ID onto all association rows
func attachChildren(product *catalog.Product) {
	for i := range product.Options {
		product.Options[i].ProductID = product.ID
	}
	for i := range product.Variants {
		product.Variants[i].ProductID = product.ID
	}
	for i := range product.Images {
		product.Images[i].ProductID = product.ID
	}
}

func deleteChildren(tx *gorm.DB, productID uuid.UUID) error {
	if err := tx.Where("product_id = ?", productID).Delete(&catalog.ProductOption{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&catalog.ProductVariant{}).Error; err != nil {
		return err
	}
	return tx.Where("product_id = ?", productID).Delete(&catalog.ProductImage{}).Error
}

func replaceChildren(tx *gorm.DB, product *catalog.Product) error {
	if err := deleteChildren(tx, product.ID); err != nil {
		return err
	}
	if len(product.Options) > 0 {
		if err := tx.Create(&product.Options).Error; err != nil {
			return err
		}
	}
	if len(product.Variants) > 0 {
		if err := tx.Create(&product.Variants).Error; err != nil {
			return err
		}
	}
	if len(product.Images) > 0 {
		if err := tx.Create(&product.Images).Error; err != nil {
			return err
		}
	}
	return nil
}
