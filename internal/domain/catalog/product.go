package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorahyong/buyma/internal/domain/shared"
)

// ControlFlag is the lifecycle/visibility state sent to the marketplace
type ControlFlag string

const (
	ControlDraft   ControlFlag = "draft"
	ControlPublish ControlFlag = "publish"
	ControlSuspend ControlFlag = "suspend"
	ControlDelete  ControlFlag = "delete"
)

// PublishStatus tracks a product through the asynchronous creation protocol
type PublishStatus string

const (
	PublishStatusUnregistered PublishStatus = "unregistered"
	// PublishStatusPending means the creation call was accepted (201) but the
	// marketplace has not yet confirmed the listing via webhook.
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// Product is a normalized catalog product and the aggregate root for the
// registration pipeline. The reference number is the immutable correlation
// key: the creation call only returns a transient request UID, so the webhook
// confirmation is matched back to the product by reference number.
type Product struct {
	shared.BaseAggregateRoot
	ReferenceNumber string  `gorm:"type:varchar(64);not null;uniqueIndex"`
	BuymaProductID  *string `gorm:"type:varchar(32);index"`
	Control         ControlFlag   `gorm:"type:varchar(10);not null;default:'draft'"`
	PublishStatus   PublishStatus `gorm:"type:varchar(20);not null;default:'unregistered';index"`

	Name              string `gorm:"type:varchar(500);not null"`
	Comments          string `gorm:"type:text"`
	ColorSizeComments string `gorm:"type:text"`
	BrandID           *int64
	BrandName         string `gorm:"type:varchar(200)"`
	CategoryID        *int64
	ModelNumber       string `gorm:"type:varchar(100)"`
	BuyingShopName    string `gorm:"type:varchar(200)"`

	PriceJPY               decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ReferencePriceJPY      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PurchasePriceKRW       decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ExpectedShippingFeeKRW decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	AvailableUntil         *time.Time

	// Per-aspect sync audit trail
	RegisteredAt  *time.Time
	StockSyncedAt *time.Time
	PriceSyncedAt *time.Time

	// LastRequestUID is the transient identifier returned by the latest
	// accepted creation call; LastSentPayload is the exact document sent,
	// kept for audit and diffing.
	LastRequestUID  string `gorm:"type:varchar(64)"`
	LastError       string `gorm:"type:text"`
	LastSentPayload string `gorm:"type:jsonb"`

	Options  []ProductOption  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product in the unregistered state
func NewProduct(referenceNumber, name string) (*Product, error) {
	if referenceNumber == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference number cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReferenceNumber:   referenceNumber,
		Name:              name,
		Control:           ControlDraft,
		PublishStatus:     PublishStatusUnregistered,
		PriceJPY:          decimal.Zero,
		PurchasePriceKRW:  decimal.Zero,
	}, nil
}

// MarkSubmitted records an accepted creation call and moves the product to
// the pending state. The state is deliberately not published: confirmation
// only arrives asynchronously via webhook.
func (p *Product) MarkSubmitted(requestUID, sentPayload string) error {
	if p.PublishStatus == PublishStatusPending {
		return shared.NewDomainError("ALREADY_SUBMITTED", "Product already awaits webhook confirmation")
	}
	if p.PublishStatus == PublishStatusPublished {
		return shared.NewDomainError("ALREADY_PUBLISHED", "Product is already published")
	}

	now := time.Now()
	p.PublishStatus = PublishStatusPending
	p.LastRequestUID = requestUID
	p.LastSentPayload = sentPayload
	p.LastError = ""
	p.RegisteredAt = &now
	p.UpdatedAt = now

	return nil
}

// ConfirmPublished applies a creation/update success webhook. The transition
// is idempotent: re-applying the same confirmation leaves the product
// published with the same remote ID and no error. A confirmation may also
// arrive before the local pending write is durable, so any non-failed state
// is accepted.
func (p *Product) ConfirmPublished(buymaProductID string) error {
	if buymaProductID == "" {
		return shared.NewDomainError("INVALID_REMOTE_ID", "Remote product ID cannot be empty")
	}
	if p.PublishStatus == PublishStatusPublished &&
		p.BuymaProductID != nil && *p.BuymaProductID == buymaProductID {
		return nil
	}

	p.BuymaProductID = &buymaProductID
	p.PublishStatus = PublishStatusPublished
	p.LastError = ""
	p.UpdatedAt = time.Now()

	return nil
}

// MarkFailed records a terminal failure with the captured error text
func (p *Product) MarkFailed(reason string) {
	p.PublishStatus = PublishStatusFailed
	p.LastError = reason
	p.UpdatedAt = time.Now()
}

// MarkDelisted records that the listing was removed from the marketplace
// because no variant is left to sell
func (p *Product) MarkDelisted() {
	p.Control = ControlDelete
	p.UpdatedAt = time.Now()
}

// MarkStockSynced records a successful remote stock update
func (p *Product) MarkStockSynced(at time.Time) {
	p.StockSyncedAt = &at
	p.UpdatedAt = time.Now()
}

// MarkPriceSynced records a successful remote price update
func (p *Product) MarkPriceSynced(at time.Time) {
	p.PriceSyncedAt = &at
	p.UpdatedAt = time.Now()
}

// UpdatePrice sets a new selling price
func (p *Product) UpdatePrice(priceJPY decimal.Decimal) error {
	if !priceJPY.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	p.PriceJPY = priceJPY
	p.UpdatedAt = time.Now()
	return nil
}

// IsRegistrable returns true if the product is a candidate for a creation call
func (p *Product) IsRegistrable() bool {
	return p.Control == ControlPublish && p.PublishStatus == PublishStatusUnregistered
}

// IsPublished returns true if the listing is confirmed on the marketplace
func (p *Product) IsPublished() bool {
	return p.PublishStatus == PublishStatusPublished
}

// HasCategory returns true if the category resolved to a marketplace ID
func (p *Product) HasCategory() bool {
	return p.CategoryID != nil && *p.CategoryID > 0
}

// HasBrand returns true if either a brand ID or a brand name is available
func (p *Product) HasBrand() bool {
	return (p.BrandID != nil && *p.BrandID > 0) || p.BrandName != ""
}

// HasAvailableVariant returns true if at least one variant is purchasable
func (p *Product) HasAvailableVariant() bool {
	for _, v := range p.Variants {
		if v.IsAvailable() {
			return true
		}
	}
	return false
}

// AllVariantsOutOfStock reports total stockout. A listing in this state must
// not remain purchasable on the marketplace.
func (p *Product) AllVariantsOutOfStock() bool {
	for _, v := range p.Variants {
		if v.IsAvailable() {
			return false
		}
	}
	return true
}
