package catalog

import (
	"github.com/google/uuid"

	"github.com/dorahyong/buyma/internal/domain/shared"
)

// StockType is the availability kind reported for a variant
type StockType string

const (
	// StockTypePurchaseForOrder means the shopper buys from the source shop
	// after an order comes in; the marketplace quantity is pinned to 1.
	StockTypePurchaseForOrder StockType = "purchase_for_order"
	StockTypeOutOfStock       StockType = "out_of_stock"
)

// ProductVariant is one color/size combination with its availability
type ProductVariant struct {
	shared.BaseEntity
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ColorValue string    `gorm:"type:varchar(200)"`
	SizeValue  string    `gorm:"type:varchar(200)"`
	StockType  StockType `gorm:"type:varchar(20);not null"`
	Stocks     int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NewProductVariant creates a variant from source availability. Quantity is
// derived from the stock type, never taken from the source count.
func NewProductVariant(colorValue, sizeValue string, available bool) *ProductVariant {
	v := &ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		ColorValue: colorValue,
		SizeValue:  sizeValue,
	}
	v.SetAvailability(available)
	return v
}

// SetAvailability maps source availability onto stock type and quantity
func (v *ProductVariant) SetAvailability(available bool) {
	if available {
		v.StockType = StockTypePurchaseForOrder
		v.Stocks = 1
	} else {
		v.StockType = StockTypeOutOfStock
		v.Stocks = 0
	}
}

// IsAvailable returns true if the variant can be ordered
func (v *ProductVariant) IsAvailable() bool {
	return v.StockType == StockTypePurchaseForOrder
}
