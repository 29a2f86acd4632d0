package sourcing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// VariantAvailability is the current purchasability of one color/size
// combination at the buying source
type VariantAvailability struct {
	ColorValue string
	SizeValue  string
	Available  bool
}

// InventoryProvider reports fresh variant availability from the buying
// source. Implementations key the lookup by the product's buying shop and
// model number.
type InventoryProvider interface {
	// FetchAvailability returns the source's view of every variant. A variant
	// absent from the result is treated as no longer purchasable.
	FetchAvailability(ctx context.Context, buyingShopName, modelNumber string) ([]VariantAvailability, error)
}

// PriceObservation is a fresh cost reading from the buying source
type PriceObservation struct {
	PurchasePriceKRW decimal.Decimal
	ShippingFeeKRW   decimal.Decimal
	ObservedAt       time.Time
}

// PriceProvider reports the current purchase cost from the buying source
type PriceProvider interface {
	FetchPrice(ctx context.Context, buyingShopName, modelNumber string) (*PriceObservation, error)
}
