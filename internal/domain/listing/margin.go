package listing

import (
	"github.com/shopspring/decimal"
)

// MarginPolicy holds the cost model used to gate registration and price
// updates. All amounts are KRW unless named otherwise.
type MarginPolicy struct {
	// ExchangeRateKRWPerJPY converts the selling price into KRW
	ExchangeRateKRWPerJPY decimal.Decimal
	// SalesFeeRate is the marketplace commission taken from the sale
	SalesFeeRate decimal.Decimal
	// DefaultShippingFeeKRW is applied when a product has no shipping
	// estimate of its own
	DefaultShippingFeeKRW decimal.Decimal
	// VATRefundDivisor derives the reclaimable VAT from the purchase price
	VATRefundDivisor decimal.Decimal
}

// DefaultMarginPolicy returns the operating cost model
func DefaultMarginPolicy() MarginPolicy {
	return MarginPolicy{
		ExchangeRateKRWPerJPY: decimal.NewFromFloat(9.2),
		SalesFeeRate:          decimal.NewFromFloat(0.055),
		DefaultShippingFeeKRW: decimal.NewFromInt(15000),
		VATRefundDivisor:      decimal.NewFromInt(11),
	}
}

// Profit computes the expected profit in KRW for selling at priceJPY a
// product bought for purchaseKRW with the given shipping estimate. A zero
// shipping estimate falls back to the policy default.
func (m MarginPolicy) Profit(priceJPY, purchaseKRW, shippingKRW decimal.Decimal) decimal.Decimal {
	if shippingKRW.IsZero() {
		shippingKRW = m.DefaultShippingFeeKRW
	}

	revenue := priceJPY.Mul(m.ExchangeRateKRWPerJPY).
		Mul(decimal.NewFromInt(1).Sub(m.SalesFeeRate))
	vatRefund := purchaseKRW.Div(m.VATRefundDivisor)
	cost := purchaseKRW.Add(shippingKRW).Sub(vatRefund)

	return revenue.Sub(cost)
}

// IsProfitable reports whether the sale clears a positive margin
func (m MarginPolicy) IsProfitable(priceJPY, purchaseKRW, shippingKRW decimal.Decimal) bool {
	return m.Profit(priceJPY, purchaseKRW, shippingKRW).IsPositive()
}

// MinimumPriceJPY returns the lowest selling price that still breaks even,
// rounded up to the next 100 JPY so repriced listings look like retail
// prices.
func (m MarginPolicy) MinimumPriceJPY(purchaseKRW, shippingKRW decimal.Decimal) decimal.Decimal {
	if shippingKRW.IsZero() {
		shippingKRW = m.DefaultShippingFeeKRW
	}

	vatRefund := purchaseKRW.Div(m.VATRefundDivisor)
	cost := purchaseKRW.Add(shippingKRW).Sub(vatRefund)
	netRate := m.ExchangeRateKRWPerJPY.Mul(decimal.NewFromInt(1).Sub(m.SalesFeeRate))

	breakeven := cost.Div(netRate)
	hundred := decimal.NewFromInt(100)
	return breakeven.Div(hundred).Ceil().Mul(hundred)
}
