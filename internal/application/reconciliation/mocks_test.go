package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/sourcing"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByReferenceNumber(ctx context.Context, referenceNumber string) (*catalog.Product, error) {
	args := m.Called(ctx, referenceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindRegistrable(ctx context.Context, limit int) ([]*catalog.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindPublished(ctx context.Context, limit int) ([]*catalog.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMarketplace is a mock implementation of listing.Marketplace
type MockMarketplace struct {
	mock.Mock
}

func (m *MockMarketplace) Register(ctx context.Context, product *catalog.Product) (string, string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockMarketplace) Update(ctx context.Context, product *catalog.Product) (string, string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockMarketplace) Delete(ctx context.Context, product *catalog.Product) (string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.Error(1)
}

func (m *MockMarketplace) QuotaUsage() (int, int) {
	args := m.Called()
	return args.Int(0), args.Int(1)
}

// MockInventoryProvider is a mock implementation of sourcing.InventoryProvider
type MockInventoryProvider struct {
	mock.Mock
}

func (m *MockInventoryProvider) FetchAvailability(ctx context.Context, buyingShopName, modelNumber string) ([]sourcing.VariantAvailability, error) {
	args := m.Called(ctx, buyingShopName, modelNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sourcing.VariantAvailability), args.Error(1)
}

// MockPriceProvider is a mock implementation of sourcing.PriceProvider
type MockPriceProvider struct {
	mock.Mock
}

func (m *MockPriceProvider) FetchPrice(ctx context.Context, buyingShopName, modelNumber string) (*sourcing.PriceObservation, error) {
	args := m.Called(ctx, buyingShopName, modelNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sourcing.PriceObservation), args.Error(1)
}
