package registration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/listing"
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

// MockWebhookEventRepository is a mock implementation of listing.WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) Save(ctx context.Context, event *listing.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) FindByReferenceNumber(ctx context.Context, referenceNumber string) ([]*listing.WebhookEvent, error) {
	args := m.Called(ctx, referenceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) FindRecent(ctx context.Context, limit int) ([]*listing.WebhookEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.WebhookEvent), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, fingerprint, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	args := m.Called(ctx, fingerprint)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
