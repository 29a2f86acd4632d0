package registration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/listing"
)

func registrableProduct(t *testing.T, ref string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(ref, "Wool Coat")
	require.NoError(t, err)
	product.Control = catalog.ControlPublish
	product.PriceJPY = decimal.NewFromInt(25000)
	product.PurchasePriceKRW = decimal.NewFromInt(110000)
	product.ExpectedShippingFeeKRW = decimal.NewFromInt(15000)
	product.Variants = []catalog.ProductVariant{
		*catalog.NewProductVariant("Black", "M", true),
	}
	return product
}

func newTestService(products *MockProductRepository, marketplace *MockMarketplace, cfg Config) *Service {
	return NewService(products, marketplace, listing.DefaultMarginPolicy(), cfg, nil)
}

func TestService_RunBatch_SubmitsEligibleProduct(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10})

	product := registrableProduct(t, "KR-1001")
	products.On("FindRegistrable", mock.Anything, 10).Return([]*catalog.Product{product}, nil)
	marketplace.On("Register", mock.Anything, product).Return("req-abc", `{"products":[]}`, nil)
	products.On("Save", mock.Anything, product).Return(nil)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.Submitted)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.Halted)
	assert.Equal(t, catalog.PublishStatusPending, product.PublishStatus)
	assert.Equal(t, "req-abc", product.LastRequestUID)
	products.AssertExpectations(t)
	marketplace.AssertExpectations(t)
}

func TestService_RunBatch_SkipsProductWithoutStock(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10})

	product := registrableProduct(t, "KR-1002")
	product.Variants = []catalog.ProductVariant{
		*catalog.NewProductVariant("Black", "M", false),
	}
	products.On("FindRegistrable", mock.Anything, 10).Return([]*catalog.Product{product}, nil)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Submitted)
	// The product waits for restock; it must not be marked failed
	assert.Equal(t, catalog.PublishStatusUnregistered, product.PublishStatus)
	marketplace.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_RunBatch_EnforcesMargin(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10, EnforceMargin: true})

	product := registrableProduct(t, "KR-1003")
	// 1000 JPY cannot cover a 110000 KRW purchase
	product.PriceJPY = decimal.NewFromInt(1000)
	products.On("FindRegistrable", mock.Anything, 10).Return([]*catalog.Product{product}, nil)
	products.On("Save", mock.Anything, product).Return(nil)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, catalog.PublishStatusFailed, product.PublishStatus)
	marketplace.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	products.AssertExpectations(t)
}

func TestService_RunBatch_ProfitableProductPassesMarginCheck(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10, EnforceMargin: true})

	product := registrableProduct(t, "KR-1004")
	products.On("FindRegistrable", mock.Anything, 10).Return([]*catalog.Product{product}, nil)
	marketplace.On("Register", mock.Anything, product).Return("req-ok", "{}", nil)
	products.On("Save", mock.Anything, product).Return(nil)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Submitted)
	marketplace.AssertExpectations(t)
}

func TestService_RunBatch_HaltsOnQuotaExhaustion(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10, HaltOnQuota: true})

	first := registrableProduct(t, "KR-2001")
	second := registrableProduct(t, "KR-2002")
	products.On("FindRegistrable", mock.Anything, 10).
		Return([]*catalog.Product{first, second}, nil)
	marketplace.On("Register", mock.Anything, first).Return("", "", listing.ErrQuotaExhausted)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Halted)
	assert.Equal(t, listing.ErrQuotaExhausted.Error(), result.HaltReason)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Items, 1)
	// The throttled product keeps its state for the next batch
	assert.Equal(t, catalog.PublishStatusUnregistered, first.PublishStatus)
	marketplace.AssertNotCalled(t, "Register", mock.Anything, second)
	products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_RunBatch_ContinuesPastQuotaWhenConfigured(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10, HaltOnQuota: false})

	first := registrableProduct(t, "KR-2003")
	second := registrableProduct(t, "KR-2004")
	products.On("FindRegistrable", mock.Anything, 10).
		Return([]*catalog.Product{first, second}, nil)
	marketplace.On("Register", mock.Anything, first).Return("", "", listing.ErrQuotaExhausted)
	marketplace.On("Register", mock.Anything, second).Return("req-2", "{}", nil)
	products.On("Save", mock.Anything, second).Return(nil)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Halted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Submitted)
	marketplace.AssertExpectations(t)
}

func TestService_RunBatch_RejectionMarksFailed(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10})

	product := registrableProduct(t, "KR-3001")
	rejection := &listing.RejectionError{Fields: map[string][]string{
		"brand": {"not found"},
	}}
	products.On("FindRegistrable", mock.Anything, 10).Return([]*catalog.Product{product}, nil)
	marketplace.On("Register", mock.Anything, product).Return("", "", rejection)
	products.On("Save", mock.Anything, product).Return(nil)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, catalog.PublishStatusFailed, product.PublishStatus)
	assert.Contains(t, product.LastError, "brand")
	products.AssertExpectations(t)
}

func TestService_RunBatch_TransportErrorLeavesProductUnregistered(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10})

	product := registrableProduct(t, "KR-3002")
	products.On("FindRegistrable", mock.Anything, 10).Return([]*catalog.Product{product}, nil)
	marketplace.On("Register", mock.Anything, product).Return("", "", listing.ErrTransport)

	result, err := service.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, catalog.PublishStatusUnregistered, product.PublishStatus)
	products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_RunBatch_CancelledContextHaltsBatch(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10})

	product := registrableProduct(t, "KR-3003")
	products.On("FindRegistrable", mock.Anything, 10).Return([]*catalog.Product{product}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := service.RunBatch(ctx)

	require.NoError(t, err)
	assert.True(t, result.Halted)
	assert.Equal(t, 0, result.Submitted)
	marketplace.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestService_RunBatch_RepositoryFailure(t *testing.T) {
	products := new(MockProductRepository)
	marketplace := new(MockMarketplace)
	service := newTestService(products, marketplace, Config{BatchSize: 10})

	products.On("FindRegistrable", mock.Anything, 10).
		Return(nil, assert.AnError)

	result, err := service.RunBatch(context.Background())

	assert.Error(t, err)
	assert.Nil(t, result)
}
