package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/shared"
)

// setupProductTestDB creates an in-memory SQLite database for testing
func setupProductTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Product{},
		&catalog.ProductOption{},
		&catalog.ProductVariant{},
		&catalog.ProductImage{},
	)
	require.NoError(t, err)
	return db
}

func newTestProduct(t *testing.T, ref string) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(ref, "Leather Tote Bag")
	require.NoError(t, err)

	categoryID := int64(3280)
	p.CategoryID = &categoryID
	p.PriceJPY = decimal.NewFromInt(24800)

	opt, err := catalog.NewProductOption(catalog.OptionTypeColor, "Black", 1)
	require.NoError(t, err)
	p.Options = []catalog.ProductOption{*opt}
	p.Variants = []catalog.ProductVariant{*catalog.NewProductVariant("Black", "M", true)}

	img, err := catalog.NewProductImage("https://cdn.example.com/a.jpg", 1)
	require.NoError(t, err)
	p.Images = []catalog.ProductImage{*img}
	return p
}

func TestGormProductRepository_SaveAndFind(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("round trips a new product with associations", func(t *testing.T) {
		p := newTestProduct(t, "okmall-11111")
		require.NoError(t, repo.Save(ctx, p))

		loaded, err := repo.FindByReferenceNumber(ctx, "okmall-11111")
		require.NoError(t, err)

		assert.Equal(t, p.ID, loaded.ID)
		assert.Equal(t, catalog.PublishStatusUnregistered, loaded.PublishStatus)
		assert.True(t, loaded.PriceJPY.Equal(decimal.NewFromInt(24800)))
		require.Len(t, loaded.Options, 1)
		assert.Equal(t, "Black", loaded.Options[0].Value)
		require.Len(t, loaded.Variants, 1)
		assert.Equal(t, catalog.StockTypePurchaseForOrder, loaded.Variants[0].StockType)
		require.Len(t, loaded.Images, 1)
	})

	t.Run("returns ErrNotFound for missing ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns ErrNotFound for missing reference", func(t *testing.T) {
		_, err := repo.FindByReferenceNumber(ctx, "no-such-ref")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects empty reference lookup", func(t *testing.T) {
		_, err := repo.FindByReferenceNumber(ctx, "")
		assert.Error(t, err)
	})
}

func TestGormProductRepository_SaveUpdate(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("persists state transitions and bumps the version", func(t *testing.T) {
		p := newTestProduct(t, "okmall-22222")
		p.Control = catalog.ControlPublish
		require.NoError(t, repo.Save(ctx, p))
		assert.Equal(t, 1, p.Version)

		require.NoError(t, p.MarkSubmitted("req-abc", `{"products":[]}`))
		require.NoError(t, repo.Save(ctx, p))
		assert.Equal(t, 2, p.Version)

		loaded, err := repo.FindByReferenceNumber(ctx, "okmall-22222")
		require.NoError(t, err)
		assert.Equal(t, catalog.PublishStatusPending, loaded.PublishStatus)
		assert.Equal(t, "req-abc", loaded.LastRequestUID)
		assert.Equal(t, 2, loaded.Version)
	})

	t.Run("replaces association rows wholesale", func(t *testing.T) {
		p := newTestProduct(t, "okmall-33333")
		require.NoError(t, repo.Save(ctx, p))

		loaded, err := repo.FindByReferenceNumber(ctx, "okmall-33333")
		require.NoError(t, err)

		loaded.Variants = []catalog.ProductVariant{
			*catalog.NewProductVariant("Black", "M", false),
			*catalog.NewProductVariant("Black", "L", true),
		}
		require.NoError(t, repo.Save(ctx, loaded))

		reloaded, err := repo.FindByReferenceNumber(ctx, "okmall-33333")
		require.NoError(t, err)
		require.Len(t, reloaded.Variants, 2)
	})

	t.Run("detects concurrent modification", func(t *testing.T) {
		p := newTestProduct(t, "okmall-44444")
		require.NoError(t, repo.Save(ctx, p))

		first, err := repo.FindByReferenceNumber(ctx, "okmall-44444")
		require.NoError(t, err)
		second, err := repo.FindByReferenceNumber(ctx, "okmall-44444")
		require.NoError(t, err)

		require.NoError(t, first.MarkSubmitted("req-1", `{}`))
		require.NoError(t, repo.Save(ctx, first))

		second.MarkFailed("stale writer")
		err = repo.Save(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormProductRepository_FindRegistrable(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	eligible := newTestProduct(t, "okmall-eligible")
	eligible.Control = catalog.ControlPublish
	require.NoError(t, repo.Save(ctx, eligible))

	draft := newTestProduct(t, "okmall-draft")
	require.NoError(t, repo.Save(ctx, draft))

	pending := newTestProduct(t, "okmall-pending")
	pending.Control = catalog.ControlPublish
	require.NoError(t, pending.MarkSubmitted("req-1", `{}`))
	require.NoError(t, repo.Save(ctx, pending))

	found, err := repo.FindRegistrable(ctx, 10)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "okmall-eligible", found[0].ReferenceNumber)
	require.Len(t, found[0].Variants, 1)
}

func TestGormProductRepository_FindPublished(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	makePublished := func(ref string, syncedAt *time.Time) {
		p := newTestProduct(t, ref)
		p.Control = catalog.ControlPublish
		require.NoError(t, p.MarkSubmitted("req", `{}`))
		require.NoError(t, p.ConfirmPublished("900-"+ref))
		if syncedAt != nil {
			p.MarkStockSynced(*syncedAt)
		}
		require.NoError(t, repo.Save(ctx, p))
	}

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	makePublished("okmall-recent", &recent)
	makePublished("okmall-never", nil)
	makePublished("okmall-old", &old)

	unpublished := newTestProduct(t, "okmall-unpublished")
	require.NoError(t, repo.Save(ctx, unpublished))

	found, err := repo.FindPublished(ctx, 10)
	require.NoError(t, err)

	require.Len(t, found, 3)
	// Never-synced listings come first, then least recently synced
	assert.Equal(t, "okmall-never", found[0].ReferenceNumber)
	assert.Equal(t, "okmall-old", found[1].ReferenceNumber)
	assert.Equal(t, "okmall-recent", found[2].ReferenceNumber)
}

func TestGormProductRepository_Delete(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := newTestProduct(t, "okmall-55555")
	require.NoError(t, repo.Save(ctx, p))

	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var variantCount int64
	require.NoError(t, db.Model(&catalog.ProductVariant{}).Where("product_id = ?", p.ID).Count(&variantCount).Error)
	assert.Zero(t, variantCount)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), shared.ErrNotFound)
}
