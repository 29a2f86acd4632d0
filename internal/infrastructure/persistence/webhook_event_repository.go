package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dorahyong/buyma/internal/domain/listing"
	"github.com/dorahyong/buyma/internal/domain/shared"
)

// GormWebhookEventRepository implements listing.WebhookEventRepository using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

var _ listing.WebhookEventRepository = (*GormWebhookEventRepository)(nil)

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// Save persists a webhook event. A duplicate fingerprint, whether detected by
// the pre-check or by the unique index, is reported as shared.ErrAlreadyExists.
func (r *GormWebhookEventRepository) Save(ctx context.Context, event *listing.WebhookEvent) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&listing.WebhookEvent{}).
		Where("fingerprint = ?", event.Fingerprint).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrAlreadyExists
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByReferenceNumber returns all events recorded for one product, newest
// first
func (r *GormWebhookEventRepository) FindByReferenceNumber(ctx context.Context, referenceNumber string) ([]*listing.WebhookEvent, error) {
	var events []*listing.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("reference_number = ?", referenceNumber).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

// FindRecent returns the most recent webhook events
func (r *GormWebhookEventRepository) FindRecent(ctx context.Context, limit int) ([]*listing.WebhookEvent, error) {
	var events []*listing.WebhookEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
