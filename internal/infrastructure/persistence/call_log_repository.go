package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dorahyong/buyma/internal/domain/listing"
)

// GormCallLogRepository implements listing.CallLogRepository using GORM
type GormCallLogRepository struct {
	db *gorm.DB
}

var _ listing.CallLogRepository = (*GormCallLogRepository)(nil)

// NewGormCallLogRepository creates a new GormCallLogRepository
func NewGormCallLogRepository(db *gorm.DB) *GormCallLogRepository {
	return &GormCallLogRepository{db: db}
}

// Save persists a call log entry
func (r *GormCallLogRepository) Save(ctx context.Context, log *listing.CallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CountSince counts calls recorded at or after the given time
func (r *GormCallLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&listing.CallLog{}).
		Where("called_at >= ?", since).
		Count(&count).Error
	return count, err
}

// CountEndpointSince counts calls to one endpoint at or after the given time
func (r *GormCallLogRepository) CountEndpointSince(ctx context.Context, endpoint string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&listing.CallLog{}).
		Where("endpoint = ? AND called_at >= ?", endpoint, since).
		Count(&count).Error
	return count, err
}

// FindRecent returns the most recent call log entries
func (r *GormCallLogRepository) FindRecent(ctx context.Context, limit int) ([]*listing.CallLog, error) {
	var logs []*listing.CallLog
	err := r.db.WithContext(ctx).
		Order("called_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
