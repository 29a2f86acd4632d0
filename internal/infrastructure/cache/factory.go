package cache

import (
	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/domain/shared"
	"github.com/dorahyong/buyma/internal/infrastructure/config"
)

// NewIdempotencyStore builds the webhook deduplication store. Redis is
// preferred so duplicate deliveries are caught across restarts; when it is
// unreachable the store degrades to in-memory rather than failing startup,
// since the receiver stays correct without deduplication, just noisier.
func NewIdempotencyStore(cfg *config.Config, logger *zap.Logger) shared.IdempotencyStore {
	store, err := NewRedisIdempotencyStore(&cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory idempotency store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore()
	}

	logger.Info("using redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	return store
}
