package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores fingerprints of processed webhook deliveries so a
// duplicate delivery can be dropped without re-running state transitions.
// BUYMA webhooks carry no delivery-deduplication token, so this is a
// best-effort mitigation; state transitions must stay idempotent regardless.
type IdempotencyStore interface {
	// MarkProcessed marks a delivery as processed with a TTL.
	// Returns true if the delivery was newly marked, false if already seen.
	MarkProcessed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether a delivery has already been processed
	IsProcessed(ctx context.Context, fingerprint string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for webhook deduplication
type IdempotencyConfig struct {
	// TTL is how long a delivery fingerprint is remembered
	TTL time.Duration

	// Enabled determines whether deduplication is active
	Enabled bool
}

// DefaultIdempotencyConfig returns the default deduplication configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
