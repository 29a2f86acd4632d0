package listing

import (
	"context"

	"github.com/dorahyong/buyma/internal/domain/catalog"
)

// Marketplace is the outbound port to the listing platform. Register and
// Update return the transient request UID and the exact payload sent, for
// the audit trail; neither implies the operation succeeded remotely, only
// that the platform accepted the request.
type Marketplace interface {
	Register(ctx context.Context, product *catalog.Product) (requestUID, sentPayload string, err error)
	Update(ctx context.Context, product *catalog.Product) (requestUID, sentPayload string, err error)
	Delete(ctx context.Context, product *catalog.Product) (requestUID string, err error)
	// QuotaUsage reports current consumption of the rolling quota windows
	QuotaUsage() (hourlyUsed, dailyUsed int)
}
