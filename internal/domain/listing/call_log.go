package listing

import (
	"context"
	"time"

	"github.com/dorahyong/buyma/internal/domain/shared"
)

// CallOutcome classifies a marketplace API call for auditing and quota math
type CallOutcome string

const (
	CallOutcomeAccepted       CallOutcome = "accepted"
	CallOutcomeRejected       CallOutcome = "rejected"
	CallOutcomeQuotaExhausted CallOutcome = "quota_exhausted"
	CallOutcomeTransportError CallOutcome = "transport_error"
)

// CallLog is one outbound marketplace API call. Every call is recorded
// regardless of outcome, so the log doubles as the durable quota counter
// across restarts.
type CallLog struct {
	shared.BaseEntity
	Endpoint        string      `gorm:"type:varchar(200);not null"`
	Method          string      `gorm:"type:varchar(10);not null"`
	StatusCode      int         `gorm:"not null"`
	Outcome         CallOutcome `gorm:"type:varchar(20);not null;index"`
	ReferenceNumber string      `gorm:"type:varchar(64);index"`
	RequestUID      string      `gorm:"type:varchar(64)"`
	RequestBody     string      `gorm:"type:text"`
	ResponseBody    string      `gorm:"type:text"`
	ErrorBody       string      `gorm:"type:text"`
	DurationMS      int64       `gorm:"not null;default:0"`
	CalledAt        time.Time   `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CallLog) TableName() string {
	return "call_logs"
}

// NewCallLog creates a call log entry stamped at the current time
func NewCallLog(endpoint, method string, statusCode int, outcome CallOutcome) *CallLog {
	return &CallLog{
		BaseEntity: shared.NewBaseEntity(),
		Endpoint:   endpoint,
		Method:     method,
		StatusCode: statusCode,
		Outcome:    outcome,
		CalledAt:   time.Now(),
	}
}

// CallLogRepository defines persistence for the call audit log
type CallLogRepository interface {
	Save(ctx context.Context, log *CallLog) error
	// CountSince returns the number of calls recorded at or after the given
	// time, used to rebuild in-memory quota windows after a restart.
	CountSince(ctx context.Context, since time.Time) (int64, error)
	// CountEndpointSince is CountSince narrowed to a single endpoint, for
	// the per-endpoint daily quota.
	CountEndpointSince(ctx context.Context, endpoint string, since time.Time) (int64, error)
	FindRecent(ctx context.Context, limit int) ([]*CallLog, error)
}
