package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for marketplace call outcomes
var (
	// ErrQuotaExhausted is returned when the marketplace signals rate
	// limiting (429). The current batch must stop immediately.
	ErrQuotaExhausted = errors.New("marketplace quota exhausted")
	// ErrTransport covers network failures and non-protocol status codes
	ErrTransport = errors.New("marketplace transport error")
	// ErrAmbiguousWebhook is returned when a webhook body carries no
	// reference number anywhere it is known to appear.
	ErrAmbiguousWebhook = errors.New("webhook carries no reference number")
)

// RejectionError is a 422 validation rejection with the per-field messages
// returned by the marketplace.
type RejectionError struct {
	Fields map[string][]string
}

func (e *RejectionError) Error() string {
	if len(e.Fields) == 0 {
		return "marketplace rejected the request"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "marketplace rejected the request: " + strings.Join(parts, ", ")
}

// IsRejection reports whether err is a validation rejection
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
