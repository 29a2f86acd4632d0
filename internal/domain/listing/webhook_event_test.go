package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookEvent(t *testing.T) {
	t.Run("create success nests reference under product", func(t *testing.T) {
		body := []byte(`{"product":{"id":900001,"reference_number":"okmall-12345"}}`)

		e, err := ParseWebhookEvent("product/create", body)
		require.NoError(t, err)

		assert.Equal(t, EventProductCreate, e.EventType)
		assert.Equal(t, "okmall-12345", e.ReferenceNumber)
		assert.Equal(t, "900001", e.BuymaProductID)
		assert.True(t, e.IsSuccess())
		assert.Empty(t, e.ErrorSummary)
	})

	t.Run("failure carries reference at top level", func(t *testing.T) {
		body := []byte(`{"reference_number":"okmall-12345","errors":{"name":["is too long"],"brand":["not found"]}}`)

		e, err := ParseWebhookEvent("product/fail_to_create", body)
		require.NoError(t, err)

		assert.Equal(t, "okmall-12345", e.ReferenceNumber)
		assert.True(t, e.IsFailure())
		assert.Contains(t, e.ErrorSummary, "name: is too long")
		assert.Contains(t, e.ErrorSummary, "brand: not found")
	})

	t.Run("top level reference wins over nested", func(t *testing.T) {
		body := []byte(`{"reference_number":"top-level","product":{"reference_number":"nested"}}`)

		e, err := ParseWebhookEvent("product/update", body)
		require.NoError(t, err)
		assert.Equal(t, "top-level", e.ReferenceNumber)
	})

	t.Run("missing reference number everywhere", func(t *testing.T) {
		_, err := ParseWebhookEvent("product/create", []byte(`{"product":{"id":900001}}`))
		assert.ErrorIs(t, err, ErrAmbiguousWebhook)
	})

	t.Run("unknown event type", func(t *testing.T) {
		_, err := ParseWebhookEvent("order/create", []byte(`{}`))
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := ParseWebhookEvent("product/create", []byte(`{not json`))
		assert.Error(t, err)
	})

	t.Run("identical deliveries fingerprint equal", func(t *testing.T) {
		body := []byte(`{"reference_number":"okmall-12345"}`)

		a, err := ParseWebhookEvent("product/fail_to_create", body)
		require.NoError(t, err)
		b, err := ParseWebhookEvent("product/fail_to_create", body)
		require.NoError(t, err)

		assert.Equal(t, a.Fingerprint, b.Fingerprint)

		c, err := ParseWebhookEvent("product/fail_to_update", body)
		require.NoError(t, err)
		assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
	})
}

func TestRejectionError(t *testing.T) {
	err := &RejectionError{Fields: map[string][]string{
		"name":  {"is too long", "contains forbidden words"},
		"brand": {"not found"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "brand: not found")
	assert.Contains(t, msg, "name: is too long; contains forbidden words")
	assert.True(t, IsRejection(err))
	assert.False(t, IsRejection(ErrQuotaExhausted))
}
