package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*FeedClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewFeedClient(&FeedConfig{
		BaseURL:     server.URL,
		AccessToken: "feed-token",
		Timeout:     5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client, server
}

func TestFeedClient_FetchAvailability(t *testing.T) {
	var gotPath, gotShop, gotModel, gotToken string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotShop = r.URL.Query().Get("shop")
		gotModel = r.URL.Query().Get("model")
		gotToken = r.Header.Get("X-Feed-Access-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"color":"Black","size":"M","available":true},
			{"color":"Black","size":"L","available":false}
		]}`))
	})

	result, err := client.FetchAvailability(context.Background(), "Musinsa", "MS-1001")

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/items/availability", gotPath)
	assert.Equal(t, "Musinsa", gotShop)
	assert.Equal(t, "MS-1001", gotModel)
	assert.Equal(t, "feed-token", gotToken)
	require.Len(t, result, 2)
	assert.True(t, result[0].Available)
	assert.Equal(t, "Black", result[0].ColorValue)
	assert.Equal(t, "M", result[0].SizeValue)
	assert.False(t, result[1].Available)
}

func TestFeedClient_FetchAvailability_ItemGone(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	result, err := client.FetchAvailability(context.Background(), "Musinsa", "MS-GONE")

	// A vanished item reads as a total stockout, not an error
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestFeedClient_FetchAvailability_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := client.FetchAvailability(context.Background(), "Musinsa", "MS-1001")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFeedClient_FetchAvailability_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.FetchAvailability(context.Background(), "Musinsa", "MS-1001")

	assert.Error(t, err)
}

func TestFeedClient_FetchPrice(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/items/price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"price_krw": 128000,
			"shipping_fee_krw": 3000,
			"observed_at": "2026-08-30T09:00:00Z"
		}`))
	})

	observation, err := client.FetchPrice(context.Background(), "Musinsa", "MS-1001")

	require.NoError(t, err)
	assert.True(t, observation.PurchasePriceKRW.Equal(decimal.NewFromInt(128000)))
	assert.True(t, observation.ShippingFeeKRW.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 2026, observation.ObservedAt.Year())
}

func TestFeedClient_FetchPrice_MissingTimestampDefaultsToNow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price_krw": 99000}`))
	})

	observation, err := client.FetchPrice(context.Background(), "Musinsa", "MS-1001")

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), observation.ObservedAt, time.Minute)
}

func TestFeedClient_FetchPrice_RejectsNonPositivePrice(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price_krw": 0}`))
	})

	_, err := client.FetchPrice(context.Background(), "Musinsa", "MS-1001")

	assert.Error(t, err)
}

func TestFeedClient_FetchPrice_ItemGoneIsAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchPrice(context.Background(), "Musinsa", "MS-GONE")

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestNewFeedClient_RequiresBaseURL(t *testing.T) {
	_, err := NewFeedClient(&FeedConfig{}, nil)

	assert.ErrorIs(t, err, ErrConfigMissingBaseURL)
}
