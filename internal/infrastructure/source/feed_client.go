package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/domain/sourcing"
)

// maxResponseSize is the maximum allowed response size from the feed (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ErrItemNotFound indicates the feed no longer lists the requested item
var ErrItemNotFound = errors.New("source: item not found")

// FeedClient reads variant availability and purchase costs from the buying
// source's feed API. It implements sourcing.InventoryProvider and
// sourcing.PriceProvider.
type FeedClient struct {
	config     *FeedConfig
	httpClient *http.Client
	logger     *zap.Logger
}

var (
	_ sourcing.InventoryProvider = (*FeedClient)(nil)
	_ sourcing.PriceProvider     = (*FeedClient)(nil)
)

// NewFeedClient creates a feed client with the given configuration
func NewFeedClient(config *FeedConfig, log *zap.Logger) (*FeedClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     log,
	}, nil
}

type availabilityResponse struct {
	Items []struct {
		Color     string `json:"color"`
		Size      string `json:"size"`
		Available bool   `json:"available"`
	} `json:"items"`
}

type priceResponse struct {
	PriceKRW       decimal.Decimal `json:"price_krw"`
	ShippingFeeKRW decimal.Decimal `json:"shipping_fee_krw"`
	ObservedAt     time.Time       `json:"observed_at"`
}

// FetchAvailability returns the feed's current view of every variant. An
// item the feed dropped entirely yields an empty result, which the caller
// treats as a total stockout.
func (c *FeedClient) FetchAvailability(ctx context.Context, buyingShopName, modelNumber string) ([]sourcing.VariantAvailability, error) {
	body, err := c.doRequest(ctx, availabilityPath, buyingShopName, modelNumber)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			c.logger.Info("item gone from source feed",
				zap.String("shop", buyingShopName),
				zap.String("model", modelNumber),
			)
			return []sourcing.VariantAvailability{}, nil
		}
		return nil, err
	}

	var parsed availabilityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("source: failed to parse availability response: %w", err)
	}

	result := make([]sourcing.VariantAvailability, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		result = append(result, sourcing.VariantAvailability{
			ColorValue: item.Color,
			SizeValue:  item.Size,
			Available:  item.Available,
		})
	}
	return result, nil
}

// FetchPrice returns the feed's current purchase cost for the item
func (c *FeedClient) FetchPrice(ctx context.Context, buyingShopName, modelNumber string) (*sourcing.PriceObservation, error) {
	body, err := c.doRequest(ctx, pricePath, buyingShopName, modelNumber)
	if err != nil {
		return nil, err
	}

	var parsed priceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("source: failed to parse price response: %w", err)
	}
	if !parsed.PriceKRW.IsPositive() {
		return nil, fmt.Errorf("source: feed returned non-positive price %s for %s/%s",
			parsed.PriceKRW, buyingShopName, modelNumber)
	}

	observedAt := parsed.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}
	return &sourcing.PriceObservation{
		PurchasePriceKRW: parsed.PriceKRW,
		ShippingFeeKRW:   parsed.ShippingFeeKRW,
		ObservedAt:       observedAt,
	}, nil
}

// doRequest performs a GET against the feed and returns the response body
func (c *FeedClient) doRequest(ctx context.Context, path, shop, model string) ([]byte, error) {
	endpoint, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("source: invalid feed URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("shop", shop)
	query.Set("model", model)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("source: failed to create request: %w", err)
	}
	if c.config.AccessToken != "" {
		req.Header.Set(tokenHeader, c.config.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("source: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s/%s", ErrItemNotFound, shop, model)
	default:
		return nil, fmt.Errorf("source: feed returned status %d: %s", resp.StatusCode, truncateBody(body))
	}
}

// truncateBody bounds error text from a misbehaving feed
func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
