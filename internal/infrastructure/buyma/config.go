package buyma

import (
	"errors"
	"time"
)

// ClientConfig holds configuration for the BUYMA personal shopper API
type ClientConfig struct {
	// BaseURL is the API origin (production or mock server in tests)
	BaseURL string
	// AccessToken is the personal shopper API token
	AccessToken string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// GlobalHourlyQuota caps calls per rolling hour across all endpoints
	GlobalHourlyQuota int
	// ProductDailyQuota caps product-endpoint calls per rolling 24 hours
	ProductDailyQuota int
	// MinCallInterval is the minimum spacing between consecutive calls
	MinCallInterval time.Duration
}

// ProductionBaseURL is the production API origin
const ProductionBaseURL = "https://api.buyma.com"

// ProductsEndpoint is the product registration endpoint path, also the key
// under which calls to it are recorded in the call log
const ProductsEndpoint = "/api/v1/products.json"

// API protocol constants
const (
	productsPath = ProductsEndpoint
	tokenHeader  = "X-Buyma-Personal-Shopper-Api-Access-Token"
)

// Errors for client configuration
var (
	ErrConfigMissingToken   = errors.New("buyma: access token is required")
	ErrConfigInvalidQuota   = errors.New("buyma: quotas must be positive")
	ErrConfigInvalidSpacing = errors.New("buyma: min call interval cannot be negative")
)

// NewClientConfig creates a client configuration with production defaults
func NewClientConfig(accessToken string) *ClientConfig {
	return &ClientConfig{
		BaseURL:           ProductionBaseURL,
		AccessToken:       accessToken,
		Timeout:           30 * time.Second,
		GlobalHourlyQuota: 5000,
		ProductDailyQuota: 2500,
		MinCallInterval:   1500 * time.Millisecond,
	}
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrConfigMissingToken
	}
	if c.GlobalHourlyQuota <= 0 || c.ProductDailyQuota <= 0 {
		return ErrConfigInvalidQuota
	}
	if c.MinCallInterval < 0 {
		return ErrConfigInvalidSpacing
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
