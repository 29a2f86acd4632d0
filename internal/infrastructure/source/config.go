package source

import (
	"errors"
	"time"
)

// FeedConfig holds configuration for the buying-source feed API
type FeedConfig struct {
	// BaseURL is the feed origin
	BaseURL string
	// AccessToken authenticates feed requests
	AccessToken string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// Feed protocol constants
const (
	availabilityPath = "/api/v1/items/availability"
	pricePath        = "/api/v1/items/price"
	tokenHeader      = "X-Feed-Access-Token"
)

// ErrConfigMissingBaseURL indicates the feed origin was not configured
var ErrConfigMissingBaseURL = errors.New("source: base URL is required")

// Validate validates the feed configuration
func (c *FeedConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return nil
}
