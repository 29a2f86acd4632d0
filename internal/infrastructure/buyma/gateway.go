package buyma

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/domain/listing"
)

// Gateway implements the listing.Marketplace port on top of the payload
// builder and the rate-limited client
type Gateway struct {
	client          *Client
	listingLifetime time.Duration
	fixed           FixedValues
}

var _ listing.Marketplace = (*Gateway)(nil)

// NewGateway creates a marketplace gateway. A zero fixed value set falls
// back to the package defaults.
func NewGateway(client *Client, listingLifetime time.Duration, fixed FixedValues) *Gateway {
	return &Gateway{
		client:          client,
		listingLifetime: listingLifetime,
		fixed:           fixed,
	}
}

// Register builds and submits a creation document
func (g *Gateway) Register(ctx context.Context, product *catalog.Product) (string, string, error) {
	doc, err := BuildCreateDocument(product, BuildOptions{ListingLifetime: g.listingLifetime, Fixed: g.fixed})
	if err != nil {
		return "", "", err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("buyma: failed to encode payload: %w", err)
	}

	uid, err := g.client.CreateProduct(ctx, doc)
	if err != nil {
		return "", "", err
	}
	return uid, string(payload), nil
}

// Update builds and submits an update document for a published listing
func (g *Gateway) Update(ctx context.Context, product *catalog.Product) (string, string, error) {
	doc, err := BuildUpdateDocument(product, BuildOptions{ListingLifetime: g.listingLifetime, Fixed: g.fixed})
	if err != nil {
		return "", "", err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("buyma: failed to encode payload: %w", err)
	}

	uid, err := g.client.UpdateProduct(ctx, doc)
	if err != nil {
		return "", "", err
	}
	return uid, string(payload), nil
}

// Delete submits a deletion document for a published listing
func (g *Gateway) Delete(ctx context.Context, product *catalog.Product) (string, error) {
	doc, err := BuildDeleteDocument(product)
	if err != nil {
		return "", err
	}
	return g.client.DeleteProduct(ctx, doc)
}

// QuotaUsage reports current consumption of the quota windows
func (g *Gateway) QuotaUsage() (hourlyUsed, dailyUsed int) {
	return g.client.QuotaUsage()
}
