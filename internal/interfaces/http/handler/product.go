package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dorahyong/buyma/internal/domain/catalog"
	"github.com/dorahyong/buyma/internal/interfaces/http/dto"
)

// ProductHandler serves read access to the local catalog and each product's
// listing state
type ProductHandler struct {
	BaseHandler
	products catalog.ProductRepository
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products catalog.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// VariantResponse is one variant's availability in a response
type VariantResponse struct {
	ColorValue string `json:"color_value"`
	SizeValue  string `json:"size_value"`
	StockType  string `json:"stock_type"`
	Stocks     int    `json:"stocks"`
}

// ProductResponse is a product's listing state in a response
type ProductResponse struct {
	ID              string            `json:"id"`
	ReferenceNumber string            `json:"reference_number"`
	BuymaProductID  *string           `json:"buyma_product_id,omitempty"`
	Control         string            `json:"control"`
	PublishStatus   string            `json:"publish_status"`
	Name            string            `json:"name"`
	PriceJPY        decimal.Decimal   `json:"price_jpy"`
	LastRequestUID  string            `json:"last_request_uid,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
	RegisteredAt    *time.Time        `json:"registered_at,omitempty"`
	StockSyncedAt   *time.Time        `json:"stock_synced_at,omitempty"`
	PriceSyncedAt   *time.Time        `json:"price_synced_at,omitempty"`
	Variants        []VariantResponse `json:"variants"`
	Version         int               `json:"version"`
}

func toProductResponse(p *catalog.Product) ProductResponse {
	variants := make([]VariantResponse, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, VariantResponse{
			ColorValue: v.ColorValue,
			SizeValue:  v.SizeValue,
			StockType:  string(v.StockType),
			Stocks:     v.Stocks,
		})
	}
	return ProductResponse{
		ID:              p.ID.String(),
		ReferenceNumber: p.ReferenceNumber,
		BuymaProductID:  p.BuymaProductID,
		Control:         string(p.Control),
		PublishStatus:   string(p.PublishStatus),
		Name:            p.Name,
		PriceJPY:        p.PriceJPY,
		LastRequestUID:  p.LastRequestUID,
		LastError:       p.LastError,
		RegisteredAt:    p.RegisteredAt,
		StockSyncedAt:   p.StockSyncedAt,
		PriceSyncedAt:   p.PriceSyncedAt,
		Variants:        variants,
		Version:         p.Version,
	}
}

// GetByReferenceNumber returns one product's listing state
func (h *ProductHandler) GetByReferenceNumber(c *gin.Context) {
	ref := c.Param("referenceNumber")
	if ref == "" {
		h.BadRequest(c, "reference number is required")
		return
	}

	product, err := h.products.FindByReferenceNumber(c.Request.Context(), ref)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// ListRegistrable returns products awaiting a creation call
func (h *ProductHandler) ListRegistrable(c *gin.Context) {
	h.list(c, h.products.FindRegistrable)
}

// ListPublished returns confirmed listings, least recently synced first
func (h *ProductHandler) ListPublished(c *gin.Context) {
	h.list(c, h.products.FindPublished)
}

func (h *ProductHandler) list(c *gin.Context, find func(ctx context.Context, limit int) ([]*catalog.Product, error)) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	products, err := find(c.Request.Context(), req.LimitOrDefault(50))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, toProductResponse(p))
	}
	h.Success(c, responses)
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("/registrable", h.ListRegistrable)
		products.GET("/published", h.ListPublished)
		products.GET("/:referenceNumber", h.GetByReferenceNumber)
	}
}
