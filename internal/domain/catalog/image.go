package catalog

import (
	"github.com/google/uuid"

	"github.com/dorahyong/buyma/internal/domain/shared"
)

// MaxImages is the marketplace limit on images per listing
const MaxImages = 20

// ProductImage is one listing image; positions start from 1
type ProductImage struct {
	shared.BaseEntity
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Position  int       `gorm:"not null"`
	URL       string    `gorm:"type:varchar(1000);not null"`
}

// TableName returns the table name for GORM
func (ProductImage) TableName() string {
	return "product_images"
}

// NewProductImage creates a listing image
func NewProductImage(url string, position int) (*ProductImage, error) {
	if url == "" {
		return nil, shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot be empty")
	}
	if position < 1 || position > MaxImages {
		return nil, shared.NewDomainError("INVALID_IMAGE_POSITION", "Image position out of range")
	}

	return &ProductImage{
		BaseEntity: shared.NewBaseEntity(),
		Position:   position,
		URL:        url,
	}, nil
}
