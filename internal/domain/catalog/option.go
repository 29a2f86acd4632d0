package catalog

import (
	"github.com/google/uuid"

	"github.com/dorahyong/buyma/internal/domain/shared"
)

// OptionType is the axis a purchase option varies along
type OptionType string

const (
	OptionTypeColor OptionType = "color"
	OptionTypeSize  OptionType = "size"
)

// Marketplace master IDs for free-form option values
const (
	DefaultColorMasterID int64 = 99
	DefaultSizeMasterID  int64 = 0
)

// ProductOption is one declared value on a color/size axis. Positions are
// assigned per axis starting from 1 in declaration order.
type ProductOption struct {
	shared.BaseEntity
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type      OptionType `gorm:"type:varchar(10);not null"`
	Value     string     `gorm:"type:varchar(200);not null"`
	MasterID  int64      `gorm:"not null"`
	Position  int        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductOption) TableName() string {
	return "product_options"
}

// NewProductOption creates an option with the per-axis default master ID
func NewProductOption(optType OptionType, value string, position int) (*ProductOption, error) {
	if optType != OptionTypeColor && optType != OptionTypeSize {
		return nil, shared.NewDomainError("INVALID_OPTION_TYPE", "Option type must be color or size")
	}
	if value == "" {
		return nil, shared.NewDomainError("INVALID_OPTION_VALUE", "Option value cannot be empty")
	}
	if position < 1 {
		return nil, shared.NewDomainError("INVALID_OPTION_POSITION", "Option position starts at 1")
	}

	masterID := DefaultSizeMasterID
	if optType == OptionTypeColor {
		masterID = DefaultColorMasterID
	}

	return &ProductOption{
		BaseEntity: shared.NewBaseEntity(),
		Type:       optType,
		Value:      value,
		MasterID:   masterID,
		Position:   position,
	}, nil
}
