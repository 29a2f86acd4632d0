package buyma

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/dorahyong/buyma/internal/domain/catalog"
)

// Listing text limits enforced by the marketplace
const (
	maxNameRunes     = 60
	maxCommentsRunes = 3000
	ellipsis         = "..."
)

const availableUntilLayout = "2006/01/02"

// Errors for documents that cannot be built
var (
	ErrMissingCategory      = errors.New("buyma: product has no category mapping")
	ErrMissingBrand         = errors.New("buyma: product has neither brand ID nor brand name")
	ErrInvalidPrice         = errors.New("buyma: selling price must be positive")
	ErrNoImages             = errors.New("buyma: product has no images")
	ErrMissingRemoteID      = errors.New("buyma: product has no marketplace ID")
	ErrUnknownVariantOption = errors.New("buyma: variant references an option value not declared on the product")
)

// BuildOptions carries builder inputs that are not part of the product
type BuildOptions struct {
	// ListingLifetime sets available_until when the product has no explicit
	// deadline
	ListingLifetime time.Duration
	// Fixed holds the account-level listing fields; zero means the
	// package defaults
	Fixed FixedValues
	// Now is injectable for tests; zero means time.Now
	Now time.Time
}

// BuildCreateDocument maps a catalog product onto a creation document. The
// builder is pure: it never mutates the product and performs no I/O.
func BuildCreateDocument(p *catalog.Product, opts BuildOptions) (*ProductDocument, error) {
	if !p.HasCategory() {
		return nil, fmt.Errorf("%w: %s", ErrMissingCategory, p.ReferenceNumber)
	}
	if !p.HasBrand() {
		return nil, fmt.Errorf("%w: %s", ErrMissingBrand, p.ReferenceNumber)
	}
	if !p.PriceJPY.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, p.ReferenceNumber)
	}
	if len(p.Images) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, p.ReferenceNumber)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	fixed := opts.Fixed
	if fixed == (FixedValues{}) {
		fixed = DefaultFixedValues()
	}

	name := sanitizeName(p.Name)

	variants, err := buildVariants(p.Variants, p.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, p.ReferenceNumber)
	}

	doc := &ProductDocument{
		Control:           ControlPublish,
		ReferenceNumber:   p.ReferenceNumber,
		Name:              name,
		Comments:          buildComments(p.Comments, name),
		ColorSizeComments: truncateRunes(p.ColorSizeComments, maxCommentsRunes),
		CategoryID:        *p.CategoryID,
		ModelNumber:       p.ModelNumber,
		BuyingShopName:    p.BuyingShopName,
		Price:             p.PriceJPY.Round(0).IntPart(),
		AvailableUntil:    availableUntil(p, now, opts.ListingLifetime),
		BuyingAreaID:      fixed.BuyingAreaID,
		ShippingAreaID:    fixed.ShippingAreaID,
		ThemeID:           fixed.ThemeID,
		Duty:              fixed.Duty,
		ShippingMethods:   []ShippingMethod{{ID: fixed.ShippingMethodID}},
		Images:            buildImages(p.Images),
		Options:           buildOptions(p.Options),
		Variants:          variants,
	}

	// A resolved brand ID takes priority; free-text names are a fallback the
	// marketplace matches heuristically
	if p.BrandID != nil && *p.BrandID > 0 {
		doc.BrandID = *p.BrandID
	} else {
		doc.BrandName = p.BrandName
	}

	if p.ReferencePriceJPY != nil && p.ReferencePriceJPY.IsPositive() {
		doc.ReferencePrice = p.ReferencePriceJPY.Round(0).IntPart()
	}

	return doc, nil
}

// BuildUpdateDocument maps a published product onto an update document. The
// products endpoint treats a document with an ID as an update.
func BuildUpdateDocument(p *catalog.Product, opts BuildOptions) (*ProductDocument, error) {
	if p.BuymaProductID == nil || *p.BuymaProductID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRemoteID, p.ReferenceNumber)
	}
	doc, err := BuildCreateDocument(p, opts)
	if err != nil {
		return nil, err
	}
	doc.ID = *p.BuymaProductID
	return doc, nil
}

// BuildDeleteDocument maps a product onto a deletion document. Only the
// control flag, the reference number and the marketplace ID are sent.
func BuildDeleteDocument(p *catalog.Product) (*ProductDocument, error) {
	if p.BuymaProductID == nil || *p.BuymaProductID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRemoteID, p.ReferenceNumber)
	}
	return &ProductDocument{
		Control:         ControlDelete,
		ID:              *p.BuymaProductID,
		ReferenceNumber: p.ReferenceNumber,
	}, nil
}

// sanitizeName folds full-width characters to their narrow forms, collapses
// whitespace, and truncates to the name limit keeping a visible ellipsis.
func sanitizeName(name string) string {
	folded := width.Fold.String(name)
	folded = strings.Join(strings.Fields(folded), " ")

	runes := []rune(folded)
	if len(runes) <= maxNameRunes {
		return folded
	}
	return string(runes[:maxNameRunes-len(ellipsis)]) + ellipsis
}

// buildComments caps the description and falls back to the listing name when
// the source has no description, since the field may not be empty.
func buildComments(comments, name string) string {
	c := strings.TrimSpace(comments)
	if c == "" {
		c = name
	}
	return truncateRunes(c, maxCommentsRunes)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func availableUntil(p *catalog.Product, now time.Time, lifetime time.Duration) string {
	if p.AvailableUntil != nil {
		return p.AvailableUntil.Format(availableUntilLayout)
	}
	if lifetime <= 0 {
		lifetime = 30 * 24 * time.Hour
	}
	return now.Add(lifetime).Format(availableUntilLayout)
}

func buildImages(images []catalog.ProductImage) []Image {
	sorted := make([]catalog.ProductImage, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	if len(sorted) > catalog.MaxImages {
		sorted = sorted[:catalog.MaxImages]
	}

	out := make([]Image, 0, len(sorted))
	for i, img := range sorted {
		out = append(out, Image{URL: img.URL, Position: i + 1})
	}
	return out
}

// buildOptions emits colors before sizes, each axis renumbered 1..N in the
// stored order. A zero master ID falls back to the free-input master for the
// axis, since the marketplace rejects master_id 0 for colors.
func buildOptions(options []catalog.ProductOption) []Option {
	out := make([]Option, 0, len(options))
	out = append(out, buildOptionAxis(options, catalog.OptionTypeColor, catalog.DefaultColorMasterID)...)
	out = append(out, buildOptionAxis(options, catalog.OptionTypeSize, catalog.DefaultSizeMasterID)...)
	return out
}

func buildOptionAxis(options []catalog.ProductOption, axis catalog.OptionType, defaultMasterID int64) []Option {
	var axisOpts []catalog.ProductOption
	for _, o := range options {
		if o.Type == axis {
			axisOpts = append(axisOpts, o)
		}
	}
	sort.SliceStable(axisOpts, func(i, j int) bool {
		return axisOpts[i].Position < axisOpts[j].Position
	})

	out := make([]Option, 0, len(axisOpts))
	for i, o := range axisOpts {
		masterID := o.MasterID
		if masterID == 0 {
			masterID = defaultMasterID
		}
		out = append(out, Option{
			Type:     string(o.Type),
			Value:    o.Value,
			MasterID: masterID,
			Position: i + 1,
		})
	}
	return out
}

func buildVariants(variants []catalog.ProductVariant, options []catalog.ProductOption) ([]Variant, error) {
	declared := make(map[catalog.OptionType]map[string]bool, 2)
	for _, o := range options {
		values := declared[o.Type]
		if values == nil {
			values = make(map[string]bool)
			declared[o.Type] = values
		}
		values[o.Value] = true
	}

	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		var opts []VariantOption
		if v.ColorValue != "" {
			if !declared[catalog.OptionTypeColor][v.ColorValue] {
				return nil, fmt.Errorf("%w: color %q", ErrUnknownVariantOption, v.ColorValue)
			}
			opts = append(opts, VariantOption{Type: string(catalog.OptionTypeColor), Value: v.ColorValue})
		}
		if v.SizeValue != "" {
			if !declared[catalog.OptionTypeSize][v.SizeValue] {
				return nil, fmt.Errorf("%w: size %q", ErrUnknownVariantOption, v.SizeValue)
			}
			opts = append(opts, VariantOption{Type: string(catalog.OptionTypeSize), Value: v.SizeValue})
		}
		out = append(out, Variant{
			Options:   opts,
			StockType: string(v.StockType),
			Stocks:    v.Stocks,
		})
	}
	return out, nil
}
