package buyma

// FixedValues holds the account-level listing fields every document carries.
// They come from configuration; DefaultFixedValues covers accounts that have
// not overridden them.
type FixedValues struct {
	BuyingAreaID     string
	ShippingAreaID   string
	ThemeID          int
	Duty             string
	ShippingMethodID int
}

// DefaultFixedValues returns the stock account setup. The buying and
// shipping areas are both Seoul, the theme is the fashion default, and
// duties are always included in the price.
func DefaultFixedValues() FixedValues {
	return FixedValues{
		BuyingAreaID:     "2002003000",
		ShippingAreaID:   "2002003000",
		ThemeID:          98,
		Duty:             "included",
		ShippingMethodID: 1063035,
	}
}

// Control values accepted by the products endpoint
const (
	ControlPublish = "publish"
	ControlDelete  = "delete"
)

// ProductRequest is the envelope the products endpoint accepts
type ProductRequest struct {
	Products []ProductDocument `json:"products"`
}

// ProductDocument is one listing document. Create and update share the same
// shape; an update carries the marketplace ID, a delete carries only the
// control flag and the reference number.
type ProductDocument struct {
	Control         string `json:"control"`
	ID              string `json:"id,omitempty"`
	ReferenceNumber string `json:"reference_number"`

	Name              string `json:"name,omitempty"`
	Comments          string `json:"comments,omitempty"`
	ColorSizeComments string `json:"color_size_comments,omitempty"`
	BrandID           int64  `json:"brand_id,omitempty"`
	BrandName         string `json:"brand_name,omitempty"`
	CategoryID        int64  `json:"category_id,omitempty"`
	ModelNumber       string `json:"model_number,omitempty"`
	BuyingShopName    string `json:"buying_shop_name,omitempty"`

	Price          int64  `json:"price,omitempty"`
	ReferencePrice int64  `json:"reference_price,omitempty"`
	AvailableUntil string `json:"available_until,omitempty"`

	BuyingAreaID   string `json:"buying_area_id,omitempty"`
	ShippingAreaID string `json:"shipping_area_id,omitempty"`
	ThemeID        int    `json:"theme_id,omitempty"`
	Duty           string `json:"duty,omitempty"`

	ShippingMethods []ShippingMethod `json:"shipping_methods,omitempty"`
	Images          []Image          `json:"images,omitempty"`
	Options         []Option         `json:"options,omitempty"`
	Variants        []Variant        `json:"variants,omitempty"`
}

// ShippingMethod references a shipping method registered on the account
type ShippingMethod struct {
	ID int `json:"id"`
}

// Image is one listing image; positions start from 1
type Image struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Option declares one value on the color or size axis
type Option struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	MasterID int64  `json:"master_id"`
	Position int    `json:"position"`
}

// Variant is one color/size combination with availability
type Variant struct {
	Options   []VariantOption `json:"options"`
	StockType string          `json:"stock_type"`
	Stocks    int             `json:"stocks"`
}

// VariantOption identifies the axis value a variant is made of
type VariantOption struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// createResponse is the accepted-request body. The request UID is transient
// and only useful for support inquiries; confirmation arrives via webhook.
type createResponse struct {
	RequestUID string `json:"request_uid"`
}

// errorResponse is the 422 rejection body with per-field messages
type errorResponse struct {
	Errors map[string][]string `json:"errors"`
}
