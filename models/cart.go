package models

import "github.com/shopspring/decimal"

type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Images []string        `json:"images"`
	Price  decimal.Decimal `json:"price"`
}

type Variant struct {
	ID    string          `json:"id"`
	Color string          `json:"color,omitempty"`
	Size  string          `json:"size,omitempty"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// CartLine is one product+variant+quantity entry in a session cart.
type CartLine struct {
	ID       string   `json:"id"`
	Product  Product  `json:"product"`
	Variant  *Variant `json:"variant,omitempty"`
	Quantity int      `json:"quantity"`
}

// UnitPrice is the variant price, falling back to the product price, then zero.
func (l CartLine) UnitPrice() decimal.Decimal {
	if l.Variant != nil && l.Variant.Price.IsPositive() {
		return l.Variant.Price
	}
	if l.Product.Price.IsPositive() {
		return l.Product.Price
	}
	return decimal.Zero
}

// FlatPrice is UnitPrice × Quantity.
func (l CartLine) FlatPrice() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Image picks the variant image, then the first product image.
func (l CartLine) Image() string {
	if l.Variant != nil && l.Variant.Image != "" {
		return l.Variant.Image
	}
	if len(l.Product.Images) > 0 {
		return l.Product.Images[0]
	}
	return ""
}

// RawCartItem accepts the loose item shapes storefront clients send. It is
// normalised into a CartLine once, at ingestion.
type RawCartItem struct {
	ID       string           `json:"id"`
	Product  *RawProduct      `json:"product"`
	Variant  *RawVariant      `json:"variant"`
	Price    *decimal.Decimal `json:"price"`
	Quantity int              `json:"quantity"`
}

type RawProduct struct {
	ID      string           `json:"id"`
	MongoID string           `json:"_id"`
	Name    string           `json:"name"`
	Image   string           `json:"image"`
	Images  []string         `json:"images"`
	Price   *decimal.Decimal `json:"price"`
}

type RawVariant struct {
	ID      string           `json:"id"`
	MongoID string           `json:"_id"`
	Color   string           `json:"color"`
	Size    string           `json:"size"`
	Image   string           `json:"image"`
	Price   *decimal.Decimal `json:"price"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items   []CartLine  `json:"items"`
	Summary OrderTotals `json:"summary"`
	Count   int         `json:"itemsCount"`
}

type ErrorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Details  string            `json:"details,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}
