package models

import "github.com/shopspring/decimal"

// DiscountDescriptor is the pricing service's description of a quantity tier.
// It is passed through untouched.
type DiscountDescriptor map[string]any

// QuantityPrice is the pricing service's answer for one line.
type QuantityPrice struct {
	FinalPrice         decimal.Decimal    `json:"finalPrice"`
	ApplicableDiscount DiscountDescriptor `json:"applicableDiscount"`
	TotalSavings       decimal.Decimal    `json:"totalSavings"`
}

type ResolvedLinePricing struct {
	LineID          string             `json:"lineId"`
	OriginalPrice   decimal.Decimal    `json:"originalPrice"`
	FinalPrice      decimal.Decimal    `json:"finalPrice"`
	AppliedDiscount DiscountDescriptor `json:"appliedDiscount"`
	Savings         decimal.Decimal    `json:"savings"`
}

type OrderTotals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	QuantityDiscount decimal.Decimal `json:"quantityDiscount"`
	CouponDiscount   decimal.Decimal `json:"couponDiscount"`
	Shipping         decimal.Decimal `json:"shipping"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	// Provisional is set when totals were computed from flat prices only.
	Provisional bool `json:"provisional"`
}

// ShippingRules holds the flat-fee / free-shipping threshold pair.
type ShippingRules struct {
	FreeThreshold decimal.Decimal
	Fee           decimal.Decimal
}
