package models

import "github.com/shopspring/decimal"

// Coupon is the coupon service's descriptor. Only Code is relied on.
type Coupon struct {
	Code          string          `json:"code"`
	Description   string          `json:"description,omitempty"`
	DiscountType  string          `json:"discountType,omitempty"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinOrderValue decimal.Decimal `json:"minOrderValue"`
	ExpiresAt     string          `json:"expiresAt,omitempty"`
}

type CouponValidation struct {
	Coupon   Coupon          `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
}

type CouponStatus string

const (
	CouponUnset    CouponStatus = "unset"
	CouponPending  CouponStatus = "pending"
	CouponApplied  CouponStatus = "applied"
	CouponRejected CouponStatus = "rejected"
)

type CouponState struct {
	Code           string          `json:"code"`
	Status         CouponStatus    `json:"status"`
	AppliedCoupon  *Coupon         `json:"appliedCoupon"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Reason         string          `json:"reason,omitempty"`
	// ValidatedSubtotal is the subtotal the applied coupon was checked against.
	ValidatedSubtotal decimal.Decimal `json:"-"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}
