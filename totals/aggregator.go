package totals

import (
	"checkout-service/models"

	"github.com/shopspring/decimal"
)

// Aggregate combines resolved line prices and a coupon discount into order
// totals. It is a pure function of its inputs.
//
//	subtotal    = Σ finalPrice
//	shipping    = fee if 0 < subtotal < threshold, else 0
//	totalAmount = subtotal − couponDiscount + shipping
func Aggregate(lines []models.ResolvedLinePricing, couponDiscount decimal.Decimal, rules models.ShippingRules) models.OrderTotals {
	subtotal := decimal.Zero
	quantityDiscount := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.FinalPrice)
		if diff := l.OriginalPrice.Sub(l.FinalPrice); diff.IsPositive() {
			quantityDiscount = quantityDiscount.Add(diff)
		}
	}
	return build(subtotal, quantityDiscount, couponDiscount, rules)
}

// Provisional computes totals from flat prices, before quantity pricing has
// been resolved.
func Provisional(lines []models.CartLine, couponDiscount decimal.Decimal, rules models.ShippingRules) models.OrderTotals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.FlatPrice())
	}
	t := build(subtotal, decimal.Zero, couponDiscount, rules)
	t.Provisional = true
	return t
}

// Shipping returns the shipping charge for subtotal.
func Shipping(subtotal decimal.Decimal, rules models.ShippingRules) decimal.Decimal {
	if subtotal.IsPositive() && subtotal.LessThan(rules.FreeThreshold) {
		return rules.Fee
	}
	return decimal.Zero
}

func build(subtotal, quantityDiscount, couponDiscount decimal.Decimal, rules models.ShippingRules) models.OrderTotals {
	coupon := couponDiscount
	if coupon.IsNegative() {
		coupon = decimal.Zero
	}
	if coupon.GreaterThan(subtotal) {
		coupon = subtotal
	}
	shipping := Shipping(subtotal, rules)

	return models.OrderTotals{
		Subtotal:         subtotal,
		QuantityDiscount: quantityDiscount,
		CouponDiscount:   coupon,
		Shipping:         shipping,
		TotalAmount:      subtotal.Sub(coupon).Add(shipping),
	}
}
