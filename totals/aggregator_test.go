package totals

import (
	"testing"

	"checkout-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var rules = models.ShippingRules{
	FreeThreshold: decimal.NewFromInt(50),
	Fee:           decimal.RequireFromString("5.99"),
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func resolved(id, original, final string) models.ResolvedLinePricing {
	return models.ResolvedLinePricing{
		LineID:        id,
		OriginalPrice: money(original),
		FinalPrice:    money(final),
		Savings:       money(original).Sub(money(final)),
	}
}

func TestAggregate_SubtotalIsSumOfFinalPrices(t *testing.T) {
	lines := []models.ResolvedLinePricing{
		resolved("a", "1497", "1347.30"),
		resolved("b", "0.10", "0.10"),
		resolved("c", "0.20", "0.20"),
		resolved("d", "899.99", "810.01"),
	}

	got := Aggregate(lines, decimal.Zero, rules)

	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.FinalPrice)
	}
	assert.True(t, sum.Equal(got.Subtotal), "subtotal %s != %s", got.Subtotal, sum)
	assert.Equal(t, "2157.61", got.Subtotal.String())
	assert.Equal(t, "239.68", got.QuantityDiscount.String())
	assert.False(t, got.Provisional)
}

func TestAggregate_QuantityDiscountNeverNegative(t *testing.T) {
	none := Aggregate([]models.ResolvedLinePricing{resolved("a", "100", "100")}, decimal.Zero, rules)
	assert.True(t, none.QuantityDiscount.IsZero())

	odd := Aggregate([]models.ResolvedLinePricing{resolved("a", "100", "120")}, decimal.Zero, rules)
	assert.True(t, odd.QuantityDiscount.IsZero())
}

func TestAggregate_CouponScenario(t *testing.T) {
	got := Aggregate([]models.ResolvedLinePricing{resolved("a", "1000", "1000")}, money("100"), rules)

	assert.Equal(t, "1000", got.Subtotal.String())
	assert.True(t, got.Shipping.IsZero())
	assert.Equal(t, "900", got.TotalAmount.String())
}

func TestAggregate_CouponRoundTrip(t *testing.T) {
	lines := []models.ResolvedLinePricing{resolved("a", "40", "36"), resolved("b", "12", "12")}

	before := Aggregate(lines, decimal.Zero, rules)
	_ = Aggregate(lines, money("10"), rules)
	after := Aggregate(lines, decimal.Zero, rules)

	assert.Equal(t, before, after)
}

func TestAggregate_Idempotent(t *testing.T) {
	lines := []models.ResolvedLinePricing{resolved("a", "40", "36"), resolved("b", "12", "12")}

	first := Aggregate(lines, money("5"), rules)
	second := Aggregate(lines, money("5"), rules)

	assert.Equal(t, first, second)
	assert.Equal(t, first.TotalAmount.String(), second.TotalAmount.String())
}

func TestAggregate_Shipping(t *testing.T) {
	tests := []struct {
		name     string
		final    string
		coupon   string
		shipping string
		total    string
	}{
		{"below threshold pays fee", "48", "0", "5.99", "53.99"},
		{"at threshold ships free", "50", "0", "0", "50"},
		{"coupon does not change shipping band", "60", "20", "0", "40"},
		{"empty cart has no shipping", "0", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []models.ResolvedLinePricing
			if tt.final != "0" {
				lines = append(lines, resolved("a", tt.final, tt.final))
			}
			got := Aggregate(lines, money(tt.coupon), rules)
			assert.Equal(t, tt.shipping, got.Shipping.String())
			assert.Equal(t, tt.total, got.TotalAmount.String())
		})
	}
}

func TestAggregate_CouponClampedToSubtotal(t *testing.T) {
	got := Aggregate([]models.ResolvedLinePricing{resolved("a", "80", "80")}, money("500"), rules)

	assert.Equal(t, "80", got.CouponDiscount.String())
	assert.True(t, got.TotalAmount.IsZero())
}

func TestProvisional(t *testing.T) {
	lines := []models.CartLine{
		{ID: "a", Product: models.Product{ID: "p", Price: money("12.50")}, Quantity: 2},
		{ID: "b", Product: models.Product{ID: "q", Price: money("10")}, Variant: &models.Variant{ID: "v", Price: money("20")}, Quantity: 1},
	}

	got := Provisional(lines, decimal.Zero, rules)

	assert.True(t, got.Provisional)
	assert.Equal(t, "45", got.Subtotal.String())
	assert.Equal(t, "5.99", got.Shipping.String())
	assert.Equal(t, "50.99", got.TotalAmount.String())
}
