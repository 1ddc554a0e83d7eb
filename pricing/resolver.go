// Package pricing resolves the effective price of cart lines, applying the
// quantity-tier discounts reported by the product service.
package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"checkout-service/clients"
	"checkout-service/models"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// PriceCalculator is the product service's quantity pricing endpoint.
type PriceCalculator interface {
	CalculateQuantityPrice(ctx context.Context, productID, variantID string, quantity int) (*models.QuantityPrice, error)
}

type Options struct {
	// ColorSuffixes are stripped from color-qualified product ids.
	ColorSuffixes []string
	// MaxAttempts bounds calls per line, including the first.
	MaxAttempts  int
	RetryBackoff time.Duration
}

type Resolver struct {
	calc PriceCalculator
	opts Options
	log  logrus.FieldLogger
}

func NewResolver(calc PriceCalculator, opts Options, log logrus.FieldLogger) *Resolver {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Resolver{calc: calc, opts: opts, log: log}
}

// Resolve prices a single line. It never fails: if the pricing service cannot
// answer, the line is billed at its flat price.
func (r *Resolver) Resolve(ctx context.Context, line models.CartLine) models.ResolvedLinePricing {
	original := line.FlatPrice()
	fallback := models.ResolvedLinePricing{
		LineID:        line.ID,
		OriginalPrice: original,
		FinalPrice:    original,
		Savings:       decimal.Zero,
	}

	var suffixes []string
	variantID := ""
	if line.Variant != nil {
		variantID = line.Variant.ID
		if line.Variant.Color != "" {
			suffixes = append(suffixes, line.Variant.Color)
		}
	}
	productID := CleanProductID(line.Product.ID, append(suffixes, r.opts.ColorSuffixes...)...)

	log := r.log.WithFields(logrus.Fields{
		"line":      line.ID,
		"productId": productID,
		"quantity":  line.Quantity,
	})

	price, err := r.calculate(ctx, productID, variantID, line.Quantity)
	if err != nil {
		log.WithError(err).Warn("quantity pricing unavailable, using flat price")
		return fallback
	}

	final, savings := price.FinalPrice, price.TotalSavings
	switch {
	case final.IsNegative():
		log.WithField("finalPrice", final.String()).Warn("pricing service returned a negative price, clamping to zero")
		final = decimal.Zero
		savings = original
	case final.GreaterThan(original):
		log.WithField("finalPrice", final.String()).Warn("pricing service price exceeds flat price, clamping")
		final = original
		savings = decimal.Zero
	}

	// Savings always equal original minus final.
	return models.ResolvedLinePricing{
		LineID:          line.ID,
		OriginalPrice:   original,
		FinalPrice:      final,
		AppliedDiscount: price.ApplicableDiscount,
		Savings:         savings,
	}
}

// ResolveAll prices every line concurrently and returns the results in cart
// order once all of them have finished.
func (r *Resolver) ResolveAll(ctx context.Context, lines []models.CartLine) []models.ResolvedLinePricing {
	ctx, span := otel.Tracer("checkout-service/pricing").Start(ctx, "pricing.ResolveAll")
	span.SetAttributes(attribute.Int("cart.lines", len(lines)))
	defer span.End()

	out := make([]models.ResolvedLinePricing, len(lines))
	var g errgroup.Group
	for i, line := range lines {
		g.Go(func() error {
			out[i] = r.Resolve(ctx, line)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) calculate(ctx context.Context, productID, variantID string, quantity int) (*models.QuantityPrice, error) {
	b := backoff.NewExponentialBackOff()
	if r.opts.RetryBackoff > 0 {
		b.InitialInterval = r.opts.RetryBackoff
	}

	return backoff.Retry(ctx, func() (*models.QuantityPrice, error) {
		price, err := r.calc.CalculateQuantityPrice(ctx, productID, variantID, quantity)
		if err != nil {
			var apiErr *clients.APIError
			if errors.As(err, &apiErr) && apiErr.Rejected() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if price == nil {
			return nil, backoff.Permanent(errors.New("empty pricing response"))
		}
		return price, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(r.opts.MaxAttempts)))
}

// CleanProductID strips one trailing "-<Color>" token from a color-qualified
// product id so the base product is priced.
func CleanProductID(productID string, colors ...string) string {
	for _, color := range colors {
		if color == "" {
			continue
		}
		suffix := "-" + color
		if len(productID) > len(suffix) && strings.EqualFold(productID[len(productID)-len(suffix):], suffix) {
			return productID[:len(productID)-len(suffix)]
		}
	}
	return productID
}
