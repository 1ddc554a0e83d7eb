package cart

import (
	"strings"

	"checkout-service/apperr"
	"checkout-service/models"

	"github.com/shopspring/decimal"
)

// Normalize turns a loosely shaped cart item into a CartLine. Identifiers may
// arrive as id or _id, images as image or images[], and prices on the
// variant, the product or the item itself.
func Normalize(raw models.RawCartItem) (models.CartLine, error) {
	const op = "cart.Normalize"

	if raw.Product == nil {
		return models.CartLine{}, apperr.New(apperr.KindInvalidInput, op, "product is required")
	}
	productID := firstNonEmpty(raw.Product.MongoID, raw.Product.ID)
	if productID == "" {
		name := raw.Product.Name
		if name == "" {
			name = "Unknown Product"
		}
		return models.CartLine{}, apperr.New(apperr.KindInvalidInput, op, "Missing product ID for: "+name)
	}
	if raw.Quantity < 1 {
		return models.CartLine{}, apperr.New(apperr.KindInvalidInput, op, ErrMsgQuantityPositive)
	}

	product := models.Product{
		ID:    productID,
		Name:  raw.Product.Name,
		Price: priceOf(raw.Product.Price, raw.Price),
	}
	for _, img := range raw.Product.Images {
		if img = strings.TrimSpace(img); img != "" {
			product.Images = append(product.Images, img)
		}
	}
	if len(product.Images) == 0 && raw.Product.Image != "" {
		product.Images = []string{raw.Product.Image}
	}

	line := models.CartLine{
		ID:       raw.ID,
		Product:  product,
		Quantity: raw.Quantity,
	}

	if raw.Variant != nil {
		variantID := firstNonEmpty(raw.Variant.MongoID, raw.Variant.ID)
		if variantID != "" && variantID != productID {
			line.Variant = &models.Variant{
				ID:    variantID,
				Color: raw.Variant.Color,
				Size:  raw.Variant.Size,
				Price: priceOf(raw.Variant.Price),
				Image: raw.Variant.Image,
			}
		}
	}
	return line, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func priceOf(candidates ...*decimal.Decimal) decimal.Decimal {
	for _, p := range candidates {
		if p != nil && p.IsPositive() {
			return *p
		}
	}
	return decimal.Zero
}
