package clients

import (
	"context"
	"net/http"

	"checkout-service/models"
)

type PricingClient struct {
	apiClient
}

type quantityPriceRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

func NewPricingClient(baseURL string, httpClient *http.Client) *PricingClient {
	return &PricingClient{apiClient{baseURL: baseURL, httpClient: httpClient}}
}

// CalculateQuantityPrice asks the product service for the tier-discounted
// price of quantity units.
func (c *PricingClient) CalculateQuantityPrice(ctx context.Context, productID, variantID string, quantity int) (*models.QuantityPrice, error) {
	var out models.QuantityPrice
	err := c.do(ctx, http.MethodPost, "/products/calculate-quantity-price", quantityPriceRequest{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
