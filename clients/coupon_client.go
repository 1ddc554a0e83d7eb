package clients

import (
	"context"
	"net/http"
	"net/url"

	"checkout-service/models"

	"github.com/shopspring/decimal"
)

type CouponClient struct {
	apiClient
}

type validateCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func NewCouponClient(baseURL string, httpClient *http.Client) *CouponClient {
	return &CouponClient{apiClient{baseURL: baseURL, httpClient: httpClient}}
}

// ListAvailableCoupons returns the coupons usable at the given subtotal.
func (c *CouponClient) ListAvailableCoupons(ctx context.Context, subtotal decimal.Decimal) ([]models.Coupon, error) {
	var out []models.Coupon
	path := "/coupons/available?subtotal=" + url.QueryEscape(subtotal.String())
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateCoupon checks code against subtotal and returns the discount.
func (c *CouponClient) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*models.CouponValidation, error) {
	var out models.CouponValidation
	err := c.do(ctx, http.MethodPost, "/coupons/validate", validateCouponRequest{
		Code:     code,
		Subtotal: subtotal,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
