package clients

import (
	"context"
	"net/http"

	"checkout-service/models"
)

type OrderClient struct {
	apiClient
}

type orderRequest struct {
	OrderData models.OrderSubmission `json:"orderData"`
}

type verifyPaymentRequest struct {
	GatewayOrderID string                 `json:"razorpay_order_id"`
	PaymentID      string                 `json:"razorpay_payment_id"`
	Signature      string                 `json:"razorpay_signature"`
	OrderData      models.OrderSubmission `json:"orderData"`
}

func NewOrderClient(baseURL string, httpClient *http.Client) *OrderClient {
	return &OrderClient{apiClient{baseURL: baseURL, httpClient: httpClient}}
}

// InitiatePayment creates the gateway order for an online payment.
func (c *OrderClient) InitiatePayment(ctx context.Context, sub models.OrderSubmission) (*models.PaymentInitiation, error) {
	var out models.PaymentInitiation
	if err := c.do(ctx, http.MethodPost, "/orders/payment/initiate", orderRequest{OrderData: sub}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPayment checks the gateway signature and creates the order.
func (c *OrderClient) VerifyPayment(ctx context.Context, result models.GatewayResult, sub models.OrderSubmission) (*models.PlacedOrder, error) {
	var out models.PlacedOrder
	err := c.do(ctx, http.MethodPost, "/orders/payment/verify", verifyPaymentRequest{
		GatewayOrderID: result.OrderID,
		PaymentID:      result.PaymentID,
		Signature:      result.Signature,
		OrderData:      sub,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCODOrder places a cash-on-delivery order.
func (c *OrderClient) CreateCODOrder(ctx context.Context, sub models.OrderSubmission) (*models.PlacedOrder, error) {
	var out models.PlacedOrder
	if err := c.do(ctx, http.MethodPost, "/orders/cod", orderRequest{OrderData: sub}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
