package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "ONLINE"
	PaymentCOD    PaymentMethod = "COD"
)

// ParsePaymentMethod accepts ONLINE or COD; an empty value means ONLINE.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case "", PaymentOnline:
		return PaymentOnline, true
	case PaymentCOD:
		return PaymentCOD, true
	default:
		return "", false
	}
}

// CheckoutForm holds the shipping/contact fields collected at checkout.
type CheckoutForm struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	Pincode       string        `json:"pincode"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// Customer is the authenticated user's profile as forwarded by the auth proxy.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// OrderItem is one cart line as sent to the order service.
type OrderItem struct {
	ProductID        string `json:"productId"`
	ProductVariantID string `json:"productVariantId,omitempty"`
	Quantity         int    `json:"quantity"`
}

// OrderSubmission is built at submit time and sent to the order service.
type OrderSubmission struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	Pincode       string        `json:"pincode"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	OrderItems    []OrderItem   `json:"orderItems"`
	CouponCode    *string       `json:"couponCode"`
}

// GatewayOrder is the payment gateway order created by the order service.
type GatewayOrder struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type TempOrderData struct {
	OrderNumber string `json:"orderNumber"`
}

type PaymentInitiation struct {
	GatewayOrder  GatewayOrder  `json:"razorpayOrder"`
	TempOrderData TempOrderData `json:"tempOrderData"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// GatewayCheckout is what the hosted payment UI is opened with.
type GatewayCheckout struct {
	GatewayOrderID string          `json:"gatewayOrderId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Prefill        Prefill         `json:"prefill"`
}

// GatewayResult is returned by the hosted payment UI on success.
type GatewayResult struct {
	PaymentID string `json:"paymentId" binding:"required"`
	OrderID   string `json:"orderId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type GatewayFailure struct {
	Reason string `json:"reason"`
}

// PlacedOrder is the order service's confirmation.
type PlacedOrder struct {
	OrderNumber string          `json:"orderNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// OrderSuccessRecord survives navigation to the confirmation page.
type OrderSuccessRecord struct {
	OrderNumber   string          `json:"orderNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Items         []CartLine      `json:"items"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        string          `json:"status"`
	PlacedAt      time.Time       `json:"placedAt"`
	Redirect      string          `json:"redirect,omitempty"`
}

// OrderConfirmedEvent is published once per successful submission.
type OrderConfirmedEvent struct {
	EventID       string          `json:"eventId"`
	SessionID     string          `json:"sessionId"`
	CustomerID    string          `json:"customerId"`
	OrderNumber   string          `json:"orderNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Items         []OrderItem     `json:"items"`
	PlacedAt      time.Time       `json:"placedAt"`
}
