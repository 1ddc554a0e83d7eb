package handlers

import (
	"errors"
	"net/http"

	"checkout-service/apperr"
	"checkout-service/gateway"
	"checkout-service/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PaymentHandler receives the hosted checkout's outcome from the browser.
type PaymentHandler struct {
	hosted *gateway.Hosted
	log    logrus.FieldLogger
}

func NewPaymentHandler(hosted *gateway.Hosted, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{hosted: hosted, log: log}
}

// ownCheckout reports whether the session is waiting on gatewayOrderID.
func ownCheckout(c *gin.Context, gatewayOrderID string) bool {
	co, ok := sessionFrom(c).PendingCheckout()
	return ok && co.GatewayOrderID == gatewayOrderID
}

// Complete handles POST /payments/{gatewayOrderId}/complete
func (h *PaymentHandler) Complete(c *gin.Context) {
	id := c.Param("gatewayOrderId")
	var req models.GatewayResult
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}
	if req.OrderID != id {
		invalidInput(c, "Gateway order id mismatch", nil)
		return
	}
	if !ownCheckout(c, id) {
		h.notPending(c, id)
		return
	}
	if err := h.hosted.Complete(id, req); err != nil {
		h.resolveError(c, id, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Cancel handles POST /payments/{gatewayOrderId}/cancel. Repeated cancels succeed.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	id := c.Param("gatewayOrderId")
	if ownCheckout(c, id) {
		if err := h.hosted.Cancel(id); err != nil {
			h.resolveError(c, id, err)
			return
		}
	}
	c.Status(http.StatusAccepted)
}

// Fail handles POST /payments/{gatewayOrderId}/fail
func (h *PaymentHandler) Fail(c *gin.Context) {
	id := c.Param("gatewayOrderId")
	var req models.GatewayFailure
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, "Invalid request body", err)
			return
		}
	}
	if !ownCheckout(c, id) {
		h.notPending(c, id)
		return
	}
	if err := h.hosted.Fail(id, req.Reason); err != nil {
		h.resolveError(c, id, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *PaymentHandler) notPending(c *gin.Context, id string) {
	respondError(c, h.log, apperr.New(apperr.KindNotFound, "payments", "No pending payment for "+id))
}

func (h *PaymentHandler) resolveError(c *gin.Context, id string, err error) {
	if errors.Is(err, gateway.ErrNotPending) {
		h.notPending(c, id)
		return
	}
	respondError(c, h.log, err)
}
