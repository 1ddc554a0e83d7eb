package handlers

import (
	"net/http"

	"checkout-service/apperr"
	"checkout-service/checkout"
	"checkout-service/logging"
	"checkout-service/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CheckoutHandler struct {
	svc *checkout.Service
	log logrus.FieldLogger
}

func NewCheckoutHandler(svc *checkout.Service, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, log: log}
}

type setFieldRequest struct {
	Value string `json:"value"`
}

// GetCheckout handles GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Summary(c.Request.Context(), sessionFrom(c)))
}

// AvailableCoupons handles GET /checkout/coupons
func (h *CheckoutHandler) AvailableCoupons(c *gin.Context) {
	coupons, err := h.svc.AvailableCoupons(c.Request.Context(), sessionFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

// ApplyCoupon handles POST /checkout/coupon
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req models.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}

	state, err := h.svc.ApplyCoupon(c.Request.Context(), sessionFrom(c), req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// RemoveCoupon handles DELETE /checkout/coupon
func (h *CheckoutHandler) RemoveCoupon(c *gin.Context) {
	state, err := h.svc.RemoveCoupon(sessionFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SetField handles PUT /checkout/form/{field}
func (h *CheckoutHandler) SetField(c *gin.Context) {
	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}

	form, err := h.svc.SetField(sessionFrom(c), c.Param("field"), req.Value)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// BlurField handles POST /checkout/form/{field}/blur
func (h *CheckoutHandler) BlurField(c *gin.Context) {
	form, err := h.svc.BlurField(sessionFrom(c), c.Param("field"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// Submit handles POST /checkout/orders. For online payment the request stays
// open until the hosted checkout resolves.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	sess := sessionFrom(c)
	log := logging.FromContext(c, h.log)

	rec, err := h.svc.Submit(c.Request.Context(), sess)
	if apperr.Is(err, apperr.KindCancelled) {
		// Cancellation leaves an idle checkout with the cart intact.
		view := h.svc.Status(sess)
		view.Notice = apperr.MessageOf(err)
		log.Info("payment cancelled, checkout returned to idle")
		c.JSON(http.StatusOK, view)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	log.WithField("orderNumber", rec.OrderNumber).Info("checkout complete")
	c.JSON(http.StatusCreated, rec)
}

// Status handles GET /checkout/status
func (h *CheckoutHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status(sessionFrom(c)))
}

// SuccessRecord handles GET /orders/success
func (h *CheckoutHandler) SuccessRecord(c *gin.Context) {
	rec, err := h.svc.SuccessRecord(c.Request.Context(), sessionFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
