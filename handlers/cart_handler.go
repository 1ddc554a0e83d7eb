package handlers

import (
	"net/http"

	"checkout-service/checkout"
	"checkout-service/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	svc *checkout.Service
	log logrus.FieldLogger
}

func NewCartHandler(svc *checkout.Service, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{svc: svc, log: log}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Cart(sessionFrom(c)))
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req models.RawCartItem
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}

	sess := sessionFrom(c)
	line, err := h.svc.AddItem(c.Request.Context(), sess, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

// UpdateQuantity handles PATCH /cart/items/{lineId}
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}

	line, err := h.svc.UpdateQuantity(sessionFrom(c), c.Param("lineId"), req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// RemoveItem handles DELETE /cart/items/{lineId}
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.svc.RemoveItem(sessionFrom(c), c.Param("lineId")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.svc.ClearCart(sessionFrom(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
