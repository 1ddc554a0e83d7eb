package handlers

import (
	"net/http"

	"checkout-service/checkout"
	"checkout-service/gateway"
	"checkout-service/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter registers every route on a new gin engine.
func NewRouter(svc *checkout.Service, sessions *checkout.Sessions, hosted *gateway.Hosted, log logrus.FieldLogger) *gin.Engine {
	cartHandler := NewCartHandler(svc, log)
	checkoutHandler := NewCheckoutHandler(svc, log)
	paymentHandler := NewPaymentHandler(hosted, log)

	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := router.Group("/", SessionMiddleware(sessions))

	api.GET("/cart", cartHandler.GetCart)
	api.POST("/cart/items", cartHandler.AddItem)
	api.PATCH("/cart/items/:lineId", cartHandler.UpdateQuantity)
	api.DELETE("/cart/items/:lineId", cartHandler.RemoveItem)
	api.DELETE("/cart", cartHandler.ClearCart)

	api.GET("/checkout", checkoutHandler.GetCheckout)
	api.GET("/checkout/coupons", checkoutHandler.AvailableCoupons)
	api.POST("/checkout/coupon", checkoutHandler.ApplyCoupon)
	api.DELETE("/checkout/coupon", checkoutHandler.RemoveCoupon)
	api.PUT("/checkout/form/:field", checkoutHandler.SetField)
	api.POST("/checkout/form/:field/blur", checkoutHandler.BlurField)
	api.POST("/checkout/orders", checkoutHandler.Submit)
	api.GET("/checkout/status", checkoutHandler.Status)

	api.POST("/payments/:gatewayOrderId/complete", paymentHandler.Complete)
	api.POST("/payments/:gatewayOrderId/cancel", paymentHandler.Cancel)
	api.POST("/payments/:gatewayOrderId/fail", paymentHandler.Fail)

	api.GET("/orders/success", checkoutHandler.SuccessRecord)

	return router
}
