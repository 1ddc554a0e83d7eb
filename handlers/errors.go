package handlers

import (
	"errors"
	"net/http"

	"checkout-service/apperr"
	"checkout-service/logging"
	"checkout-service/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput, apperr.KindPrecondition:
		return http.StatusBadRequest
	case apperr.KindValidation, apperr.KindCoupon:
		return http.StatusUnprocessableEntity
	case apperr.KindPayment:
		return http.StatusPaymentRequired
	case apperr.KindCancelled, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindUnavailable:
		return http.StatusBadGateway
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse with the status for its kind.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	kind := apperr.KindOf(err)
	resp := models.ErrorResponse{
		Error:   kind.String(),
		Message: apperr.MessageOf(err),
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		resp.Fields = e.Fields
		resp.Redirect = e.Redirect
	}
	if kind == apperr.KindInternal {
		resp.Message = "Internal server error"
	}

	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c, log).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, resp)
}

func invalidInput(c *gin.Context, message string, err error) {
	resp := models.ErrorResponse{
		Error:   apperr.KindInvalidInput.String(),
		Message: message,
	}
	if err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
