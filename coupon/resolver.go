package coupon

import (
	"context"
	"errors"
	"strings"

	"checkout-service/apperr"
	"checkout-service/clients"
	"checkout-service/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	ErrMsgCodeRequired = "Please enter a coupon code"
	ErrMsgInvalidCode  = "Invalid coupon code"
)

// Validator is the coupon service.
type Validator interface {
	ListAvailableCoupons(ctx context.Context, subtotal decimal.Decimal) ([]models.Coupon, error)
	ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*models.CouponValidation, error)
}

type Resolver struct {
	validator Validator
	log       logrus.FieldLogger
}

func NewResolver(validator Validator, log logrus.FieldLogger) *Resolver {
	return &Resolver{validator: validator, log: log}
}

// NewState returns an empty coupon state.
func NewState() models.CouponState {
	return models.CouponState{Status: models.CouponUnset, DiscountAmount: decimal.Zero}
}

// Validate checks code against subtotal. The discount is clamped to
// [0, subtotal]. Rejections are *apperr.Error of KindCoupon carrying the
// service's reason; an unreachable service yields KindUnavailable.
func (r *Resolver) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.Coupon, decimal.Decimal, error) {
	const op = "coupon.Validate"

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, decimal.Zero, apperr.New(apperr.KindCoupon, op, ErrMsgCodeRequired)
	}

	res, err := r.validator.ValidateCoupon(ctx, code, subtotal)
	if err != nil {
		var apiErr *clients.APIError
		if errors.As(err, &apiErr) && apiErr.Rejected() {
			reason := apiErr.Message
			if reason == "" {
				reason = ErrMsgInvalidCode
			}
			return nil, decimal.Zero, apperr.Wrap(apperr.KindCoupon, op, reason, err)
		}
		return nil, decimal.Zero, apperr.Wrap(apperr.KindUnavailable, op, "Could not validate coupon, please try again", err)
	}

	discount := res.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		r.log.WithFields(logrus.Fields{
			"code":     code,
			"discount": res.Discount.String(),
			"subtotal": subtotal.String(),
		}).Warn("coupon discount exceeds subtotal, clamping")
		discount = subtotal
	}

	c := res.Coupon
	if c.Code == "" {
		c.Code = code
	}
	return &c, discount, nil
}

// Apply validates code and moves state to applied or rejected. An applied
// coupon replaces any previous one; a rejection leaves no coupon applied.
func (r *Resolver) Apply(ctx context.Context, state *models.CouponState, code string, subtotal decimal.Decimal) error {
	state.Code = strings.TrimSpace(code)
	state.Status = models.CouponPending
	state.Reason = ""

	c, discount, err := r.Validate(ctx, code, subtotal)
	if err != nil {
		state.Status = models.CouponRejected
		state.AppliedCoupon = nil
		state.DiscountAmount = decimal.Zero
		state.ValidatedSubtotal = decimal.Zero
		state.Reason = apperr.MessageOf(err)
		return err
	}

	state.Status = models.CouponApplied
	state.AppliedCoupon = c
	state.DiscountAmount = discount
	state.ValidatedSubtotal = subtotal
	r.log.WithFields(logrus.Fields{
		"code":     c.Code,
		"discount": discount.String(),
	}).Info("coupon applied")
	return nil
}

// Remove resets state to unset. No remote call is made.
func (r *Resolver) Remove(state *models.CouponState) {
	*state = NewState()
}

// Available lists the coupons usable at subtotal; a zero subtotal lists none.
func (r *Resolver) Available(ctx context.Context, subtotal decimal.Decimal) ([]models.Coupon, error) {
	if !subtotal.IsPositive() {
		return []models.Coupon{}, nil
	}
	coupons, err := r.validator.ListAvailableCoupons(ctx, subtotal)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "coupon.Available", "Could not load coupons", err)
	}
	return coupons, nil
}
