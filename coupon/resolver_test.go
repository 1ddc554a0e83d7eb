package coupon

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"checkout-service/apperr"
	"checkout-service/clients"
	"checkout-service/logging"
	"checkout-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	calls     int
	listCalls int
	result    *models.CouponValidation
	err       error
	coupons   []models.Coupon
}

func (f *fakeValidator) ListAvailableCoupons(context.Context, decimal.Decimal) ([]models.Coupon, error) {
	f.listCalls++
	return f.coupons, f.err
}

func (f *fakeValidator) ValidateCoupon(context.Context, string, decimal.Decimal) (*models.CouponValidation, error) {
	f.calls++
	return f.result, f.err
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestApply_BlankCodeRejectedLocally(t *testing.T) {
	v := &fakeValidator{}
	r := NewResolver(v, logging.Discard())
	state := NewState()

	err := r.Apply(context.Background(), &state, "   ", d(1000))

	assert.True(t, apperr.Is(err, apperr.KindCoupon))
	assert.Equal(t, ErrMsgCodeRequired, apperr.MessageOf(err))
	assert.Equal(t, 0, v.calls)
	assert.Equal(t, models.CouponRejected, state.Status)
}

func TestApply_Success(t *testing.T) {
	v := &fakeValidator{result: &models.CouponValidation{
		Coupon:   models.Coupon{Code: "SAVE10"},
		Discount: d(100),
	}}
	r := NewResolver(v, logging.Discard())
	state := NewState()

	require.NoError(t, r.Apply(context.Background(), &state, " SAVE10 ", d(1000)))

	assert.Equal(t, models.CouponApplied, state.Status)
	assert.Equal(t, "SAVE10", state.Code)
	require.NotNil(t, state.AppliedCoupon)
	assert.Equal(t, "SAVE10", state.AppliedCoupon.Code)
	assert.Equal(t, "100", state.DiscountAmount.String())
	assert.Equal(t, "1000", state.ValidatedSubtotal.String())
}

func TestApply_ClampsDiscountToSubtotal(t *testing.T) {
	v := &fakeValidator{result: &models.CouponValidation{Coupon: models.Coupon{Code: "FLAT500"}, Discount: d(500)}}
	r := NewResolver(v, logging.Discard())
	state := NewState()

	require.NoError(t, r.Apply(context.Background(), &state, "FLAT500", d(300)))
	assert.Equal(t, "300", state.DiscountAmount.String())

	v.result = &models.CouponValidation{Coupon: models.Coupon{Code: "WEIRD"}, Discount: d(-20)}
	require.NoError(t, r.Apply(context.Background(), &state, "WEIRD", d(300)))
	assert.True(t, state.DiscountAmount.IsZero())
}

func TestApply_RejectionUsesServiceReason(t *testing.T) {
	v := &fakeValidator{err: &clients.APIError{StatusCode: http.StatusBadRequest, Message: "Minimum order value is 1999"}}
	r := NewResolver(v, logging.Discard())
	state := NewState()

	err := r.Apply(context.Background(), &state, "BIG", d(1000))

	assert.True(t, apperr.Is(err, apperr.KindCoupon))
	assert.Equal(t, "Minimum order value is 1999", state.Reason)
	assert.Equal(t, models.CouponRejected, state.Status)
}

func TestApply_RejectionFallbackMessage(t *testing.T) {
	v := &fakeValidator{err: &clients.APIError{StatusCode: http.StatusNotFound}}
	r := NewResolver(v, logging.Discard())
	state := NewState()

	err := r.Apply(context.Background(), &state, "NOPE", d(1000))
	assert.Equal(t, ErrMsgInvalidCode, apperr.MessageOf(err))
}

func TestApply_ServiceDownIsUnavailable(t *testing.T) {
	v := &fakeValidator{err: errors.New("connection refused")}
	r := NewResolver(v, logging.Discard())
	state := NewState()

	err := r.Apply(context.Background(), &state, "SAVE10", d(1000))
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
}

func TestApply_ReplacesAndRejectionClearsPrevious(t *testing.T) {
	v := &fakeValidator{result: &models.CouponValidation{Coupon: models.Coupon{Code: "A"}, Discount: d(50)}}
	r := NewResolver(v, logging.Discard())
	state := NewState()

	require.NoError(t, r.Apply(context.Background(), &state, "A", d(1000)))

	v.result = &models.CouponValidation{Coupon: models.Coupon{Code: "B"}, Discount: d(75)}
	require.NoError(t, r.Apply(context.Background(), &state, "B", d(1000)))
	assert.Equal(t, "B", state.AppliedCoupon.Code)
	assert.Equal(t, "75", state.DiscountAmount.String())

	v.err = &clients.APIError{StatusCode: http.StatusBadRequest, Message: "Coupon expired"}
	require.Error(t, r.Apply(context.Background(), &state, "C", d(1000)))
	assert.Nil(t, state.AppliedCoupon)
	assert.True(t, state.DiscountAmount.IsZero())
}

func TestRemove(t *testing.T) {
	v := &fakeValidator{result: &models.CouponValidation{Coupon: models.Coupon{Code: "A"}, Discount: d(50)}}
	r := NewResolver(v, logging.Discard())
	state := NewState()
	require.NoError(t, r.Apply(context.Background(), &state, "A", d(1000)))

	r.Remove(&state)

	assert.Equal(t, NewState(), state)
	assert.Equal(t, 1, v.calls)
}

func TestAvailable(t *testing.T) {
	v := &fakeValidator{coupons: []models.Coupon{{Code: "WELCOME"}}}
	r := NewResolver(v, logging.Discard())

	none, err := r.Available(context.Background(), decimal.Zero)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, 0, v.listCalls)

	some, err := r.Available(context.Background(), d(800))
	require.NoError(t, err)
	assert.Len(t, some, 1)
}
