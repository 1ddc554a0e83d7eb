package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout-service/logging"
	"checkout-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openResult struct {
	res *models.GatewayResult
	err error
}

func openAsync(h *Hosted, ctx context.Context, id string) <-chan openResult {
	ch := make(chan openResult, 1)
	go func() {
		res, err := h.Open(ctx, models.GatewayCheckout{GatewayOrderID: id, Amount: decimal.NewFromInt(1497), Currency: "INR"}, nil)
		ch <- openResult{res, err}
	}()
	return ch
}

func waitPending(t *testing.T, h *Hosted, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := h.Pending(id)
		return ok
	}, time.Second, time.Millisecond)
}

func TestHosted_Complete(t *testing.T) {
	h := NewHosted(time.Minute, logging.Discard())
	done := openAsync(h, context.Background(), "order_1")
	waitPending(t, h, "order_1")

	co, ok := h.Pending("order_1")
	require.True(t, ok)
	assert.Equal(t, "INR", co.Currency)

	require.NoError(t, h.Complete("order_1", models.GatewayResult{PaymentID: "pay_1", Signature: "sig"}))

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, "pay_1", out.res.PaymentID)
	assert.Equal(t, "order_1", out.res.OrderID)

	_, ok = h.Pending("order_1")
	assert.False(t, ok)
}

func TestHosted_CancelIsIdempotent(t *testing.T) {
	h := NewHosted(time.Minute, logging.Discard())
	done := openAsync(h, context.Background(), "order_2")
	waitPending(t, h, "order_2")

	require.NoError(t, h.Cancel("order_2"))
	require.NoError(t, h.Cancel("order_2"))
	require.NoError(t, h.Cancel("never-opened"))

	out := <-done
	assert.ErrorIs(t, out.err, ErrCancelled)

	assert.ErrorIs(t, h.Complete("order_2", models.GatewayResult{}), ErrNotPending)
}

func TestHosted_Fail(t *testing.T) {
	h := NewHosted(time.Minute, logging.Discard())
	done := openAsync(h, context.Background(), "order_3")
	waitPending(t, h, "order_3")

	require.NoError(t, h.Fail("order_3", "card declined"))

	out := <-done
	assert.ErrorIs(t, out.err, ErrFailed)
	var fe *FailureError
	require.True(t, errors.As(out.err, &fe))
	assert.Equal(t, "card declined", fe.Reason)
}

func TestHosted_TimeoutIsCancellation(t *testing.T) {
	h := NewHosted(20*time.Millisecond, logging.Discard())

	_, err := h.Open(context.Background(), models.GatewayCheckout{GatewayOrderID: "order_4"}, nil)

	assert.ErrorIs(t, err, ErrCancelled)
	_, ok := h.Pending("order_4")
	assert.False(t, ok)
}

func TestHosted_ContextCancel(t *testing.T) {
	h := NewHosted(time.Minute, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := openAsync(h, ctx, "order_5")
	waitPending(t, h, "order_5")

	cancel()

	out := <-done
	assert.ErrorIs(t, out.err, ErrCancelled)
}

func TestHosted_CancelAsSoonAsPending(t *testing.T) {
	h := NewHosted(time.Minute, logging.Discard())
	co := models.GatewayCheckout{GatewayOrderID: "order_6"}

	var cancelErr error
	done := make(chan openResult, 1)
	go func() {
		res, err := h.Open(context.Background(), co, func() {
			cancelErr = h.Cancel(co.GatewayOrderID)
		})
		done <- openResult{res, err}
	}()

	select {
	case out := <-done:
		require.NoError(t, cancelErr)
		assert.ErrorIs(t, out.err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("Open did not return after an immediate cancel")
	}
	_, ok := h.Pending("order_6")
	assert.False(t, ok)
}
