// Package gateway bridges the hosted payment checkout shown in the shopper's
// browser to the order orchestrator waiting on its outcome.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"checkout-service/models"

	"github.com/sirupsen/logrus"
)

var (
	// ErrCancelled is returned by Open when the shopper dismisses the
	// checkout or never finishes it.
	ErrCancelled = errors.New("payment cancelled")
	// ErrFailed is returned by Open when the gateway reports a failed payment.
	ErrFailed = errors.New("payment failed")
	// ErrNotPending means no checkout is open for the gateway order id.
	ErrNotPending = errors.New("no pending checkout for gateway order")
)

type outcome struct {
	result *models.GatewayResult
	err    error
}

type pending struct {
	checkout models.GatewayCheckout
	done     chan outcome
}

// Hosted parks Open until the browser reports the outcome through Complete,
// Cancel or Fail.
type Hosted struct {
	mu      sync.Mutex
	pending map[string]*pending
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewHosted(timeout time.Duration, log logrus.FieldLogger) *Hosted {
	return &Hosted{
		pending: make(map[string]*pending),
		timeout: timeout,
		log:     log,
	}
}

// Open registers the checkout and blocks until it resolves, the context ends,
// or the timeout passes. Timeouts are treated as cancellation. onPending, if
// set, runs after registration so that Complete, Cancel and Fail issued from
// that point on reach this call.
func (h *Hosted) Open(ctx context.Context, co models.GatewayCheckout, onPending func()) (*models.GatewayResult, error) {
	p := &pending{checkout: co, done: make(chan outcome, 1)}

	h.mu.Lock()
	h.pending[co.GatewayOrderID] = p
	h.mu.Unlock()
	defer h.remove(co.GatewayOrderID, p)

	log := h.log.WithField("gatewayOrderId", co.GatewayOrderID)
	log.Info("payment checkout opened")
	if onPending != nil {
		onPending()
	}

	var timeout <-chan time.Time
	if h.timeout > 0 {
		timer := time.NewTimer(h.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-p.done:
		return out.result, out.err
	case <-timeout:
		log.Warn("payment checkout abandoned")
		return nil, ErrCancelled
	case <-ctx.Done():
		return nil, ErrCancelled
	}
}

// Pending returns the open checkout for gatewayOrderID, if any.
func (h *Hosted) Pending(gatewayOrderID string) (models.GatewayCheckout, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[gatewayOrderID]
	if !ok {
		return models.GatewayCheckout{}, false
	}
	return p.checkout, true
}

// Complete resolves the checkout with the gateway's payment identifiers.
func (h *Hosted) Complete(gatewayOrderID string, result models.GatewayResult) error {
	if result.OrderID == "" {
		result.OrderID = gatewayOrderID
	}
	return h.resolve(gatewayOrderID, outcome{result: &result})
}

// Cancel resolves the checkout as dismissed. Cancelling a checkout that is no
// longer pending is a no-op.
func (h *Hosted) Cancel(gatewayOrderID string) error {
	if err := h.resolve(gatewayOrderID, outcome{err: ErrCancelled}); err != nil && !errors.Is(err, ErrNotPending) {
		return err
	}
	return nil
}

// Fail resolves the checkout as failed with the gateway's reason.
func (h *Hosted) Fail(gatewayOrderID, reason string) error {
	err := ErrFailed
	if reason != "" {
		err = &FailureError{Reason: reason}
	}
	return h.resolve(gatewayOrderID, outcome{err: err})
}

func (h *Hosted) resolve(gatewayOrderID string, out outcome) error {
	h.mu.Lock()
	p, ok := h.pending[gatewayOrderID]
	if ok {
		delete(h.pending, gatewayOrderID)
	}
	h.mu.Unlock()

	if !ok {
		return ErrNotPending
	}
	p.done <- out
	return nil
}

func (h *Hosted) remove(gatewayOrderID string, p *pending) {
	h.mu.Lock()
	if h.pending[gatewayOrderID] == p {
		delete(h.pending, gatewayOrderID)
	}
	h.mu.Unlock()
}

// FailureError carries the gateway's failure reason and matches ErrFailed.
type FailureError struct {
	Reason string
}

func (e *FailureError) Error() string { return "payment failed: " + e.Reason }

func (e *FailureError) Is(target error) bool { return target == ErrFailed }
