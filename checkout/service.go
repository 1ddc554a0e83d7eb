package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-service/apperr"
	"checkout-service/cart"
	"checkout-service/clients"
	"checkout-service/coupon"
	"checkout-service/gateway"
	"checkout-service/models"
	"checkout-service/pricing"
	"checkout-service/storage"
	"checkout-service/totals"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	LoginRedirect     = "/login?from=/checkout"
	ConfirmationRoute = "/payment-success"
	StatusConfirmed   = "confirmed"
)

// OrderService places orders.
type OrderService interface {
	InitiatePayment(ctx context.Context, sub models.OrderSubmission) (*models.PaymentInitiation, error)
	VerifyPayment(ctx context.Context, result models.GatewayResult, sub models.OrderSubmission) (*models.PlacedOrder, error)
	CreateCODOrder(ctx context.Context, sub models.OrderSubmission) (*models.PlacedOrder, error)
}

// PaymentGateway drives the hosted checkout and waits for its outcome.
// onPending runs once the checkout can be completed or cancelled.
type PaymentGateway interface {
	Open(ctx context.Context, co models.GatewayCheckout, onPending func()) (*models.GatewayResult, error)
}

// SuccessStore persists the last placed order of a session.
type SuccessStore interface {
	Save(ctx context.Context, sessionID string, rec models.OrderSuccessRecord) error
	Load(ctx context.Context, sessionID string) (*models.OrderSuccessRecord, error)
	Clear(ctx context.Context, sessionID string) error
}

type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, event models.OrderConfirmedEvent) error
}

type Service struct {
	pricing   *pricing.Resolver
	coupons   *coupon.Resolver
	orders    OrderService
	gateway   PaymentGateway
	store     SuccessStore
	events    EventPublisher
	rules     models.ShippingRules
	storeName string
	log       logrus.FieldLogger
	now       func() time.Time
}

type Options struct {
	Rules     models.ShippingRules
	StoreName string
}

func NewService(
	pricer *pricing.Resolver,
	coupons *coupon.Resolver,
	orders OrderService,
	gw PaymentGateway,
	store SuccessStore,
	events EventPublisher,
	opts Options,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		pricing:   pricer,
		coupons:   coupons,
		orders:    orders,
		gateway:   gw,
		store:     store,
		events:    events,
		rules:     opts.Rules,
		storeName: opts.StoreName,
		log:       log,
		now:       time.Now,
	}
}

var tracer = otel.Tracer("checkout-service/checkout")

// CartView is the cart sidebar: lines and flat-price totals.
type CartView struct {
	Items   []models.CartLine  `json:"items"`
	Summary models.OrderTotals `json:"summary"`
	Count   int                `json:"itemsCount"`
}

// View is the checkout page.
type View struct {
	Items   []models.CartLine            `json:"items"`
	Pricing []models.ResolvedLinePricing `json:"pricing"`
	Totals  models.OrderTotals           `json:"totals"`
	Coupon  models.CouponState           `json:"coupon"`
	Form    Form                         `json:"form"`
	State   State                        `json:"state"`
	Error   string                       `json:"error,omitempty"`
}

// StatusView reports where a submission stands.
type StatusView struct {
	State    State                   `json:"state"`
	Error    string                  `json:"error,omitempty"`
	Checkout *models.GatewayCheckout `json:"checkout,omitempty"`
	// Notice is an informational message, e.g. after a cancelled payment.
	Notice string `json:"notice,omitempty"`
}

// Cart returns the session cart with provisional totals.
func (s *Service) Cart(sess *Session) CartView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	lines := sess.cart.Items()
	return CartView{
		Items:   lines,
		Summary: totals.Provisional(lines, sess.coupon.DiscountAmount, s.rules),
		Count:   sess.cart.ItemCount(),
	}
}

// AddItem normalises raw and adds it to the cart. The first add after a
// placed order starts a new cart session.
func (s *Service) AddItem(ctx context.Context, sess *Session, raw models.RawCartItem) (models.CartLine, error) {
	line, err := cart.Normalize(raw)
	if err != nil {
		return models.CartLine{}, err
	}

	sess.mu.Lock()
	if sess.submittingLocked() {
		sess.mu.Unlock()
		return models.CartLine{}, submissionInProgress("checkout.AddItem")
	}
	restarted := sess.state == StateSucceeded
	if restarted {
		sess.state = StateIdle
		sess.lastErr = ""
	}
	stored, err := sess.cart.Add(line)
	sess.mu.Unlock()
	if err != nil {
		return models.CartLine{}, err
	}

	if restarted {
		if err := s.store.Clear(ctx, sess.ID); err != nil {
			s.log.WithError(err).WithField("session", sess.ID).Warn("failed to clear previous order success record")
		}
	}
	return stored, nil
}

func (s *Service) UpdateQuantity(sess *Session, lineID string, quantity int) (models.CartLine, error) {
	return mutateCart(sess, "checkout.UpdateQuantity", func(c *cart.Store) (models.CartLine, error) {
		return c.UpdateQuantity(lineID, quantity)
	})
}

func (s *Service) RemoveItem(sess *Session, lineID string) error {
	_, err := mutateCart(sess, "checkout.RemoveItem", func(c *cart.Store) (models.CartLine, error) {
		return models.CartLine{}, c.Remove(lineID)
	})
	return err
}

func (s *Service) ClearCart(sess *Session) error {
	_, err := mutateCart(sess, "checkout.ClearCart", func(c *cart.Store) (models.CartLine, error) {
		c.Clear()
		return models.CartLine{}, nil
	})
	return err
}

func mutateCart(sess *Session, op string, fn func(*cart.Store) (models.CartLine, error)) (models.CartLine, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.submittingLocked() {
		return models.CartLine{}, submissionInProgress(op)
	}
	line, err := fn(sess.cart)
	if err == nil {
		sess.editedLocked()
	}
	return line, err
}

// Summary prices every line, re-validates the applied coupon when the
// subtotal moved since it was validated, and aggregates the totals.
func (s *Service) Summary(ctx context.Context, sess *Session) View {
	sess.mu.Lock()
	lines := sess.cart.Items()
	sess.mu.Unlock()

	resolved := s.pricing.ResolveAll(ctx, lines)
	subtotal := totals.Aggregate(resolved, decimal.Zero, s.rules).Subtotal
	s.revalidateCoupon(ctx, sess, subtotal)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return View{
		Items:   lines,
		Pricing: resolved,
		Totals:  totals.Aggregate(resolved, sess.coupon.DiscountAmount, s.rules),
		Coupon:  sess.coupon,
		Form:    sess.form.Snapshot(),
		State:   sess.state,
		Error:   sess.lastErr,
	}
}

func (s *Service) revalidateCoupon(ctx context.Context, sess *Session, subtotal decimal.Decimal) {
	sess.mu.Lock()
	current := sess.coupon
	sess.mu.Unlock()

	if current.Status != models.CouponApplied || current.ValidatedSubtotal.Equal(subtotal) {
		return
	}

	next := current
	err := s.coupons.Apply(ctx, &next, current.Code, subtotal)
	log := s.log.WithFields(logrus.Fields{"session": sess.ID, "code": current.Code})
	if err != nil && !apperr.Is(err, apperr.KindCoupon) {
		log.WithError(err).Warn("coupon re-validation unavailable, keeping applied coupon")
		return
	}
	if err != nil {
		log.WithField("reason", next.Reason).Info("applied coupon no longer valid")
	}

	sess.mu.Lock()
	if !sess.submittingLocked() && sess.coupon.Code == current.Code && sess.coupon.Status == models.CouponApplied {
		sess.coupon = next
	}
	sess.mu.Unlock()
}

func (s *Service) subtotal(ctx context.Context, sess *Session) decimal.Decimal {
	sess.mu.Lock()
	lines := sess.cart.Items()
	sess.mu.Unlock()
	return totals.Aggregate(s.pricing.ResolveAll(ctx, lines), decimal.Zero, s.rules).Subtotal
}

// ApplyCoupon validates code against the current subtotal. The result is
// discarded if a submission started or completed while it was validating.
func (s *Service) ApplyCoupon(ctx context.Context, sess *Session, code string) (models.CouponState, error) {
	const op = "checkout.ApplyCoupon"

	sess.mu.Lock()
	if sess.submittingLocked() {
		sess.mu.Unlock()
		return models.CouponState{}, submissionInProgress(op)
	}
	gen := sess.orders
	sess.mu.Unlock()

	subtotal := s.subtotal(ctx, sess)

	sess.mu.Lock()
	next := sess.coupon
	sess.coupon.Status = models.CouponPending
	sess.mu.Unlock()

	err := s.coupons.Apply(ctx, &next, code, subtotal)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.submittingLocked() || sess.orders != gen {
		return models.CouponState{}, submissionInProgress(op)
	}
	sess.coupon = next
	return next, err
}

func (s *Service) RemoveCoupon(sess *Session) (models.CouponState, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.submittingLocked() {
		return models.CouponState{}, submissionInProgress("checkout.RemoveCoupon")
	}
	s.coupons.Remove(&sess.coupon)
	return sess.coupon, nil
}

func (s *Service) AvailableCoupons(ctx context.Context, sess *Session) ([]models.Coupon, error) {
	return s.coupons.Available(ctx, s.subtotal(ctx, sess))
}

// SetField updates one form field.
func (s *Service) SetField(sess *Session, field, value string) (Form, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.form.Set(field, value) {
		return Form{}, apperr.New(apperr.KindInvalidInput, "checkout.SetField", fmt.Sprintf("Invalid value for %s", field))
	}
	sess.editedLocked()
	return sess.form.Snapshot(), nil
}

// BlurField validates one form field.
func (s *Service) BlurField(sess *Session, field string) (Form, error) {
	if !KnownField(field) {
		return Form{}, apperr.New(apperr.KindInvalidInput, "checkout.BlurField", fmt.Sprintf("Unknown field %s", field))
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.form.Blur(field)
	return sess.form.Snapshot(), nil
}

func (s *Service) Status(sess *Session) StatusView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	v := StatusView{State: sess.state, Error: sess.lastErr}
	if sess.checkout != nil {
		co := *sess.checkout
		v.Checkout = &co
	}
	return v
}

// SuccessRecord returns the session's last placed order.
func (s *Service) SuccessRecord(ctx context.Context, sess *Session) (*models.OrderSuccessRecord, error) {
	const op = "checkout.SuccessRecord"
	rec, err := s.store.Load(ctx, sess.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, op, "No recent order found", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, op, "Could not load order details", err)
	}
	return rec, nil
}

// Submit places the session's order. Only one submission per session runs at
// a time; a concurrent call is refused without touching any collaborator.
func (s *Service) Submit(ctx context.Context, sess *Session) (*models.OrderSuccessRecord, error) {
	const op = "checkout.Submit"

	sess.mu.Lock()
	switch {
	case sess.submittingLocked():
		sess.mu.Unlock()
		return nil, submissionInProgress(op)
	case sess.customer == nil:
		sess.mu.Unlock()
		return nil, &apperr.Error{Kind: apperr.KindUnauthenticated, Op: op, Message: "Please log in to place your order", Redirect: LoginRedirect}
	case sess.cart.Len() == 0:
		sess.mu.Unlock()
		return nil, apperr.New(apperr.KindPrecondition, op, "Your cart is empty")
	}

	sess.state = StateValidating
	if errs := sess.form.ValidateAll(); len(errs) > 0 {
		sess.state = StateFormInvalid
		sess.lastErr = "Please fix the errors in the form"
		fields := make(map[string]string, len(errs))
		for k, v := range errs {
			fields[k] = v
		}
		sess.mu.Unlock()
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Message: "Please fix the errors in the form", Fields: fields}
	}

	sess.state = StateSubmitting
	sess.lastErr = ""
	lines := sess.cart.Items()
	form := sess.form.Values
	couponState := sess.coupon
	customer := *sess.customer
	sess.mu.Unlock()

	// Once remote calls start, the attempt outlives the request that began
	// it: the shopper may still be paying after the connection drops.
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "checkout.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.method", string(form.PaymentMethod)),
		attribute.Int("cart.lines", len(lines)),
	)

	sub := buildSubmission(form, lines, couponState)
	log := s.log.WithFields(logrus.Fields{
		"session":       sess.ID,
		"customer":      customer.ID,
		"paymentMethod": form.PaymentMethod,
	})

	var placed *models.PlacedOrder
	var err error
	if form.PaymentMethod == models.PaymentCOD {
		placed, err = s.orders.CreateCODOrder(ctx, sub)
		if err != nil {
			err = orderError(op, "Failed to place order", err)
		}
	} else {
		placed, err = s.payOnline(ctx, sess, sub)
	}

	if err != nil {
		if apperr.Is(err, apperr.KindCancelled) {
			log.Info("payment cancelled by shopper")
			sess.finish(StateIdle, "")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		log.WithError(err).Error("order submission failed")
		sess.finish(StateFailed, apperr.MessageOf(err))
		return nil, err
	}

	rec := models.OrderSuccessRecord{
		OrderNumber:   placed.OrderNumber,
		TotalAmount:   placed.TotalAmount,
		Items:         lines,
		PaymentMethod: form.PaymentMethod,
		Status:        StatusConfirmed,
		PlacedAt:      s.now().UTC(),
		Redirect:      ConfirmationRoute,
	}
	if err := s.store.Save(ctx, sess.ID, rec); err != nil {
		log.WithError(err).Error("failed to persist order success record")
	}

	sess.mu.Lock()
	sess.cart.Clear()
	sess.coupon = coupon.NewState()
	sess.orders++
	sess.state = StateSucceeded
	sess.lastErr = ""
	sess.mu.Unlock()

	log.WithFields(logrus.Fields{
		"orderNumber": rec.OrderNumber,
		"totalAmount": rec.TotalAmount.String(),
	}).Info("order placed")

	s.publish(ctx, log, models.OrderConfirmedEvent{
		EventID:       uuid.New().String(),
		SessionID:     sess.ID,
		CustomerID:    customer.ID,
		OrderNumber:   rec.OrderNumber,
		TotalAmount:   rec.TotalAmount,
		PaymentMethod: rec.PaymentMethod,
		Items:         sub.OrderItems,
		PlacedAt:      rec.PlacedAt,
	})
	return &rec, nil
}

// payOnline runs initiate, hosted checkout and verify.
func (s *Service) payOnline(ctx context.Context, sess *Session, sub models.OrderSubmission) (*models.PlacedOrder, error) {
	const op = "checkout.payOnline"

	init, err := s.orders.InitiatePayment(ctx, sub)
	if err != nil {
		return nil, orderError(op, "Failed to initiate payment", err)
	}

	co := models.GatewayCheckout{
		GatewayOrderID: init.GatewayOrder.ID,
		Amount:         init.GatewayOrder.Amount,
		Currency:       init.GatewayOrder.Currency,
		Name:           s.storeName,
		Description:    "Order Payment - " + init.TempOrderData.OrderNumber,
		Prefill: models.Prefill{
			Name:    sub.Name,
			Email:   sub.Email,
			Contact: sub.Phone,
		},
	}
	result, err := s.gateway.Open(ctx, co, func() { sess.setCheckout(&co) })
	sess.setCheckout(nil)

	if err != nil {
		var failure *gateway.FailureError
		switch {
		case errors.Is(err, gateway.ErrCancelled):
			return nil, apperr.Wrap(apperr.KindCancelled, op, "Payment cancelled", err)
		case errors.As(err, &failure):
			return nil, apperr.Wrap(apperr.KindPayment, op, "Payment failed: "+failure.Reason, err)
		default:
			return nil, apperr.Wrap(apperr.KindPayment, op, "Payment failed", err)
		}
	}

	placed, err := s.orders.VerifyPayment(ctx, *result, sub)
	if err != nil {
		return nil, orderError(op, "Payment verification failed", err)
	}
	return placed, nil
}

func (s *Service) publish(ctx context.Context, log logrus.FieldLogger, event models.OrderConfirmedEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderConfirmed(ctx, event); err != nil {
		log.WithError(err).Warn("failed to publish order confirmed event")
	}
}

// buildSubmission maps the form and cart to the order service payload.
// productVariantId is only sent when it names a real variant.
func buildSubmission(form models.CheckoutForm, lines []models.CartLine, cs models.CouponState) models.OrderSubmission {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		item := models.OrderItem{ProductID: l.Product.ID, Quantity: l.Quantity}
		if l.Variant != nil && l.Variant.ID != "" && l.Variant.ID != l.Product.ID {
			item.ProductVariantID = l.Variant.ID
		}
		items = append(items, item)
	}

	var code *string
	if cs.Status == models.CouponApplied && cs.AppliedCoupon != nil {
		c := cs.AppliedCoupon.Code
		code = &c
	}

	pm := form.PaymentMethod
	if pm == "" {
		pm = models.PaymentOnline
	}
	return models.OrderSubmission{
		Name:          form.Name,
		Email:         form.Email,
		Phone:         form.Phone,
		Address:       form.Address,
		City:          form.City,
		State:         form.State,
		Pincode:       form.Pincode,
		PaymentMethod: pm,
		OrderItems:    items,
		CouponCode:    code,
	}
}

// orderError classifies an order service failure. A response from the
// service is a payment error carrying its message; anything else means the
// service could not be reached.
func orderError(op, fallback string, err error) error {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		return apperr.Wrap(apperr.KindPayment, op, msg, err)
	}
	return apperr.Wrap(apperr.KindUnavailable, op, fallback+", please try again", err)
}

func submissionInProgress(op string) error {
	return apperr.New(apperr.KindConflict, op, "An order submission is already in progress")
}
