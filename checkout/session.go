package checkout

import (
	"sync"

	"checkout-service/cart"
	"checkout-service/coupon"
	"checkout-service/models"
)

// State is the order submission state of a session.
type State string

const (
	StateIdle        State = "idle"
	StateFormInvalid State = "form_invalid"
	StateValidating  State = "validating"
	StateSubmitting  State = "submitting"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// Session is one shopper's checkout: cart, coupon, form and submission state.
// All fields are guarded by mu; remote calls are made without holding it.
type Session struct {
	ID string

	mu       sync.Mutex
	customer *models.Customer
	cart     *cart.Store
	coupon   models.CouponState
	form     *Form
	state    State
	lastErr  string
	checkout *models.GatewayCheckout
	// orders counts placed orders.
	orders int
}

func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		cart:   cart.NewStore(),
		coupon: coupon.NewState(),
		form:   NewForm(nil),
		state:  StateIdle,
	}
}

// Authenticate records the shopper for this request. The form is prefilled
// from the profile the first time a customer is seen.
func (s *Session) Authenticate(c *models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == nil {
		s.customer = nil
		return
	}
	if s.customer == nil || s.customer.ID != c.ID {
		if s.customer != nil || !s.formEdited() {
			s.form = NewForm(c)
		}
	}
	cust := *c
	s.customer = &cust
}

func (s *Session) formEdited() bool {
	return len(s.form.Touched) > 0 || s.form.Values != NewForm(nil).Values
}

// Customer returns the authenticated shopper, or nil.
func (s *Session) Customer() *models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customer == nil {
		return nil
	}
	c := *s.customer
	return &c
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingCheckout returns the gateway checkout awaiting the shopper, if any.
func (s *Session) PendingCheckout() (models.GatewayCheckout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil {
		return models.GatewayCheckout{}, false
	}
	return *s.checkout, true
}

func (s *Session) setCheckout(co *models.GatewayCheckout) {
	s.mu.Lock()
	s.checkout = co
	s.mu.Unlock()
}

// finish ends a submission attempt in state with an optional message.
func (s *Session) finish(state State, msg string) {
	s.mu.Lock()
	s.state = state
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *Session) submittingLocked() bool {
	return s.state == StateValidating || s.state == StateSubmitting
}

// editedLocked returns an ended attempt to Idle once the shopper edits.
func (s *Session) editedLocked() {
	if s.state == StateFormInvalid || s.state == StateFailed {
		s.state = StateIdle
		s.lastErr = ""
	}
}

// Sessions is the registry of live sessions keyed by session id.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating an empty one if needed.
func (r *Sessions) GetOrCreate(id string) *Session {
	if s, ok := r.Get(id); ok {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := NewSession(id)
	r.sessions[id] = s
	return s
}

func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
