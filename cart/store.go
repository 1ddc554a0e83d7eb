package cart

import (
	"sync"

	"checkout-service/apperr"
	"checkout-service/models"

	"github.com/google/uuid"
)

const (
	ErrMsgQuantityPositive = "Quantity must be at least 1"
	ErrMsgItemNotInCart    = "Item not in cart"
)

// Store is one session's cart. Lines keep insertion order.
type Store struct {
	mu    sync.RWMutex
	lines []models.CartLine
}

func NewStore() *Store {
	return &Store{}
}

// Add inserts line, or increases the quantity of the line holding the same
// product and variant. It returns the stored line.
func (s *Store) Add(line models.CartLine) (models.CartLine, error) {
	if line.Quantity < 1 {
		return models.CartLine{}, apperr.New(apperr.KindInvalidInput, "cart.Add", ErrMsgQuantityPositive)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.lines {
		if sameItem(existing, line) {
			s.lines[i].Quantity += line.Quantity
			return s.lines[i], nil
		}
	}
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	s.lines = append(s.lines, line)
	return line, nil
}

// UpdateQuantity sets the quantity of a line. Quantities below one are
// rejected rather than stored.
func (s *Store) UpdateQuantity(lineID string, quantity int) (models.CartLine, error) {
	const op = "cart.UpdateQuantity"
	if quantity < 1 {
		return models.CartLine{}, apperr.New(apperr.KindInvalidInput, op, ErrMsgQuantityPositive)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines[i].Quantity = quantity
			return s.lines[i], nil
		}
	}
	return models.CartLine{}, apperr.New(apperr.KindNotFound, op, ErrMsgItemNotInCart)
}

func (s *Store) Remove(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return nil
		}
	}
	return apperr.New(apperr.KindNotFound, "cart.Remove", ErrMsgItemNotInCart)
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CartLine, len(s.lines))
	for i, l := range s.lines {
		if l.Variant != nil {
			v := *l.Variant
			l.Variant = &v
		}
		out[i] = l
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// ItemCount is the total number of units across lines.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func sameItem(a, b models.CartLine) bool {
	if a.Product.ID != b.Product.ID {
		return false
	}
	switch {
	case a.Variant == nil && b.Variant == nil:
		return true
	case a.Variant == nil || b.Variant == nil:
		return false
	default:
		return a.Variant.ID == b.Variant.ID
	}
}
