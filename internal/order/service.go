package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrInvalidInput marks purchases that cannot be recorded as-is.
var ErrInvalidInput = errors.New("order: invalid input")

// Purchase is one confirmed order produced by a completed checkout session.
// Amount is in minor currency units as reported by the payment provider.
type Purchase struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerName  string    `json:"customerName"`
	CourseIDs     []string  `json:"courseIds"`
	Description   string    `json:"description"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Notifier receives confirmed purchases, e.g. to send a confirmation email.
type Notifier interface {
	OrderConfirmed(ctx context.Context, p Purchase) error
}

// Service keeps an in-memory ledger of confirmed purchases, idempotent by
// order id, and fans confirmations out to registered notifiers.
type Service struct {
	mu        sync.RWMutex
	byOrderID map[string]Purchase
	notifiers []Notifier
	now       func() time.Time
}

func NewService(notifiers ...Notifier) *Service {
	return &Service{
		byOrderID: make(map[string]Purchase),
		notifiers: notifiers,
		now:       time.Now,
	}
}

// Record stores the purchase unless one with the same order id already
// exists. It returns false without side effects for duplicates, so replayed
// webhook deliveries do not notify twice.
func (s *Service) Record(ctx context.Context, p Purchase) (bool, error) {
	if strings.TrimSpace(p.OrderID) == "" {
		return false, fmt.Errorf("%w: missing order id", ErrInvalidInput)
	}
	if p.UserID == "" {
		p.UserID = "guest"
	}

	s.mu.Lock()
	if _, exists := s.byOrderID[p.OrderID]; exists {
		s.mu.Unlock()
		return false, nil
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.byOrderID[p.OrderID] = p
	s.mu.Unlock()

	var errs []error
	for _, n := range s.notifiers {
		if err := n.OrderConfirmed(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return true, errors.Join(errs...)
}

// List returns the purchases recorded for a user, newest first.
func (s *Service) List(userID string) []Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Purchase
	for _, p := range s.byOrderID {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Get returns one purchase by order id.
func (s *Service) Get(orderID string) (Purchase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byOrderID[orderID]
	return p, ok
}
