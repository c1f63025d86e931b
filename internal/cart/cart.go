package cart

import (
	"errors"
	"strings"

	"github.com/noah-isme/backend-irnby/internal/common"
	"github.com/noah-isme/backend-irnby/internal/pricing"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Line is one course entry in the cart with its own quantity and derived
// discounted price.
type Line struct {
	CourseID        string         `json:"courseId"`
	Title           string         `json:"title"`
	Price           pricing.Money  `json:"price"`
	Image           string         `json:"image"`
	Quantity        int            `json:"quantity"`
	DiscountedPrice *pricing.Money `json:"discountedPrice,omitempty"`
}

// State is the full cart snapshot: at most one line per course id, every
// quantity >= 1. The zero value is an empty cart.
type State struct {
	Lines []Line `json:"items"`
}

// Item describes a course being added to the cart.
type Item struct {
	CourseID string
	Title    string
	Price    pricing.Money
	Image    string
}

// Service encapsulates cart mutations and aggregate queries. Discounted unit
// prices are recomputed over the whole cart after every mutation because the
// qualifying tier depends on the global total quantity.
type Service struct {
	Tiers []pricing.Tier
}

// NewService constructs a cart service over the given tier table, falling
// back to the default storefront tiers.
func NewService(tiers []pricing.Tier) *Service {
	if len(tiers) == 0 {
		tiers = pricing.DefaultTiers
	}
	return &Service{Tiers: tiers}
}

// AddItem increments the quantity of an existing line or appends a new line
// with quantity 1, then recomputes discounts for every line.
func (s *Service) AddItem(st *State, item Item) error {
	if st == nil {
		return errors.New("cart state is required")
	}
	if strings.TrimSpace(item.CourseID) == "" {
		return common.BadRequest("courseId is required", ErrInvalidInput)
	}
	if item.Price <= 0 {
		return common.BadRequest("price must be positive", ErrInvalidInput)
	}
	for i := range st.Lines {
		if st.Lines[i].CourseID == item.CourseID {
			st.Lines[i].Quantity++
			s.recalculate(st)
			return nil
		}
	}
	st.Lines = append(st.Lines, Line{
		CourseID: item.CourseID,
		Title:    item.Title,
		Price:    item.Price,
		Image:    item.Image,
		Quantity: 1,
	})
	s.recalculate(st)
	return nil
}

// RemoveItem deletes the matching line and recomputes discounts for the rest.
func (s *Service) RemoveItem(st *State, courseID string) {
	if st == nil {
		return
	}
	kept := st.Lines[:0]
	for _, line := range st.Lines {
		if line.CourseID != courseID {
			kept = append(kept, line)
		}
	}
	st.Lines = kept
	s.recalculate(st)
}

// UpdateQuantity sets the quantity for a line. A quantity of zero or less
// removes the line.
func (s *Service) UpdateQuantity(st *State, courseID string, quantity int) {
	if st == nil {
		return
	}
	if quantity <= 0 {
		s.RemoveItem(st, courseID)
		return
	}
	for i := range st.Lines {
		if st.Lines[i].CourseID == courseID {
			st.Lines[i].Quantity = quantity
			break
		}
	}
	s.recalculate(st)
}

// Clear empties the cart.
func (s *Service) Clear(st *State) {
	if st == nil {
		return
	}
	st.Lines = nil
}

// TotalItems returns the sum of quantities across all lines.
func (s *Service) TotalItems(st State) int {
	total := 0
	for _, line := range st.Lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice returns the pre-discount baseline over all lines.
func (s *Service) TotalPrice(st State) pricing.Money {
	var total pricing.Money
	for _, line := range st.Lines {
		total += line.Price * pricing.Money(line.Quantity)
	}
	return total
}

// ApplicableTier returns the discount tier qualifying for the current total
// quantity, if any.
func (s *Service) ApplicableTier(st State) (pricing.Tier, bool) {
	return pricing.ApplicableTier(s.Tiers, s.TotalItems(st))
}

// DiscountAmount returns the cart-level discount in whole currency units.
func (s *Service) DiscountAmount(st State) pricing.Money {
	tier, ok := s.ApplicableTier(st)
	if !ok {
		return 0
	}
	return pricing.DiscountAmount(s.TotalPrice(st), tier.Percentage)
}

// FinalPrice returns the post-discount total.
func (s *Service) FinalPrice(st State) pricing.Money {
	return s.TotalPrice(st) - s.DiscountAmount(st)
}

// IsInCart reports whether a course is present.
func (s *Service) IsInCart(st State, courseID string) bool {
	for _, line := range st.Lines {
		if line.CourseID == courseID {
			return true
		}
	}
	return false
}

// recalculate reapplies the current tier to every line. When no tier
// qualifies, discounted prices are cleared rather than left stale.
func (s *Service) recalculate(st *State) {
	tier, ok := pricing.ApplicableTier(s.Tiers, s.TotalItems(*st))
	for i := range st.Lines {
		if !ok {
			st.Lines[i].DiscountedPrice = nil
			continue
		}
		discounted := pricing.DiscountedUnit(st.Lines[i].Price, tier.Percentage)
		st.Lines[i].DiscountedPrice = &discounted
	}
}
