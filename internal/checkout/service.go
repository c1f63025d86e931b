package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-irnby/internal/payment"
	"github.com/noah-isme/backend-irnby/internal/pricing"
)

// ErrInvalidInput marks checkout requests that fail validation.
var ErrInvalidInput = errors.New("checkout: invalid input")

// Item is one cart row submitted for checkout. Prices are whole currency
// units. DiscountedPrice is accepted on the wire but never trusted: the
// discounted unit amount is recomputed from Price and the server-side tier.
type Item struct {
	CourseID        string         `json:"courseId" validate:"required"`
	Title           string         `json:"title" validate:"required"`
	Price           pricing.Money  `json:"price" validate:"gt=0"`
	DiscountedPrice *pricing.Money `json:"discountedPrice"`
	Quantity        int            `json:"quantity" validate:"gt=0"`
	Image           string         `json:"image"`
}

// Input is the checkout request body. Either the single-course fields
// (courseId, courseName, price) or the items list must be present.
// TotalQuantity is accepted for wire compatibility but the tier is always
// recomputed from the item quantities.
type Input struct {
	CourseID      string        `json:"courseId"`
	CourseName    string        `json:"courseName"`
	Price         pricing.Money `json:"price"`
	Quantity      int           `json:"quantity"`
	Items         []Item        `json:"items"`
	TotalQuantity int           `json:"totalQuantity"`
	UserID        string        `json:"userId"`
	UserEmail     string        `json:"userEmail" validate:"omitempty,email"`
}

// Service assembles hosted checkout sessions from validated cart contents.
type Service struct {
	provider payment.Provider
	validate *validator.Validate
	tiers    []pricing.Tier
	baseURL  string
	currency string
}

func NewService(provider payment.Provider, baseURL, currency string, tiers []pricing.Tier) *Service {
	if len(tiers) == 0 {
		tiers = pricing.DefaultTiers
	}
	if currency == "" {
		currency = "rub"
	}
	return &Service{
		provider: provider,
		validate: validator.New(),
		tiers:    tiers,
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: currency,
	}
}

// Build validates the input, prices the line items server-side and opens a
// session with the payment provider. Tier discounts only apply to the cart
// shape; a single-course purchase is always priced at the literal amount, no
// matter the quantity.
func (s *Service) Build(ctx context.Context, in Input) (payment.Session, error) {
	if s.provider == nil {
		return payment.Session{}, payment.ErrNotConfigured
	}
	items, fromCart, err := s.normalize(in)
	if err != nil {
		return payment.Session{}, err
	}

	var tier pricing.Tier
	hasTier := false
	if fromCart {
		totalQty := 0
		for _, it := range items {
			totalQty += it.Quantity
		}
		tier, hasTier = pricing.ApplicableTier(s.tiers, totalQty)
	}

	lines := make([]payment.LineItem, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		unit := it.Price
		if hasTier {
			unit = pricing.DiscountedUnit(it.Price, tier.Percentage)
		}
		lines = append(lines, payment.LineItem{
			Name:       it.Title,
			UnitAmount: pricing.MinorUnits(unit),
			Quantity:   it.Quantity,
		})
		ids = append(ids, it.CourseID)
	}

	meta := map[string]string{"courseId": strings.Join(ids, ",")}
	if len(items) > 1 {
		meta["courseBundle"] = fmt.Sprintf("Пакет из %d курсов", len(items))
	}
	if hasTier {
		meta["discount"] = strconv.Itoa(tier.Percentage) + "%"
		meta["discount_description"] = tier.Description
	}

	referenceID := in.UserID
	if referenceID == "" {
		referenceID = "guest"
	}

	sess, err := s.provider.CreateSession(ctx, payment.SessionRequest{
		Currency:          s.currency,
		SuccessURL:        s.baseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.baseURL + "/payment/cancel",
		CustomerEmail:     in.UserEmail,
		ClientReferenceID: referenceID,
		Metadata:          meta,
		LineItems:         lines,
	})
	if err != nil {
		return payment.Session{}, fmt.Errorf("checkout: create session: %w", err)
	}
	return sess, nil
}

// normalize turns either request shape into a non-empty item list. The
// second return reports whether the list came from a cart payload, which is
// the only shape eligible for tier discounts.
func (s *Service) normalize(in Input) ([]Item, bool, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if len(in.Items) > 0 {
		for i, it := range in.Items {
			if err := s.validate.Struct(it); err != nil {
				return nil, false, fmt.Errorf("%w: items[%d]: %v", ErrInvalidInput, i, err)
			}
		}
		return in.Items, true, nil
	}

	if in.CourseID == "" || in.CourseName == "" || in.Price <= 0 {
		return nil, false, fmt.Errorf("%w: either items or courseId, courseName and price are required", ErrInvalidInput)
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}
	return []Item{{CourseID: in.CourseID, Title: in.CourseName, Price: in.Price, Quantity: qty}}, false, nil
}
