package pricing

// Money represents a monetary value stored in whole currency units (rubles).
type Money = int64

// Tier maps a total cart quantity threshold to a percentage discount.
type Tier struct {
	Threshold   int
	Percentage  int
	Description string
}

// DefaultTiers is the storefront's quantity-based discount table.
var DefaultTiers = []Tier{
	{Threshold: 2, Percentage: 5, Description: "5% скидка при покупке 2 курсов"},
	{Threshold: 3, Percentage: 10, Description: "10% скидка при покупке 3 курсов"},
	{Threshold: 5, Percentage: 15, Description: "15% скидка при покупке 5 курсов"},
}

// ApplicableTier selects the tier with the highest threshold still met by
// totalQty. At most one tier applies; tiers never stack.
func ApplicableTier(tiers []Tier, totalQty int) (Tier, bool) {
	var (
		best  Tier
		found bool
	)
	for _, tier := range tiers {
		if totalQty < tier.Threshold {
			continue
		}
		if !found || tier.Threshold > best.Threshold {
			best = tier
			found = true
		}
	}
	return best, found
}

// DiscountAmount computes the discount over a pre-discount total, rounded to
// the nearest whole currency unit.
func DiscountAmount(total Money, percentage int) Money {
	if percentage <= 0 || total <= 0 {
		return 0
	}
	return (total*Money(percentage) + 50) / 100
}

// DiscountedUnit computes a per-unit price with the percentage applied,
// rounded to the nearest whole currency unit.
func DiscountedUnit(price Money, percentage int) Money {
	if percentage <= 0 {
		return price
	}
	if percentage >= 100 {
		return 0
	}
	return (price*Money(100-percentage) + 50) / 100
}

// MinorUnits converts a whole-unit amount into the payment provider's minor
// unit convention (multiply by 100).
func MinorUnits(amount Money) int64 {
	return amount * 100
}
