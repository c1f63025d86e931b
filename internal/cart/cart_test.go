package cart

import (
	"errors"
	"testing"

	"github.com/noah-isme/backend-irnby/internal/pricing"
)

func addAll(t *testing.T, svc *Service, st *State, items ...Item) {
	t.Helper()
	for _, it := range items {
		if err := svc.AddItem(st, it); err != nil {
			t.Fatalf("AddItem(%s): %v", it.CourseID, err)
		}
	}
}

func TestAddItemKeepsOneLinePerCourse(t *testing.T) {
	svc := NewService(nil)
	st := State{}
	item := Item{CourseID: "a", Title: "Курс A", Price: 3000}

	addAll(t, svc, &st, item, item, item)
	if len(st.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(st.Lines))
	}
	if st.Lines[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", st.Lines[0].Quantity)
	}
}

func TestAddItemValidation(t *testing.T) {
	svc := NewService(nil)
	st := State{}
	if err := svc.AddItem(&st, Item{CourseID: "", Price: 100}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if err := svc.AddItem(&st, Item{CourseID: "a", Price: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if len(st.Lines) != 0 {
		t.Fatalf("invalid adds mutated the cart: %+v", st.Lines)
	}
}

func TestTierDependsOnTotalQuantityOnly(t *testing.T) {
	svc := NewService(nil)

	cases := []struct {
		name    string
		items   []Item
		extra   func(st *State)
		wantPct int
	}{
		{"single item no tier", []Item{{CourseID: "a", Price: 3000}}, nil, 0},
		{"two distinct items", []Item{{CourseID: "a", Price: 3000}, {CourseID: "b", Price: 4500}}, nil, 5},
		{"same item twice", []Item{{CourseID: "a", Price: 3000}, {CourseID: "a", Price: 3000}}, nil, 5},
		{"three total", []Item{{CourseID: "a", Price: 3000}, {CourseID: "b", Price: 4500}, {CourseID: "b", Price: 4500}}, nil, 10},
		{"five total", []Item{{CourseID: "a", Price: 3000}}, func(st *State) {
			svc.UpdateQuantity(st, "a", 5)
		}, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := State{}
			addAll(t, svc, &st, tc.items...)
			if tc.extra != nil {
				tc.extra(&st)
			}
			tier, ok := svc.ApplicableTier(st)
			if tc.wantPct == 0 {
				if ok {
					t.Fatalf("unexpected tier %+v", tier)
				}
				return
			}
			if !ok || tier.Percentage != tc.wantPct {
				t.Fatalf("tier = %+v ok=%v, want %d%%", tier, ok, tc.wantPct)
			}
		})
	}
}

func TestThirdProductRepricesExistingLines(t *testing.T) {
	svc := NewService(nil)
	st := State{}
	addAll(t, svc, &st,
		Item{CourseID: "a", Price: 3000},
		Item{CourseID: "b", Price: 4500},
	)
	// 5% tier: both lines repriced
	for _, line := range st.Lines {
		if line.DiscountedPrice == nil {
			t.Fatalf("line %s missing discounted price at 5%% tier", line.CourseID)
		}
	}
	if got := *st.Lines[0].DiscountedPrice; got != 2850 {
		t.Fatalf("line a discounted = %d, want 2850", got)
	}

	addAll(t, svc, &st, Item{CourseID: "c", Price: 2500})
	// 10% tier: pre-existing lines repriced again
	if got := *st.Lines[0].DiscountedPrice; got != 2700 {
		t.Fatalf("line a discounted = %d, want 2700 after third product", got)
	}
	if got := *st.Lines[1].DiscountedPrice; got != 4050 {
		t.Fatalf("line b discounted = %d, want 4050", got)
	}
}

func TestRemovalBelowThresholdClearsDiscounts(t *testing.T) {
	svc := NewService(nil)
	st := State{}
	addAll(t, svc, &st,
		Item{CourseID: "a", Price: 3000},
		Item{CourseID: "b", Price: 4500},
	)
	svc.RemoveItem(&st, "b")

	if len(st.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(st.Lines))
	}
	if st.Lines[0].DiscountedPrice != nil {
		t.Fatalf("stale discounted price survived below threshold")
	}
	if svc.DiscountAmount(st) != 0 {
		t.Fatalf("discount = %d, want 0", svc.DiscountAmount(st))
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc := NewService(nil)
	st := State{}
	addAll(t, svc, &st, Item{CourseID: "a", Price: 3000}, Item{CourseID: "b", Price: 4500})

	svc.UpdateQuantity(&st, "a", 0)
	if svc.IsInCart(st, "a") {
		t.Fatalf("line a still present after quantity 0")
	}
	if len(st.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(st.Lines))
	}
}

func TestTotalsIdentity(t *testing.T) {
	svc := NewService(nil)
	st := State{}
	addAll(t, svc, &st,
		Item{CourseID: "a", Price: 3000},
		Item{CourseID: "b", Price: 4505},
		Item{CourseID: "c", Price: 2500},
	)

	total := svc.TotalPrice(st)
	if total != 10005 {
		t.Fatalf("total = %d, want 10005", total)
	}
	if got := svc.DiscountAmount(st) + svc.FinalPrice(st); got != total {
		t.Fatalf("discount+final = %d, want %d", got, total)
	}
	// 10% of 10005 rounds half up
	if svc.DiscountAmount(st) != 1001 {
		t.Fatalf("discount = %d, want 1001", svc.DiscountAmount(st))
	}
}

func TestClear(t *testing.T) {
	svc := NewService(nil)
	st := State{}
	addAll(t, svc, &st, Item{CourseID: "a", Price: 3000})
	svc.Clear(&st)
	if svc.TotalItems(st) != 0 || len(st.Lines) != 0 {
		t.Fatalf("cart not empty after Clear: %+v", st)
	}
}

func TestCustomTierTable(t *testing.T) {
	svc := NewService([]pricing.Tier{{Threshold: 10, Percentage: 50, Description: "half"}})
	st := State{}
	addAll(t, svc, &st, Item{CourseID: "a", Price: 1000})
	svc.UpdateQuantity(&st, "a", 10)

	tier, ok := svc.ApplicableTier(st)
	if !ok || tier.Percentage != 50 {
		t.Fatalf("tier = %+v ok=%v", tier, ok)
	}
}
