package calculator

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertAmount(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "want %s, got %s", want, got)
}

func assertEqualf(t *testing.T, want, got decimal.Decimal, what string) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "%s: want %s, got %s", what, want, got)
}

func byParticipant(result *SplitResult) map[string]ParticipantTotal {
	out := make(map[string]ParticipantTotal, len(result.Participants))
	for _, pt := range result.Participants {
		out[pt.ParticipantID] = pt
	}
	return out
}

func item(name string, price int64, qty int) models.LineItem {
	return models.LineItem{Name: name, Price: d(price), Quantity: qty}
}

func TestCalculate(t *testing.T) {
	twoItems := []models.LineItem{item("A", 100, 1), item("B", 200, 1)}
	xy := []models.Participant{{ID: "1", Name: "X"}, {ID: "2", Name: "Y"}}

	tests := []struct {
		name         string
		items        []models.LineItem
		participants []models.Participant
		assignments  []models.Assignment
		charges      models.Charges
		validateFunc func(t *testing.T, result *SplitResult)
	}{
		{
			name:         "shared item with proportional tax",
			items:        twoItems,
			participants: xy,
			assignments: []models.Assignment{
				{ItemID: "0", ParticipantIDs: []string{"1"}},
				{ItemID: "1", ParticipantIDs: []string{"1", "2"}},
			},
			charges: models.Charges{Tax: d(30)},
			validateFunc: func(t *testing.T, result *SplitResult) {
				// X: 100 + 100 = 200, tax = 200/300 * 30 = 20, total = 220
				// Y: 100, tax = 10, total = 110
				splits := byParticipant(result)
				x, y := splits["1"], splits["2"]
				assertAmount(t, d(200), x.Subtotal)
				assertAmount(t, d(20), x.TaxShare)
				assertAmount(t, d(220), x.Total)
				assertAmount(t, d(100), y.Subtotal)
				assertAmount(t, d(10), y.TaxShare)
				assertAmount(t, d(110), y.Total)
				assertAmount(t, d(330), result.GrandTotal)
				assertAmount(t, d(0), result.UnassignedTotal)
				assertAmount(t, d(300), result.AssignedSubtotal)

				require.Len(t, x.Items, 2)
				assert.Equal(t, "A", x.Items[0].Name)
				assertAmount(t, d(100), x.Items[1].Share)
				assertAmount(t, d(200), x.Items[1].Price)
			},
		},
		{
			name:         "nothing assigned",
			items:        twoItems,
			participants: xy,
			charges:      models.Charges{Tax: d(30), ServiceCharge: d(15), Discount: d(5)},
			validateFunc: func(t *testing.T, result *SplitResult) {
				assertAmount(t, d(300), result.UnassignedTotal)
				// Only charges remain in the grand total.
				assertAmount(t, d(40), result.GrandTotal)
				for _, pt := range result.Participants {
					assertAmount(t, d(0), pt.Subtotal)
					assertAmount(t, d(0), pt.TaxShare)
					assertAmount(t, d(0), pt.ServiceChargeShare)
					assertAmount(t, d(0), pt.DiscountShare)
					assertAmount(t, d(0), pt.Total)
					assert.Empty(t, pt.Items)
				}
			},
		},
		{
			name:         "weighted claim on multi-unit item",
			items:        []models.LineItem{item("Sate", 90, 3)},
			participants: []models.Participant{{ID: "a"}, {ID: "b"}},
			assignments:  []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"a", "b", "a"}}},
			validateFunc: func(t *testing.T, result *SplitResult) {
				splits := byParticipant(result)
				assertAmount(t, d(60), splits["a"].Subtotal)
				assertAmount(t, d(30), splits["b"].Subtotal)
				require.Len(t, splits["a"].Items, 2)
				for _, share := range splits["a"].Items {
					assertAmount(t, d(30), share.Share)
					assertAmount(t, d(90), share.Price)
				}
			},
		},
		{
			name:         "service charge and discount",
			items:        []models.LineItem{item("Steak", 300, 1), item("Salad", 100, 1)},
			participants: []models.Participant{{ID: "a"}, {ID: "b"}},
			assignments: []models.Assignment{
				{ItemID: "0", ParticipantIDs: []string{"a"}},
				{ItemID: "1", ParticipantIDs: []string{"b"}},
			},
			charges: models.Charges{Tax: d(40), ServiceCharge: d(20), Discount: d(80)},
			validateFunc: func(t *testing.T, result *SplitResult) {
				splits := byParticipant(result)
				a, b := splits["a"], splits["b"]
				assertAmount(t, d(30), a.TaxShare)
				assertAmount(t, d(15), a.ServiceChargeShare)
				assertAmount(t, d(60), a.DiscountShare)
				assertAmount(t, d(285), a.Total)
				assertAmount(t, d(10), b.TaxShare)
				assertAmount(t, d(5), b.ServiceChargeShare)
				assertAmount(t, d(20), b.DiscountShare)
				assertAmount(t, d(95), b.Total)
				assertAmount(t, d(380), result.GrandTotal)
			},
		},
		{
			name:         "stale references are ignored",
			items:        twoItems,
			participants: []models.Participant{{ID: "1"}},
			assignments: []models.Assignment{
				{ItemID: "0", ParticipantIDs: []string{"1", "ghost"}},
				{ItemID: "7", ParticipantIDs: []string{"1"}},
			},
			validateFunc: func(t *testing.T, result *SplitResult) {
				require.Len(t, result.Participants, 1)
				// The ghost's half is dropped but the item still counts as assigned.
				assertAmount(t, d(50), result.Participants[0].Subtotal)
				assertAmount(t, d(100), result.AssignedSubtotal)
				assertAmount(t, d(200), result.UnassignedTotal)
				assertAmount(t, d(50), result.GrandTotal)
			},
		},
		{
			name:         "empty assignment entry counts as unassigned",
			items:        twoItems,
			participants: xy,
			assignments:  []models.Assignment{{ItemID: "0", ParticipantIDs: []string{}}},
			validateFunc: func(t *testing.T, result *SplitResult) {
				assertAmount(t, d(300), result.UnassignedTotal)
				assertAmount(t, d(0), result.AssignedSubtotal)
			},
		},
		{
			name: "degenerate input",
			validateFunc: func(t *testing.T, result *SplitResult) {
				assert.Empty(t, result.Participants)
				assertAmount(t, d(0), result.GrandTotal)
				assertAmount(t, d(0), result.UnassignedTotal)
			},
		},
		{
			name:         "zero priced items keep charges undistributed",
			items:        []models.LineItem{item("Free water", 0, 1)},
			participants: []models.Participant{{ID: "a"}},
			assignments:  []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"a"}}},
			charges:      models.Charges{Tax: d(10)},
			validateFunc: func(t *testing.T, result *SplitResult) {
				assertAmount(t, d(0), result.Participants[0].TaxShare)
				require.Len(t, result.Participants[0].Items, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(tt.items, tt.participants, tt.assignments, tt.charges)
			require.NotNil(t, result)
			tt.validateFunc(t, result)
		})
	}
}

func TestCalculateRoundsEachFieldIndependently(t *testing.T) {
	// Three-way split of 100 with tax 10:
	// subtotal 33.33 -> 33, tax 3.33 -> 3, total 36 (not round(36.67) = 37).
	items := []models.LineItem{item("Pizza", 100, 1)}
	participants := []models.Participant{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assignments := []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"a", "b", "c"}}}

	result := Calculate(items, participants, assignments, models.Charges{Tax: d(10)})

	sum := decimal.Zero
	for _, pt := range result.Participants {
		assertAmount(t, d(33), pt.Subtotal)
		assertAmount(t, d(3), pt.TaxShare)
		assertAmount(t, d(36), pt.Total)
		sum = sum.Add(pt.Total)
	}
	assertAmount(t, d(110), result.GrandTotal)
	// Accepted drift from independent rounding.
	assertAmount(t, d(108), sum)
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	items := []models.LineItem{item("Kerupuk", 3, 1), item("Es Jeruk", 5, 1)}
	participants := []models.Participant{{ID: "a"}, {ID: "b"}}
	assignments := []models.Assignment{
		{ItemID: "0", ParticipantIDs: []string{"a", "b"}},
	}

	result := Calculate(items, participants, assignments, models.Charges{})

	for _, pt := range result.Participants {
		assertAmount(t, d(2), pt.Subtotal) // 1.5 rounds up
	}
	assertAmount(t, d(5), result.UnassignedTotal)
}

func TestCalculatePreservesParticipantMembership(t *testing.T) {
	participants := []models.Participant{{ID: "c"}, {ID: "a"}, {ID: "b"}, {ID: "a"}}

	result := Calculate(nil, participants, nil, models.Charges{})

	ids := make([]string, 0, len(result.Participants))
	for _, pt := range result.Participants {
		ids = append(ids, pt.ParticipantID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestCalculateUsesFirstAssignmentForItem(t *testing.T) {
	items := []models.LineItem{item("A", 100, 1)}
	participants := []models.Participant{{ID: "a"}, {ID: "b"}}
	assignments := []models.Assignment{
		{ItemID: "0", ParticipantIDs: []string{"a"}},
		{ItemID: "0", ParticipantIDs: []string{"b"}},
	}

	splits := byParticipant(Calculate(items, participants, assignments, models.Charges{}))

	assertAmount(t, d(100), splits["a"].Subtotal)
	assertAmount(t, d(0), splits["b"].Subtotal)
}

func TestCalculateDoesNotMutateInputs(t *testing.T) {
	items := []models.LineItem{item("A", 100, 1)}
	participants := []models.Participant{{ID: "a"}}
	assignments := []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"a", "a"}}}

	itemsCopy := append([]models.LineItem(nil), items...)
	participantsCopy := models.CloneParticipants(participants)
	assignmentsCopy := models.CloneAssignments(assignments)

	Calculate(items, participants, assignments, models.Charges{Tax: d(5)})

	assert.Equal(t, itemsCopy, items)
	assert.Equal(t, participantsCopy, participants)
	assert.Equal(t, assignmentsCopy, assignments)
}

// TestCalculateInvariants checks conservation and the grand total identity
// over generated receipts whose assignments only reference known participants.
func TestCalculateInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for run := 0; run < 200; run++ {
		participants := make([]models.Participant, 1+rng.IntN(5))
		for i := range participants {
			participants[i] = models.Participant{ID: models.ItemID(100 + i)}
		}

		items := make([]models.LineItem, rng.IntN(8))
		var assignments []models.Assignment
		for i := range items {
			qty := 1 + rng.IntN(4)
			items[i] = item("item", int64(rng.IntN(100000)), qty)
			if rng.IntN(4) == 0 {
				continue
			}
			claims := 1 + rng.IntN(qty)
			pids := make([]string, claims)
			for c := range pids {
				pids[c] = participants[rng.IntN(len(participants))].ID
			}
			assignments = append(assignments, models.Assignment{ItemID: models.ItemID(i), ParticipantIDs: pids})
		}
		charges := models.Charges{
			Tax:           d(int64(rng.IntN(5000))),
			ServiceCharge: d(int64(rng.IntN(5000))),
			Discount:      d(int64(rng.IntN(2000))),
		}

		result := Calculate(items, participants, assignments, charges)

		itemsTotal := decimal.Zero
		for _, it := range items {
			itemsTotal = itemsTotal.Add(it.Price)
		}
		shares := decimal.Zero
		for _, pt := range result.Participants {
			for _, s := range pt.Items {
				shares = shares.Add(s.Share)
			}
		}

		require.Len(t, result.Participants, len(participants))
		assertEqualf(t, itemsTotal, shares.Add(result.UnassignedTotal), fmt.Sprintf("conservation, run %d", run))
		assertEqualf(t, shares.Add(charges.Tax).Add(charges.ServiceCharge).Sub(charges.Discount), result.GrandTotal, fmt.Sprintf("grand total, run %d", run))

		sum := decimal.Zero
		for _, pt := range result.Participants {
			sum = sum.Add(pt.Total)
			assertAmount(t, pt.Subtotal.Add(pt.TaxShare).Add(pt.ServiceChargeShare).Sub(pt.DiscountShare), pt.Total)
		}
		if !result.AssignedSubtotal.IsZero() {
			// Each of four rounded fields is off by at most half a unit.
			drift := sum.Sub(result.GrandTotal).Abs()
			assert.True(t, drift.LessThanOrEqual(d(int64(2*len(participants)))), "drift %s, run %d", drift, run)
		}
	}
}

func TestCalculateSharesSumToPrice(t *testing.T) {
	tests := []struct {
		name       string
		price      int64
		pids       []string
		wantShares string
	}{
		{name: "thirds", price: 100, pids: []string{"a", "b", "c"}, wantShares: "100"},
		{name: "thirds rounding up", price: 200, pids: []string{"a", "b", "c"}, wantShares: "200"},
		{name: "weighted sevenths", price: 1000, pids: []string{"a", "a", "b", "c", "c", "c", "b"}, wantShares: "1000"},
		// The unknown claim's third is dropped; the known claims still absorb the remainder.
		{name: "unknown first occurrence", price: 100, pids: []string{"ghost", "a", "b"}, wantShares: "66.6666666666666667"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []models.LineItem{item("Pizza", tt.price, 1)}
			participants := []models.Participant{{ID: "a"}, {ID: "b"}, {ID: "c"}}
			assignments := []models.Assignment{{ItemID: "0", ParticipantIDs: tt.pids}}

			result := Calculate(items, participants, assignments, models.Charges{Tax: d(10)})

			shares := decimal.Zero
			for _, pt := range result.Participants {
				for _, s := range pt.Items {
					shares = shares.Add(s.Share)
				}
			}
			want := decimal.RequireFromString(tt.wantShares)
			assertAmount(t, want, shares)
			assertAmount(t, want.Add(d(10)), result.GrandTotal)
		})
	}
}
