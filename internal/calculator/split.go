package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/models"
)

var half = decimal.New(5, -1)

// ItemShare is one claimed unit of an item credited to a participant.
type ItemShare struct {
	Name string `json:"name"`
	// Price is the item's full line total.
	Price decimal.Decimal `json:"price"`
	// Share is this participant's portion of Price for one occurrence
	// (unrounded). The first occurrence carries the division remainder.
	Share decimal.Decimal `json:"share"`
}

// ParticipantTotal is the calculated split for one participant.
// All amounts except item shares are rounded to whole currency units.
type ParticipantTotal struct {
	ParticipantID      string          `json:"participantId"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TaxShare           decimal.Decimal `json:"taxShare"`
	ServiceChargeShare decimal.Decimal `json:"serviceChargeShare"`
	DiscountShare      decimal.Decimal `json:"discountShare"`
	// Adjustment is only set by CalculateReconciled.
	Adjustment decimal.Decimal `json:"adjustment"`
	// Total = Subtotal + TaxShare + ServiceChargeShare - DiscountShare + Adjustment.
	Total decimal.Decimal `json:"total"`
	Items []ItemShare     `json:"items"`
}

// SplitResult is the full breakdown of a receipt.
type SplitResult struct {
	Participants []ParticipantTotal `json:"participants"`
	// GrandTotal is computed from unrounded subtotals and is authoritative.
	// When every claim names a known participant it is exactly the assigned
	// subtotal plus charges. Participant totals may sum to it only within a
	// few units.
	GrandTotal      decimal.Decimal `json:"grandTotal"`
	UnassignedTotal decimal.Decimal `json:"unassignedTotal"`
	// AssignedSubtotal is the unrounded sum of prices of assigned items.
	AssignedSubtotal decimal.Decimal `json:"assignedSubtotal"`
}

type accumulator struct {
	id       string
	subtotal decimal.Decimal
	items    []ItemShare
}

// Calculate splits the receipt among participants.
//
// Each item is divided equally between the occurrences in its assignment, so
// a participant listed twice gets two shares. Tax, service charge and
// discount are distributed by subtotal / assignedSubtotal; nothing is
// distributed when no item is assigned. Assignments naming unknown
// participants or out-of-range items are ignored. Inputs are never mutated.
func Calculate(items []models.LineItem, participants []models.Participant, assignments []models.Assignment, charges models.Charges) *SplitResult {
	result, _ := allocate(items, participants, assignments, charges)
	return result
}

// allocate returns the rounded result together with each participant's
// unrounded total, in result order.
func allocate(items []models.LineItem, participants []models.Participant, assignments []models.Assignment, charges models.Charges) (*SplitResult, []decimal.Decimal) {
	accs := make([]*accumulator, 0, len(participants))
	byID := make(map[string]*accumulator, len(participants))
	for _, p := range participants {
		if _, exists := byID[p.ID]; exists {
			continue
		}
		acc := &accumulator{id: p.ID, items: []ItemShare{}}
		accs = append(accs, acc)
		byID[p.ID] = acc
	}

	byItem := make(map[string][]string, len(assignments))
	for _, a := range assignments {
		if _, exists := byItem[a.ItemID]; !exists {
			byItem[a.ItemID] = a.ParticipantIDs
		}
	}

	assigned := decimal.Zero
	itemsTotal := decimal.Zero
	for idx, item := range items {
		itemsTotal = itemsTotal.Add(item.Price)

		pids := byItem[models.ItemID(idx)]
		if len(pids) == 0 {
			continue
		}

		shares := splitEvenly(item.Price, len(pids), firstKnown(pids, byID))
		for i, pid := range pids {
			acc, ok := byID[pid]
			if !ok {
				continue
			}
			acc.subtotal = acc.subtotal.Add(shares[i])
			acc.items = append(acc.items, ItemShare{
				Name:  item.Name,
				Price: item.Price,
				Share: shares[i],
			})
		}
		assigned = assigned.Add(item.Price)
	}

	grandTotal := decimal.Zero
	for _, acc := range accs {
		grandTotal = grandTotal.Add(acc.subtotal)
	}
	grandTotal = grandTotal.Add(charges.Tax).Add(charges.ServiceCharge).Sub(charges.Discount)

	result := &SplitResult{
		Participants:     make([]ParticipantTotal, 0, len(accs)),
		GrandTotal:       grandTotal,
		UnassignedTotal:  roundUnit(itemsTotal.Sub(assigned)),
		AssignedSubtotal: assigned,
	}
	exact := make([]decimal.Decimal, 0, len(accs))

	for _, acc := range accs {
		tax, service, discount := decimal.Zero, decimal.Zero, decimal.Zero
		if !assigned.IsZero() {
			// ratio = subtotal / assigned, applied to each charge.
			tax = charges.Tax.Mul(acc.subtotal).Div(assigned)
			service = charges.ServiceCharge.Mul(acc.subtotal).Div(assigned)
			discount = charges.Discount.Mul(acc.subtotal).Div(assigned)
		}
		exact = append(exact, acc.subtotal.Add(tax).Add(service).Sub(discount))

		pt := ParticipantTotal{
			ParticipantID:      acc.id,
			Subtotal:           roundUnit(acc.subtotal),
			TaxShare:           roundUnit(tax),
			ServiceChargeShare: roundUnit(service),
			DiscountShare:      roundUnit(discount),
			Adjustment:         decimal.Zero,
			Items:              acc.items,
		}
		// Recomputed from rounded parts so the displayed lines add up.
		pt.Total = pt.Subtotal.Add(pt.TaxShare).Add(pt.ServiceChargeShare).Sub(pt.DiscountShare)
		result.Participants = append(result.Participants, pt)
	}

	return result, exact
}

// splitEvenly divides price into n occurrence shares. Division is carried
// to decimal.DivisionPrecision; the share at index first absorbs the
// remainder so that the shares sum to price exactly.
func splitEvenly(price decimal.Decimal, n, first int) []decimal.Decimal {
	count := decimal.NewFromInt(int64(n))
	perUnit := price.Div(count)
	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = perUnit
	}
	if first >= 0 {
		shares[first] = perUnit.Add(price.Sub(perUnit.Mul(count)))
	}
	return shares
}

// firstKnown returns the index of the first occurrence naming a known
// participant, or -1.
func firstKnown(pids []string, known map[string]*accumulator) int {
	for i := range pids {
		if _, ok := known[pids[i]]; ok {
			return i
		}
	}
	return -1
}

// roundUnit rounds half up to a whole currency unit.
func roundUnit(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}
