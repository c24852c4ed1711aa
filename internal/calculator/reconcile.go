package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/models"
)

// CalculateReconciled is Calculate followed by a largest-remainder pass.
//
// Independent rounding of each field can leave participant totals a few
// units away from the exact amount owed. This pass moves whole units into
// ParticipantTotal.Adjustment until the totals sum to the rounded sum of the
// unrounded participant totals. Units go to the participants whose rounded
// total fell furthest below (or rose furthest above) their exact total;
// ties go to the earlier participant. Participants owing nothing are left
// alone.
func CalculateReconciled(items []models.LineItem, participants []models.Participant, assignments []models.Assignment, charges models.Charges) *SplitResult {
	result, exact := allocate(items, participants, assignments, charges)
	reconcile(result, exact)
	return result
}

type remainder struct {
	idx   int
	value decimal.Decimal
}

func reconcile(result *SplitResult, exact []decimal.Decimal) {
	target, current := decimal.Zero, decimal.Zero
	var candidates []remainder
	for i, pt := range result.Participants {
		target = target.Add(exact[i])
		current = current.Add(pt.Total)
		if !exact[i].IsZero() {
			candidates = append(candidates, remainder{idx: i, value: exact[i].Sub(pt.Total)})
		}
	}

	diff := roundUnit(target).Sub(current).IntPart()
	if diff == 0 || len(candidates) == 0 {
		return
	}

	step := decimal.NewFromInt(1)
	if diff > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].value.GreaterThan(candidates[j].value)
		})
	} else {
		diff = -diff
		step = step.Neg()
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].value.LessThan(candidates[j].value)
		})
	}

	for k := int64(0); k < diff; k++ {
		pt := &result.Participants[candidates[k%int64(len(candidates))].idx]
		pt.Adjustment = pt.Adjustment.Add(step)
		pt.Total = pt.Total.Add(step)
	}
}
