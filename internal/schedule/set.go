package schedule

import "github.com/shopspring/decimal"

// completeWithin is the tolerance under which a schedule counts as
// fully allocated. Percentage amounts rarely hit the total to the cent.
var completeWithin = decimal.NewFromFloat(0.01)

// Set is a schedule's items together with the total they allocate.
type Set struct {
	Items []Item
	Total decimal.Decimal
}

// Recalculate re-derives every item's amount from its driving value
// and the total.
//
// Remaining items are computed in a second pass against the sum the
// other modes allocate, so their result does not depend on where they
// sit in the schedule. With more than one remaining item each fills
// the same gap independently.
func (s *Set) Recalculate() {
	others := decimal.Zero

	for idx, item := range s.Items {
		if item.Mode == ModeRemaining {
			continue
		}

		s.Items[idx] = item.recalculated(s.Total, decimal.Zero)
		others = others.Add(s.Items[idx].Amount)
	}

	for idx, item := range s.Items {
		if item.Mode == ModeRemaining {
			s.Items[idx] = item.recalculated(s.Total, others)
		}
	}
}

// Summary describes how much of the total a schedule allocates.
type Summary struct {
	Allocated        decimal.Decimal `json:"allocated" example:"7000"`      // Sum of all item amounts
	AllocatedPercent decimal.Decimal `json:"allocatedPercent" example:"70"` // Allocated as a share of the total
	Remaining        decimal.Decimal `json:"remaining" example:"3000"`      // What is left of the total
	Complete         bool            `json:"complete" example:"false"`      // Whether the schedule covers the total
}

// Summarize computes the allocation summary of the set.
func (s Set) Summarize() Summary {
	allocated := decimal.Zero
	for _, item := range s.Items {
		allocated = allocated.Add(item.Amount)
	}

	summary := Summary{
		Allocated: allocated,
		Remaining: s.Total.Sub(allocated),
	}

	if !s.Total.IsZero() {
		summary.AllocatedPercent = allocated.Div(s.Total).Mul(oneHundred)
	}

	summary.Complete = summary.Remaining.Abs().LessThan(completeWithin)

	return summary
}
