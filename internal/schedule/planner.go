package schedule

import (
	"github.com/google/uuid"

	"golang.org/x/exp/slices"
)

// Plan is the set of writes needed to make the stored schedule match
// the buffer.
type Plan struct {
	Create  []Item      // Drafts that do not exist in storage yet
	Update  []Item      // Stored items whose persisted fields changed
	Archive []uuid.UUID // Stored items the buffer no longer contains
}

// Empty reports whether the plan contains no writes.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Archive) == 0
}

// BuildPlan diffs the buffered schedule against the baseline it was
// loaded from.
//
// The diff is three-way by item ID: items only in the buffer are
// created, items only in the baseline are archived, and items in both
// are updated when their persisted fields differ. An item that was
// edited back to its baseline state produces no write, the dirty flag
// alone is not a change.
func BuildPlan(local, baseline []Item) Plan {
	var plan Plan

	baselineByID := make(map[uuid.UUID]Item, len(baseline))
	for _, item := range baseline {
		baselineByID[item.ID] = item
	}

	for _, item := range local {
		stored, ok := baselineByID[item.ID]
		if !ok {
			plan.Create = append(plan.Create, item)
			continue
		}

		if !item.equalPersisted(stored) {
			plan.Update = append(plan.Update, item)
		}
	}

	for _, stored := range baseline {
		inLocal := slices.ContainsFunc(local, func(item Item) bool {
			return item.ID == stored.ID
		})
		if !inLocal {
			plan.Archive = append(plan.Archive, stored.ID)
		}
	}

	return plan
}
