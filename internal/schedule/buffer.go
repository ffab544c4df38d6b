package schedule

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when an edit addresses an item that is
// not in the buffer.
var ErrItemNotFound = errors.New("there is no schedule item with this ID")

// Buffer holds the schedule as the operator currently sees it.
//
// The buffer tracks whether it diverged from its last load. While it
// is dirty, incoming refreshes are dropped instead of merged so that a
// background refetch can never overwrite unsaved edits.
type Buffer struct {
	set   Set
	dirty bool
}

// NewBuffer returns an empty buffer for a schedule allocating the
// given total.
func NewBuffer(total decimal.Decimal) *Buffer {
	return &Buffer{set: Set{Total: total}}
}

// Initialize loads a stored schedule into the buffer. The buffer is
// clean afterwards.
func (b *Buffer) Initialize(items []Item) {
	b.set.Items = copyItems(items)
	b.set.Recalculate()
	b.dirty = false
}

// MergeRefresh merges a refetched schedule into the buffer and reports
// whether it was applied.
//
// Two guards protect the operator's work: a dirty buffer drops every
// refresh, and an empty refresh into a non-empty clean buffer is
// dropped too. The latter is indistinguishable from a transient bad
// read, and losing a whole schedule to one is worse than showing it
// one refresh late.
func (b *Buffer) MergeRefresh(items []Item) bool {
	if b.dirty {
		return false
	}

	if len(items) == 0 && len(b.set.Items) > 0 {
		return false
	}

	b.Initialize(items)
	return true
}

// SetTotal changes the total the schedule allocates and re-derives all
// amounts. Items whose amount moved need saving and are marked dirty.
func (b *Buffer) SetTotal(total decimal.Decimal) {
	before := make([]decimal.Decimal, len(b.set.Items))
	for idx, item := range b.set.Items {
		before[idx] = item.Amount
	}

	b.set.Total = total
	b.set.Recalculate()

	for idx := range b.set.Items {
		if !b.set.Items[idx].Amount.Equal(before[idx]) {
			b.set.Items[idx].Dirty = true
			b.dirty = true
		}
	}
}

// AddItem appends a new draft item to the schedule.
func (b *Buffer) AddItem() Item {
	sortOrder := 0
	for _, item := range b.set.Items {
		if item.SortOrder >= sortOrder {
			sortOrder = item.SortOrder + 1
		}
	}

	item := NewItem(sortOrder)
	b.set.Items = append(b.set.Items, item)
	b.set.Recalculate()
	b.dirty = true

	return b.itemByID(item.ID)
}

// UpdateItem applies an edit to one item and returns it with its
// amount re-derived. The change function cannot reassign the ID.
func (b *Buffer) UpdateItem(id uuid.UUID, change func(Item) Item) (Item, error) {
	for idx, item := range b.set.Items {
		if item.ID != id {
			continue
		}

		changed := change(item)
		changed.ID = id
		changed.Dirty = true

		b.set.Items[idx] = changed
		b.set.Recalculate()
		b.dirty = true

		return b.itemByID(id), nil
	}

	return Item{}, ErrItemNotFound
}

// RemoveItem removes one item from the schedule.
func (b *Buffer) RemoveItem(id uuid.UUID) error {
	for idx, item := range b.set.Items {
		if item.ID != id {
			continue
		}

		b.set.Items = append(b.set.Items[:idx], b.set.Items[idx+1:]...)
		b.set.Recalculate()
		b.dirty = true

		return nil
	}

	return ErrItemNotFound
}

// Rebase folds a successful save into the buffer. planned is the
// schedule the save's plan was computed from, saved is the
// server-confirmed schedule, and createdIDs maps created drafts to
// their store-assigned IDs.
//
// If the buffer still matches planned, it simply adopts the saved
// schedule. Edits made while the save was running are kept instead:
// draft IDs are rewritten to their server IDs, per-item dirty flags are
// rederived against the saved schedule, and the buffer stays dirty so
// the next save picks the edits up.
func (b *Buffer) Rebase(planned, saved []Item, createdIDs map[uuid.UUID]uuid.UUID) {
	if itemsEqual(b.set.Items, planned) {
		b.AcceptSaved(saved)
		return
	}

	savedByID := make(map[uuid.UUID]Item, len(saved))
	for _, item := range saved {
		savedByID[item.ID] = item
	}

	for idx := range b.set.Items {
		if serverID, ok := createdIDs[b.set.Items[idx].ID]; ok {
			b.set.Items[idx].ID = serverID
		}
	}

	b.set.Recalculate()

	for idx, item := range b.set.Items {
		stored, ok := savedByID[item.ID]
		b.set.Items[idx].Dirty = !ok || !item.equalPersisted(stored)
	}

	// Mid-save removals carry no item flag, so the buffer itself stays
	// dirty to keep refreshes from undoing them
	b.dirty = true
}

// AcceptSaved replaces the buffer content with the server-confirmed
// schedule after a successful save. The buffer is clean afterwards and
// refreshes merge again.
func (b *Buffer) AcceptSaved(items []Item) {
	b.set.Items = copyItems(items)
	for idx := range b.set.Items {
		b.set.Items[idx].Dirty = false
	}

	b.set.Recalculate()
	b.dirty = false
}

// Items returns a copy of the buffered schedule.
func (b *Buffer) Items() []Item {
	return copyItems(b.set.Items)
}

// Total returns the total the schedule allocates.
func (b *Buffer) Total() decimal.Decimal {
	return b.set.Total
}

// Dirty reports whether the buffer has unsaved edits.
func (b *Buffer) Dirty() bool {
	return b.dirty
}

// Summarize computes the allocation summary of the buffered schedule.
func (b *Buffer) Summarize() Summary {
	return b.set.Summarize()
}

func (b *Buffer) itemByID(id uuid.UUID) Item {
	for _, item := range b.set.Items {
		if item.ID == id {
			return item
		}
	}

	return Item{}
}

func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// itemsEqual compares two schedules on their persisted fields, in
// order. Dirty flags do not count, they are editor state.
func itemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}

	for idx := range a {
		if !a[idx].equalPersisted(b[idx]) {
			return false
		}
	}

	return true
}
