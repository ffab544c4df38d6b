// Package schedule implements the payment schedule engine.
//
// A schedule splits a project's contract total into items. Every item
// derives its amount from one of three modes: a percentage of the
// total, a fixed amount, or whatever the other items leave over. The
// package also carries the edit buffer, the reconciliation planner and
// the persistence coordinator the editor builds on.
package schedule

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode determines how an item's amount is derived.
type Mode string

const (
	// ModePercentage derives the amount as a share of the contract total.
	ModePercentage Mode = "PERCENTAGE"
	// ModeFixed uses the entered amount as-is, independent of the total.
	ModeFixed Mode = "FIXED"
	// ModeRemaining allocates whatever the other items leave of the total.
	ModeRemaining Mode = "REMAINING"
)

var oneHundred = decimal.NewFromInt(100)

// Item is one entry of a payment schedule.
//
// Percent and FixedAmount are the driving values of their respective
// modes; only the one matching the mode is set. Amount is always
// derived, never entered.
type Item struct {
	ID          uuid.UUID           `json:"id" example:"d1b4ed2b-4852-4f71-a461-092255916e64"`
	Label       string              `json:"label" example:"Kickoff payment"`
	Mode        Mode                `json:"mode" example:"PERCENTAGE"`
	Percent     decimal.NullDecimal `json:"percent" example:"25" swaggertype:"number"`
	FixedAmount decimal.NullDecimal `json:"fixedAmount" example:"1500" swaggertype:"number"`
	Amount      decimal.Decimal     `json:"amount" example:"2500"`
	SortOrder   int                 `json:"sortOrder" example:"3"`
	Dirty       bool                `json:"dirty" example:"true"` // Whether the item has unsaved edits
}

// NewItem returns a fresh draft item in percentage mode.
//
// Drafts carry a UUIDv7 so they are addressable while editing. The
// store assigns UUIDv4 on create, the version bits keep the two ID
// spaces apart.
func NewItem(sortOrder int) Item {
	return Item{
		ID:        uuid.Must(uuid.NewV7()),
		Mode:      ModePercentage,
		Percent:   decimal.NewNullDecimal(decimal.Zero),
		SortOrder: sortOrder,
		Dirty:     true,
	}
}

// Draft reports whether the item has never been persisted.
func (i Item) Draft() bool {
	return i.ID.Version() == 7
}

// WithLabel returns a copy of the item with the label changed.
func (i Item) WithLabel(label string) Item {
	i.Label = label
	i.Dirty = true
	return i
}

// WithMode returns a copy of the item switched to the given mode. The
// driving values of the other modes are cleared.
func (i Item) WithMode(mode Mode) Item {
	i.Mode = mode
	i.Percent = decimal.NullDecimal{}
	i.FixedAmount = decimal.NullDecimal{}

	switch mode {
	case ModePercentage:
		i.Percent = decimal.NewNullDecimal(decimal.Zero)
	case ModeFixed:
		i.FixedAmount = decimal.NewNullDecimal(decimal.Zero)
	}

	i.Dirty = true
	return i
}

// WithPercent returns a copy of the item with the percentage changed.
func (i Item) WithPercent(percent decimal.Decimal) Item {
	i.Percent = decimal.NewNullDecimal(percent)
	i.Dirty = true
	return i
}

// WithFixedAmount returns a copy of the item with the fixed amount
// changed.
func (i Item) WithFixedAmount(amount decimal.Decimal) Item {
	i.FixedAmount = decimal.NewNullDecimal(amount)
	i.Dirty = true
	return i
}

// WithSortOrder returns a copy of the item with the sort order changed.
func (i Item) WithSortOrder(sortOrder int) Item {
	i.SortOrder = sortOrder
	i.Dirty = true
	return i
}

// recalculated returns the item with its amount re-derived. others is
// the sum allocated by the non-remaining items and only matters in
// remaining mode.
func (i Item) recalculated(total, others decimal.Decimal) Item {
	switch i.Mode {
	case ModeFixed:
		i.Amount = positivePart(i.FixedAmount)
	case ModeRemaining:
		i.Amount = total.Sub(others)
		if i.Amount.IsNegative() {
			i.Amount = decimal.Zero
		}
	default:
		i.Amount = positivePart(i.Percent).Div(oneHundred).Mul(total)
	}

	return i
}

// equalPersisted reports whether two items agree on everything the
// store persists. The dirty flag is editor state and not compared.
func (i Item) equalPersisted(other Item) bool {
	return i.ID == other.ID &&
		i.Label == other.Label &&
		i.Mode == other.Mode &&
		nullEqual(i.Percent, other.Percent) &&
		nullEqual(i.FixedAmount, other.FixedAmount) &&
		i.Amount.Equal(other.Amount) &&
		i.SortOrder == other.SortOrder
}

// positivePart treats an absent or negative driving value as zero. The
// raw value itself is kept so a half-typed negative number survives the
// keystroke.
func positivePart(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid || d.Decimal.IsNegative() {
		return decimal.Zero
	}

	return d.Decimal
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}

	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// ParseInput parses a driving value as the operator typed it. Partial
// input like "-" or "3." counts as zero instead of failing, the editor
// sends every keystroke.
func ParseInput(s string) decimal.Decimal {
	parsed, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}

	return parsed
}
