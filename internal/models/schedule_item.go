package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScheduleItem is one persisted row of a project's payment schedule.
//
// Percent and FixedAmount are nullable on purpose: only the driving
// input of the item's mode is set. Amount is the derived allocation the
// row contributes. Note and DueDate are milestone metadata the schedule
// engine does not interpret.
//
// Archived rows are soft-deleted: they stay in storage but are excluded
// from every schedule read.
type ScheduleItem struct {
	DefaultModel
	ProjectID   uuid.UUID `gorm:"index"`
	Project     Project   `json:"-"`
	Label       string
	Note        string
	DueDate     *time.Time
	Mode        string
	Percent     decimal.NullDecimal `gorm:"type:DECIMAL(20,8)"`
	FixedAmount decimal.NullDecimal `gorm:"type:DECIMAL(20,8)"`
	Amount      decimal.Decimal     `gorm:"type:DECIMAL(20,8)"`
	SortOrder   int
	Archived    bool
}

func (s *ScheduleItem) BeforeCreate(tx *gorm.DB) error {
	_ = s.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*ScheduleItem)
	return s.checkIntegrity(tx, *toSave)
}

func (s *ScheduleItem) BeforeUpdate(tx *gorm.DB) (err error) {
	if tx.Statement.Changed("ProjectID") {
		toSave := tx.Statement.Dest.(ScheduleItem)
		return s.checkIntegrity(tx, toSave)
	}

	return nil
}

// checkIntegrity verifies that the project the item references exists.
func (s *ScheduleItem) checkIntegrity(tx *gorm.DB, toSave ScheduleItem) error {
	return tx.First(&Project{}, toSave.ProjectID).Error
}
