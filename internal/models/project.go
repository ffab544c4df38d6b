package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project is a client engagement. Its contract total is the amount the
// payment schedule decomposes.
type Project struct {
	DefaultModel
	Name          string          `gorm:"uniqueIndex"`
	Note          string
	ContractTotal decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // The total the schedule items allocate
	Archived      bool
}

var ErrContractTotalNegative = errors.New("the contract total must not be negative")

func (p *Project) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Note = strings.TrimSpace(p.Note)

	return nil
}

func (p *Project) AfterSave(_ *gorm.DB) error {
	if p.ContractTotal.IsNegative() {
		return ErrContractTotalNegative
	}

	return nil
}
