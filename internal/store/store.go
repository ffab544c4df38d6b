// Package store persists payment schedules through gorm.
//
// It implements the record-store boundary of the schedule engine: list,
// create, update and archive over schedule item rows scoped by their
// project. The engine itself never sees gorm.
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tallyplan/backend/internal/models"
	"github.com/tallyplan/backend/internal/schedule"
)

// Store reads and writes schedule items for the editor.
type Store struct {
	db *gorm.DB
}

// New returns a store backed by the given database.
func New(db *gorm.DB) Store {
	return Store{db: db}
}

// List returns the non-archived schedule items of a project in display
// order.
func (s Store) List(ctx context.Context, projectID uuid.UUID) ([]schedule.Item, error) {
	var rows []models.ScheduleItem

	err := s.db.WithContext(ctx).
		Where(&models.ScheduleItem{ProjectID: projectID}).
		Where("archived = ?", false).
		Order("sort_order asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]schedule.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}

	return items, nil
}

// CreateMany persists draft items and returns them with their
// store-assigned IDs, in input order.
func (s Store) CreateMany(ctx context.Context, projectID uuid.UUID, items []schedule.Item) ([]schedule.Item, error) {
	created := make([]schedule.Item, 0, len(items))

	for _, item := range items {
		row := toRow(projectID, item)

		// The draft ID is replaced in BeforeCreate, never persisted
		row.ID = uuid.Nil

		err := s.db.WithContext(ctx).Create(&row).Error
		if err != nil {
			return created, err
		}

		created = append(created, toItem(row))
	}

	return created, nil
}

// UpdateOne writes the engine-owned fields of one item. Metadata the
// engine does not interpret, like the note and due date, is left
// untouched.
func (s Store) UpdateOne(ctx context.Context, projectID uuid.UUID, item schedule.Item) error {
	row := toRow(projectID, item)

	return s.db.WithContext(ctx).
		Model(&models.ScheduleItem{DefaultModel: models.DefaultModel{ID: item.ID}}).
		Select("Label", "Mode", "Percent", "FixedAmount", "Amount", "SortOrder").
		Updates(row).Error
}

// ArchiveMany soft-deletes the given items. The rows stay in storage
// but disappear from every List.
func (s Store) ArchiveMany(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).
		Model(&models.ScheduleItem{}).
		Where("project_id = ?", projectID).
		Where("id IN ?", ids).
		Update("archived", true).Error
}

// ContractTotal returns the total the project's schedule allocates.
func (s Store) ContractTotal(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	var project models.Project

	err := s.db.WithContext(ctx).First(&project, projectID).Error
	if err != nil {
		return decimal.Zero, err
	}

	return project.ContractTotal, nil
}

func toItem(row models.ScheduleItem) schedule.Item {
	return schedule.Item{
		ID:          row.ID,
		Label:       row.Label,
		Mode:        schedule.Mode(row.Mode),
		Percent:     row.Percent,
		FixedAmount: row.FixedAmount,
		Amount:      row.Amount,
		SortOrder:   row.SortOrder,
	}
}

func toRow(projectID uuid.UUID, item schedule.Item) models.ScheduleItem {
	return models.ScheduleItem{
		DefaultModel: models.DefaultModel{ID: item.ID},
		ProjectID:    projectID,
		Label:        item.Label,
		Mode:         string(item.Mode),
		Percent:      item.Percent,
		FixedAmount:  item.FixedAmount,
		Amount:       item.Amount,
		SortOrder:    item.SortOrder,
	}
}
