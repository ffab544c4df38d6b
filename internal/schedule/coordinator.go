package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the record storage the coordinator writes a plan to. All
// operations are scoped to one project.
type Store interface {
	List(ctx context.Context, projectID uuid.UUID) ([]Item, error)
	CreateMany(ctx context.Context, projectID uuid.UUID, items []Item) ([]Item, error)
	UpdateOne(ctx context.Context, projectID uuid.UUID, item Item) error
	ArchiveMany(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) error
}

// SaveError is returned when persisting a plan fails. Step names the
// part of the save that failed.
type SaveError struct {
	Step string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving the schedule failed during the %s step: %s", e.Step, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Coordinator persists reconciliation plans.
type Coordinator struct {
	store Store
	log   zerolog.Logger
}

// NewCoordinator returns a coordinator writing to the given store.
func NewCoordinator(store Store, log zerolog.Logger) Coordinator {
	return Coordinator{store: store, log: log}
}

// SaveResult is what a successful save reports back.
type SaveResult struct {
	Baseline   []Item                  // The server-confirmed schedule after the save
	CreatedIDs map[uuid.UUID]uuid.UUID // Draft ID to store-assigned ID for every created item
}

// Save writes a plan to the store and returns the server-confirmed
// schedule to use as the new baseline, together with the store-assigned
// IDs of the created drafts.
//
// Writes run archive first, then create, then update, so that a
// failure mid-way leaves the stored schedule without duplicates: a
// retry re-archives nothing and re-creates only what is still missing
// from the confirmed baseline. The caller keeps its buffer untouched
// on any error.
func (c Coordinator) Save(ctx context.Context, projectID uuid.UUID, plan Plan) (SaveResult, error) {
	var result SaveResult

	if len(plan.Archive) > 0 {
		if err := c.store.ArchiveMany(ctx, projectID, plan.Archive); err != nil {
			return SaveResult{}, &SaveError{Step: "archive", Err: err}
		}
	}

	if len(plan.Create) > 0 {
		created, err := c.store.CreateMany(ctx, projectID, plan.Create)
		if err != nil {
			return SaveResult{}, &SaveError{Step: "create", Err: err}
		}

		// Creation preserves input order, pair the drafts with their
		// store-assigned IDs
		result.CreatedIDs = make(map[uuid.UUID]uuid.UUID, len(created))
		for idx, item := range created {
			if idx < len(plan.Create) {
				result.CreatedIDs[plan.Create[idx].ID] = item.ID
			}
		}

		// Not fatal: the confirming list below is the source of truth
		// for what exists now
		if len(created) != len(plan.Create) {
			c.log.Warn().
				Str("project-id", projectID.String()).
				Int("requested", len(plan.Create)).
				Int("created", len(created)).
				Msg("schedule item creation did not return all items")
		}
	}

	for _, item := range plan.Update {
		if err := c.store.UpdateOne(ctx, projectID, item); err != nil {
			return SaveResult{}, &SaveError{Step: "update", Err: err}
		}
	}

	items, err := c.store.List(ctx, projectID)
	if err != nil {
		return SaveResult{}, &SaveError{Step: "confirm", Err: err}
	}

	result.Baseline = items
	return result, nil
}
