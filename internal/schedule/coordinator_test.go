package schedule_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyplan/backend/internal/schedule"
)

// fakeStore records the order of calls and can be made to fail at any
// step.
type fakeStore struct {
	calls []string

	listItems  []schedule.Item
	listErr    error
	createErr  error
	updateErr  error
	archiveErr error

	// createShort drops the last created item from the result to
	// simulate a partial answer
	createShort bool
}

func (f *fakeStore) List(_ context.Context, _ uuid.UUID) ([]schedule.Item, error) {
	f.calls = append(f.calls, "list")
	return f.listItems, f.listErr
}

func (f *fakeStore) CreateMany(_ context.Context, _ uuid.UUID, items []schedule.Item) ([]schedule.Item, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}

	created := savedItems(items...)
	if f.createShort && len(created) > 0 {
		created = created[:len(created)-1]
	}

	return created, nil
}

func (f *fakeStore) UpdateOne(_ context.Context, _ uuid.UUID, _ schedule.Item) error {
	f.calls = append(f.calls, "update")
	return f.updateErr
}

func (f *fakeStore) ArchiveMany(_ context.Context, _ uuid.UUID, _ []uuid.UUID) error {
	f.calls = append(f.calls, "archive")
	return f.archiveErr
}

func fullPlan() schedule.Plan {
	return schedule.Plan{
		Create:  []schedule.Item{schedule.NewItem(2)},
		Update:  savedItems(percentageItem(50)),
		Archive: []uuid.UUID{uuid.New()},
	}
}

func TestCoordinatorSaveOrder(t *testing.T) {
	t.Parallel()

	confirmed := savedItems(percentageItem(50), fixedItem(100))
	store := &fakeStore{listItems: confirmed}
	coordinator := schedule.NewCoordinator(store, zerolog.Nop())

	draft := schedule.NewItem(2)
	plan := schedule.Plan{
		Create:  []schedule.Item{draft},
		Update:  savedItems(percentageItem(50)),
		Archive: []uuid.UUID{uuid.New()},
	}

	result, err := coordinator.Save(context.Background(), uuid.New(), plan)
	require.NoError(t, err)

	// Archiving first keeps a retry after a mid-way failure from
	// duplicating items
	assert.Equal(t, []string{"archive", "create", "update", "list"}, store.calls)
	assert.Equal(t, confirmed, result.Baseline, "the confirming list is the new baseline")

	serverID, ok := result.CreatedIDs[draft.ID]
	require.True(t, ok, "every created draft maps to its store-assigned ID")
	assert.NotEqual(t, draft.ID, serverID)
}

func TestCoordinatorSaveSkipsEmptySteps(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	coordinator := schedule.NewCoordinator(store, zerolog.Nop())

	_, err := coordinator.Save(context.Background(), uuid.New(), schedule.Plan{
		Update: savedItems(percentageItem(50)),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"update", "list"}, store.calls)
}

func TestCoordinatorSaveFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")

	tests := []struct {
		step  string
		setup func(*fakeStore)
		calls []string
	}{
		{"archive", func(f *fakeStore) { f.archiveErr = boom }, []string{"archive"}},
		{"create", func(f *fakeStore) { f.createErr = boom }, []string{"archive", "create"}},
		{"update", func(f *fakeStore) { f.updateErr = boom }, []string{"archive", "create", "update"}},
		{"confirm", func(f *fakeStore) { f.listErr = boom }, []string{"archive", "create", "update", "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			store := &fakeStore{}
			tt.setup(store)
			coordinator := schedule.NewCoordinator(store, zerolog.Nop())

			result, err := coordinator.Save(context.Background(), uuid.New(), fullPlan())
			assert.Empty(t, result)

			var saveErr *schedule.SaveError
			require.ErrorAs(t, err, &saveErr)
			assert.Equal(t, tt.step, saveErr.Step)
			assert.ErrorIs(t, err, boom)

			// A failed step stops the save, later steps never run
			assert.Equal(t, tt.calls, store.calls)
		})
	}
}

func TestCoordinatorSaveShortCreateIsNotFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{createShort: true}
	coordinator := schedule.NewCoordinator(store, zerolog.Nop())

	_, err := coordinator.Save(context.Background(), uuid.New(), schedule.Plan{
		Create: []schedule.Item{schedule.NewItem(0)},
	})

	// The confirming list decides what exists, a short create answer
	// is only logged
	assert.NoError(t, err)
	assert.Equal(t, []string{"create", "list"}, store.calls)
}
