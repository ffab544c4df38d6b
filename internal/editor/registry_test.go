package editor_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyplan/backend/internal/editor"
	"github.com/tallyplan/backend/internal/schedule"
)

// memoryStore is an in-memory record store for sessions to run
// against. Failures can be injected per operation and writes can be
// blocked to hold a save in flight.
type memoryStore struct {
	mu    sync.Mutex
	total decimal.Decimal
	items map[uuid.UUID]schedule.Item

	listErr   error
	updateErr error

	// blockUpdates and blockCreates, when set, make the respective write
	// wait until the channel is closed
	blockUpdates chan struct{}
	blockCreates chan struct{}
}

func newMemoryStore(total decimal.Decimal) *memoryStore {
	return &memoryStore{
		total: total,
		items: make(map[uuid.UUID]schedule.Item),
	}
}

func (m *memoryStore) ContractTotal(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return m.total, nil
}

func (m *memoryStore) List(_ context.Context, _ uuid.UUID) ([]schedule.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	items := make([]schedule.Item, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })

	return items, nil
}

func (m *memoryStore) CreateMany(_ context.Context, _ uuid.UUID, items []schedule.Item) ([]schedule.Item, error) {
	if m.blockCreates != nil {
		<-m.blockCreates
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	created := make([]schedule.Item, 0, len(items))
	for _, item := range items {
		item.ID = uuid.New()
		item.Dirty = false
		m.items[item.ID] = item
		created = append(created, item)
	}

	return created, nil
}

func (m *memoryStore) UpdateOne(_ context.Context, _ uuid.UUID, item schedule.Item) error {
	if m.blockUpdates != nil {
		<-m.blockUpdates
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}

	item.Dirty = false
	m.items[item.ID] = item

	return nil
}

func (m *memoryStore) ArchiveMany(_ context.Context, _ uuid.UUID, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.items, id)
	}

	return nil
}

func openSession(t *testing.T, store *memoryStore) (*editor.Registry, *editor.Session) {
	t.Helper()

	registry := editor.NewRegistry(store, zerolog.Nop())
	session, err := registry.Open(context.Background(), uuid.New())
	require.NoError(t, err)

	return registry, session
}

func TestRegistryOpenGetClose(t *testing.T) {
	t.Parallel()

	registry, session := openSession(t, newMemoryStore(decimal.NewFromInt(10000)))

	found, err := registry.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, found)

	require.NoError(t, registry.Close(session.ID))
	_, err = registry.Get(session.ID)
	assert.ErrorIs(t, err, editor.ErrSessionNotFound)
	assert.ErrorIs(t, registry.Close(session.ID), editor.ErrSessionNotFound)
}

func TestSessionState(t *testing.T) {
	t.Parallel()

	_, session := openSession(t, newMemoryStore(decimal.NewFromInt(10000)))

	state := session.State()
	assert.True(t, state.Total.Equal(decimal.NewFromInt(10000)))
	assert.Empty(t, state.Items)
	assert.False(t, state.NeedsSave)
	assert.Nil(t, state.LastError)

	session.AddItem()
	assert.True(t, session.State().NeedsSave)
}

func TestSessionSaveAdvancesBaseline(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	item := session.AddItem()
	_, err := session.UpdateItem(item.ID, func(i schedule.Item) schedule.Item {
		return i.WithLabel("Upfront").WithPercent(decimal.NewFromInt(50))
	})
	require.NoError(t, err)

	require.NoError(t, session.Save(context.Background()))

	state := session.State()
	require.Len(t, state.Items, 1)
	assert.False(t, state.Items[0].Draft(), "the saved item carries its store-assigned ID")
	assert.False(t, state.Items[0].Dirty)
	assert.False(t, state.NeedsSave, "a saved session has nothing left to persist")

	// Saving again writes nothing: the fresh plan against the advanced
	// baseline is empty
	require.NoError(t, session.Save(context.Background()))
	assert.Len(t, store.items, 1)
}

func TestSessionSaveFailurePreservesBuffer(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	item := session.AddItem()
	_, err := session.UpdateItem(item.ID, func(i schedule.Item) schedule.Item {
		return i.WithLabel("Upfront").WithPercent(decimal.NewFromInt(50))
	})
	require.NoError(t, err)
	require.NoError(t, session.Save(context.Background()))

	// Edit the now-saved item, then fail the save
	saved := session.State().Items[0]
	_, err = session.UpdateItem(saved.ID, func(i schedule.Item) schedule.Item {
		return i.WithPercent(decimal.NewFromInt(75))
	})
	require.NoError(t, err)
	before := session.State().Items

	store.updateErr = errors.New("disk on fire")
	err = session.Save(context.Background())

	var saveErr *schedule.SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, "update", saveErr.Step)

	state := session.State()
	assert.Equal(t, before, state.Items, "a failed save must not touch the buffer")
	assert.True(t, state.NeedsSave)
	require.NotNil(t, state.LastError, "the failure sticks to the session")

	// The retry succeeds and clears the error
	store.updateErr = nil
	require.NoError(t, session.Save(context.Background()))
	assert.Nil(t, session.State().LastError)
	assert.True(t, store.items[saved.ID].Percent.Decimal.Equal(decimal.NewFromInt(75)))
}

func TestSessionDismissError(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	session.AddItem()
	store.listErr = errors.New("disk on fire")
	require.Error(t, session.Save(context.Background()))
	require.Error(t, session.LastError())

	session.DismissError()
	assert.NoError(t, session.LastError())
	assert.True(t, session.State().NeedsSave, "dismissing the error does not pretend the save happened")
}

func TestSessionSaveInFlight(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	item := session.AddItem()
	_, err := session.UpdateItem(item.ID, func(i schedule.Item) schedule.Item {
		return i.WithPercent(decimal.NewFromInt(50))
	})
	require.NoError(t, err)
	require.NoError(t, session.Save(context.Background()))

	saved := session.State().Items[0]
	_, err = session.UpdateItem(saved.ID, func(i schedule.Item) schedule.Item {
		return i.WithPercent(decimal.NewFromInt(60))
	})
	require.NoError(t, err)

	// Hold the first save inside the store, then try a second one
	store.blockUpdates = make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- session.Save(context.Background())
	}()

	require.Eventually(t, func() bool {
		return session.State().Saving
	}, time.Second, 10*time.Millisecond, "the first save never reached the store")

	assert.ErrorIs(t, session.Save(context.Background()), editor.ErrSaveInFlight)

	close(store.blockUpdates)
	require.NoError(t, <-firstDone)
	assert.False(t, session.State().Saving)
}

func TestSessionSaveKeepsConcurrentEdits(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	item := session.AddItem()
	_, err := session.UpdateItem(item.ID, func(i schedule.Item) schedule.Item {
		return i.WithLabel("Upfront").WithPercent(decimal.NewFromInt(50))
	})
	require.NoError(t, err)
	require.NoError(t, session.Save(context.Background()))

	saved := session.State().Items[0]
	_, err = session.UpdateItem(saved.ID, func(i schedule.Item) schedule.Item {
		return i.WithPercent(decimal.NewFromInt(60))
	})
	require.NoError(t, err)

	// Hold the save inside the store and keep editing while it runs
	store.blockUpdates = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- session.Save(context.Background())
	}()

	require.Eventually(t, func() bool {
		return session.State().Saving
	}, time.Second, 10*time.Millisecond, "the save never reached the store")

	_, err = session.UpdateItem(saved.ID, func(i schedule.Item) schedule.Item {
		return i.WithLabel("Final installment")
	})
	require.NoError(t, err)

	close(store.blockUpdates)
	require.NoError(t, <-done)

	// The successful save must not roll the buffer back to the state it
	// persisted, the edit made in the meantime stays and needs saving
	state := session.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, "Final installment", state.Items[0].Label)
	assert.True(t, state.Items[0].Dirty)
	assert.True(t, state.NeedsSave)

	store.blockUpdates = nil
	require.NoError(t, session.Save(context.Background()))
	assert.False(t, session.State().NeedsSave)
	assert.Equal(t, "Final installment", store.items[saved.ID].Label)
}

func TestSessionSaveRebasesEditedDrafts(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	draft := session.AddItem()
	_, err := session.UpdateItem(draft.ID, func(i schedule.Item) schedule.Item {
		return i.WithLabel("Upfront").WithPercent(decimal.NewFromInt(50))
	})
	require.NoError(t, err)

	// Hold the save inside the store's create, then edit the draft it is
	// busy persisting
	store.blockCreates = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- session.Save(context.Background())
	}()

	require.Eventually(t, func() bool {
		return session.State().Saving
	}, time.Second, 10*time.Millisecond, "the save never reached the store")

	_, err = session.UpdateItem(draft.ID, func(i schedule.Item) schedule.Item {
		return i.WithPercent(decimal.NewFromInt(60))
	})
	require.NoError(t, err)

	close(store.blockCreates)
	require.NoError(t, <-done)

	// The draft now lives under its store-assigned ID, with the newer
	// edit still on it
	state := session.State()
	require.Len(t, state.Items, 1)
	assert.False(t, state.Items[0].Draft(), "the created item carries its store-assigned ID")
	assert.True(t, state.Items[0].Percent.Decimal.Equal(decimal.NewFromInt(60)))
	assert.True(t, state.NeedsSave)

	store.blockCreates = nil
	require.NoError(t, session.Save(context.Background()))
	assert.False(t, session.State().NeedsSave)
	assert.True(t, store.items[state.Items[0].ID].Percent.Decimal.Equal(decimal.NewFromInt(60)))
	assert.Len(t, store.items, 1, "the rebased item must update, not duplicate")
}

func TestSessionRefresh(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	// Another session writes an item behind our back, amounts derived
	// as a save would leave them
	written := schedule.Set{
		Items: []schedule.Item{schedule.NewItem(0).WithLabel("Upfront").WithPercent(decimal.NewFromInt(50))},
		Total: decimal.NewFromInt(10000),
	}
	written.Recalculate()
	_, err := store.CreateMany(context.Background(), session.ProjectID, written.Items)
	require.NoError(t, err)

	applied, err := session.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, session.State().Items, 1)
	assert.False(t, session.State().NeedsSave, "an applied refresh advances the baseline")

	// With unsaved edits the same refresh is dropped
	session.AddItem()
	applied, err = session.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, session.State().Items, 2, "the dropped refresh must not clobber the buffer")

	store.listErr = errors.New("disk on fire")
	_, err = session.Refresh(context.Background())
	assert.Error(t, err)
}

func TestRegistryUpdateTotal(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	registry := editor.NewRegistry(store, zerolog.Nop())

	mine, err := registry.Open(context.Background(), uuid.New())
	require.NoError(t, err)
	other, err := registry.Open(context.Background(), uuid.New())
	require.NoError(t, err)

	registry.UpdateTotal(mine.ProjectID, decimal.NewFromInt(20000))

	assert.True(t, mine.State().Total.Equal(decimal.NewFromInt(20000)))
	assert.True(t, other.State().Total.Equal(decimal.NewFromInt(10000)), "sessions of other projects must not react")
}

func TestSessionExport(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(decimal.NewFromInt(10000))
	_, session := openSession(t, store)

	item := session.AddItem()
	_, err := session.UpdateItem(item.ID, func(i schedule.Item) schedule.Item {
		return i.WithLabel("Upfront").WithPercent(decimal.NewFromInt(50))
	})
	require.NoError(t, err)

	data, err := session.Export()
	require.NoError(t, err)

	assert.Contains(t, string(data), session.ProjectID.String())
	assert.Contains(t, string(data), "Upfront")
	assert.Contains(t, string(data), `"total": "10000"`)
}
