// Package editor manages open schedule editing sessions.
//
// A session owns the edit buffer for one project's payment schedule and
// the baseline it is reconciled against. Sessions live in memory only:
// closing the editor without saving discards nothing on the server and
// everything in the buffer.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyplan/backend/internal/metrics"
	"github.com/tallyplan/backend/internal/schedule"
)

var (
	ErrSessionNotFound = errors.New("there is no editor session with this ID")
	ErrSaveInFlight    = errors.New("a save is already running for this session, retry when it has finished")
)

// Session is one open schedule editor.
//
// All operations lock the session, the buffer itself is only ever
// touched by one goroutine at a time. Only Save does I/O; while a save
// is in flight the operator can keep editing, the next save re-derives
// its plan from the then-current buffer.
type Session struct {
	ID        uuid.UUID
	ProjectID uuid.UUID

	mu          sync.Mutex
	buffer      *schedule.Buffer
	baseline    []schedule.Item
	coordinator schedule.Coordinator
	store       schedule.Store
	saving      bool
	lastErr     error
}

// State is a point-in-time snapshot of a session for the editor UI.
type State struct {
	ID        uuid.UUID        `json:"id"`
	ProjectID uuid.UUID        `json:"projectId"`
	Total     decimal.Decimal  `json:"total"`
	Items     []schedule.Item  `json:"items"`
	Summary   schedule.Summary `json:"summary"`
	NeedsSave bool             `json:"needsSave"`
	Saving    bool             `json:"saving"`
	LastError *string          `json:"lastError"` // Sticks around until dismissed or a retry succeeds
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Total:     s.buffer.Total(),
		Items:     s.buffer.Items(),
		Summary:   s.buffer.Summarize(),
		NeedsSave: !schedule.BuildPlan(s.buffer.Items(), s.baseline).Empty(),
		Saving:    s.saving,
	}

	if s.lastErr != nil {
		msg := s.lastErr.Error()
		state.LastError = &msg
	}

	return state
}

// AddItem appends a new draft item to the schedule.
func (s *Session) AddItem() schedule.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buffer.AddItem()
}

// UpdateItem applies an edit to one item.
func (s *Session) UpdateItem(id uuid.UUID, change func(schedule.Item) schedule.Item) (schedule.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buffer.UpdateItem(id, change)
}

// RemoveItem removes one item from the schedule.
func (s *Session) RemoveItem(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buffer.RemoveItem(id)
}

// SetTotal mirrors a changed contract total into the session.
func (s *Session) SetTotal(total decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer.SetTotal(total)
}

// Refresh refetches the schedule from the store and merges it if the
// buffer's no-clobber guards allow it. It reports whether the refresh
// was applied.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	items, err := s.store.List(ctx, s.ProjectID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.buffer.MergeRefresh(items)
	if applied {
		// An applied refresh is a load: it becomes the new diff baseline.
		s.baseline = items
	} else {
		metrics.RefreshesDropped.Inc()
	}

	return applied, nil
}

// Save persists the buffer state.
//
// The plan is derived at save time, not ahead of it. On success the
// baseline advances to the server-confirmed items and the buffer is
// rebased onto them: former drafts take their store-assigned IDs, and
// edits made while the save was running survive for the next save. On
// failure the buffer is left exactly as the operator left it and the
// error sticks to the session until dismissed or a retry succeeds.
//
// Only one save may run at a time, a second call returns ErrSaveInFlight.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}

	// The operator may keep editing while the save runs, the snapshot
	// the plan was built from is what the rebase compares against
	planned := s.buffer.Items()

	plan := schedule.BuildPlan(planned, s.baseline)
	if plan.Empty() {
		s.lastErr = nil
		s.mu.Unlock()
		metrics.Saves.WithLabelValues("noop").Inc()
		return nil
	}

	s.saving = true
	s.mu.Unlock()

	result, err := s.coordinator.Save(ctx, s.ProjectID, plan)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false

	if err != nil {
		s.lastErr = err
		metrics.Saves.WithLabelValues("failure").Inc()
		return err
	}

	s.baseline = result.Baseline
	s.buffer.Rebase(planned, result.Baseline, result.CreatedIDs)
	s.lastErr = nil
	metrics.Saves.WithLabelValues("success").Inc()

	return nil
}

// LastError returns the sticky error of the last failed save, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// DismissError clears the sticky save error.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = nil
}

// exportData is the shape of the manual-recovery export.
type exportData struct {
	ProjectID  uuid.UUID       `json:"projectId"`
	ExportedAt time.Time       `json:"exportedAt"`
	Total      decimal.Decimal `json:"total"`
	Items      []schedule.Item `json:"items"`
}

// Export serializes the current buffer state so the operator can
// recover unsaved work by hand when saves keep failing.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return json.MarshalIndent(exportData{
		ProjectID:  s.ProjectID,
		ExportedAt: time.Now().In(time.UTC),
		Total:      s.buffer.Total(),
		Items:      s.buffer.Items(),
	}, "", "  ")
}
