package editor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tallyplan/backend/internal/metrics"
	"github.com/tallyplan/backend/internal/schedule"
)

// Store is what the registry needs from storage: the schedule records
// plus the contract total of their project.
type Store interface {
	schedule.Store
	ContractTotal(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error)
}

// Registry tracks the editor sessions that are currently open.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	store       Store
	coordinator schedule.Coordinator
}

// NewRegistry returns an empty registry persisting through the given
// store.
func NewRegistry(store Store, log zerolog.Logger) *Registry {
	return &Registry{
		sessions:    make(map[uuid.UUID]*Session),
		store:       store,
		coordinator: schedule.NewCoordinator(store, log),
	}
}

// Open loads a project's schedule and opens an editor session for it.
func (r *Registry) Open(ctx context.Context, projectID uuid.UUID) (*Session, error) {
	total, err := r.store.ContractTotal(ctx, projectID)
	if err != nil {
		return nil, err
	}

	items, err := r.store.List(ctx, projectID)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:          uuid.New(),
		ProjectID:   projectID,
		buffer:      schedule.NewBuffer(total),
		baseline:    items,
		coordinator: r.coordinator,
		store:       r.store,
	}
	session.buffer.Initialize(items)

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	metrics.OpenSessions.Inc()

	return session, nil
}

// Get returns an open session.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Close discards a session. Unsaved edits are gone afterwards, the
// caller is expected to have saved or exported them.
func (r *Registry) Close(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}

	delete(r.sessions, id)
	metrics.OpenSessions.Dec()

	return nil
}

// UpdateTotal fans a changed contract total out to every open session
// of the project.
func (r *Registry) UpdateTotal(projectID uuid.UUID, total decimal.Decimal) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, session := range r.sessions {
		if session.ProjectID == projectID {
			session.SetTotal(total)
		}
	}
}
