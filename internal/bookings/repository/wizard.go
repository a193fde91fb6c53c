package repository

import (
	"context"
	"sync"
	"time"

	bookingserrors "tutorly/internal/bookings/errors"
	"tutorly/internal/bookings/wizard"
)

// WizardRepository stores booking wizard sessions. Replace succeeds only when
// the stored version equals the caller's version and bumps it on success.
type WizardRepository interface {
	Create(ctx context.Context, state *wizard.State) error
	FindByID(ctx context.Context, id string) (*wizard.State, error)
	Replace(ctx context.Context, state *wizard.State) error
	Delete(ctx context.Context, id string) error
	Stop()
}

type memoryWizardRepository struct {
	mu     sync.RWMutex
	store  map[string]wizard.State
	ttl    time.Duration
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

func NewMemoryWizardRepository(ttl time.Duration) WizardRepository {
	return newMemoryWizardRepository(ttl, time.Now, time.Minute)
}

func newMemoryWizardRepository(ttl time.Duration, now func() time.Time, sweepEvery time.Duration) *memoryWizardRepository {
	r := &memoryWizardRepository{
		store:  make(map[string]wizard.State),
		ttl:    ttl,
		now:    now,
		stopCh: make(chan struct{}),
	}
	go r.cleanup(sweepEvery)
	return r
}

func (r *memoryWizardRepository) Create(_ context.Context, state *wizard.State) error {
	now := r.now().UTC()
	state.Version = 1
	state.CreatedAt = now
	state.UpdatedAt = now
	state.ExpiresAt = now.Add(r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[state.ID] = *state
	return nil
}

func (r *memoryWizardRepository) FindByID(_ context.Context, id string) (*wizard.State, error) {
	r.mu.RLock()
	state, ok := r.store[id]
	r.mu.RUnlock()

	if !ok || r.now().After(state.ExpiresAt) {
		return nil, bookingserrors.ErrNotFound
	}
	return &state, nil
}

func (r *memoryWizardRepository) Replace(_ context.Context, state *wizard.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[state.ID]
	if !ok || r.now().After(current.ExpiresAt) {
		return bookingserrors.ErrNotFound
	}
	if current.Version != state.Version {
		return bookingserrors.ErrVersionConflict
	}

	now := r.now().UTC()
	state.Version++
	state.CreatedAt = current.CreatedAt
	state.UpdatedAt = now
	state.ExpiresAt = now.Add(r.ttl)
	r.store[state.ID] = *state
	return nil
}

func (r *memoryWizardRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(r.store, id)
	return nil
}

func (r *memoryWizardRepository) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			return
		}
	}
}

func (r *memoryWizardRepository) sweep() {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, state := range r.store {
		if now.After(state.ExpiresAt) {
			delete(r.store, id)
		}
	}
}

func (r *memoryWizardRepository) Stop() {
	r.once.Do(func() { close(r.stopCh) })
}
