package service

import (
	"context"
	"sync"
)

// inflight tracks the availability fetch currently running for each wizard
// so a newer selection can cancel the older fetch.
type inflight struct {
	mu      sync.Mutex
	fetches map[string]*fetch
}

type fetch struct {
	generation uint64
	cancel     context.CancelFunc
}

func newInflight() *inflight {
	return &inflight{fetches: make(map[string]*fetch)}
}

// begin registers a fetch for wizardID at generation and cancels any fetch
// for an older generation. The returned func must be called when the fetch ends.
func (f *inflight) begin(parent context.Context, wizardID string, generation uint64) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	current := &fetch{generation: generation, cancel: cancel}

	f.mu.Lock()
	prev, ok := f.fetches[wizardID]
	switch {
	case !ok:
		f.fetches[wizardID] = current
	case prev.generation <= generation:
		prev.cancel()
		f.fetches[wizardID] = current
	}
	f.mu.Unlock()

	return ctx, func() {
		f.mu.Lock()
		if f.fetches[wizardID] == current {
			delete(f.fetches, wizardID)
		}
		f.mu.Unlock()
		cancel()
	}
}

// cancel stops whatever fetch is running for wizardID.
func (f *inflight) cancel(wizardID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.fetches[wizardID]; ok {
		prev.cancel()
		delete(f.fetches, wizardID)
	}
}

func (f *inflight) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}
