package client

import "context"

// Limiter bounds the number of concurrent calls made to the tutoring API.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Limiter{slots: make(chan struct{}, maxConcurrent)}
}

// Run executes fn once a slot is free. The slot is released even if fn panics.
// A cancelled context abandons the wait and returns ctx.Err().
func (l *Limiter) Run(ctx context.Context, fn func() error) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.slots }()

	return fn()
}

func (l *Limiter) InFlight() int {
	return len(l.slots)
}
