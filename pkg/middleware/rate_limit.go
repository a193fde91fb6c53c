package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "tutorly/pkg/errors"
	httputil "tutorly/pkg/http"
	"tutorly/pkg/logger"
)

// StudentRateLimiter is a sliding-window limiter keyed by student id.
type StudentRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	log      *logger.Logger
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewStudentRateLimiter(limit int, window time.Duration, log *logger.Logger) *StudentRateLimiter {
	limiter := &StudentRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		log:      log,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *StudentRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *StudentRateLimiter) sweep() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for student, timestamps := range rl.requests {
		if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) >= rl.window {
			delete(rl.requests, student)
		}
	}
}

func (rl *StudentRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records a request for studentID and reports whether it fits in the window.
func (rl *StudentRateLimiter) Allow(studentID string) bool {
	if studentID == "" {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[studentID]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[studentID] = valid
		return false
	}

	rl.requests[studentID] = append(valid, now)
	return true
}

// StudentRateLimit must run inside StudentIdentity.
func StudentRateLimit(limiter *StudentRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			studentID := StudentIDFromContext(r.Context())

			if !limiter.Allow(studentID) {
				rejectRateLimited(w, limiter, r, studentID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(w http.ResponseWriter, limiter *StudentRateLimiter, r *http.Request, studentID string) {
	limiter.log.Warn("Rate limit exceeded",
		"request_id", RequestIDFromContext(r.Context()),
		"student_id", studentID,
		"path", r.URL.Path,
	)

	w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
	if writeErr := httputil.WriteError(w, apperrors.TooManyRequests("Rate limit exceeded")); writeErr != nil {
		limiter.log.Error("failed to write error response", "middleware", "StudentRateLimit", "error", writeErr)
	}
}
