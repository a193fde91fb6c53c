package middleware

import (
	"context"
	"net/http"

	apperrors "tutorly/pkg/errors"
	httputil "tutorly/pkg/http"
	"tutorly/pkg/logger"
	"tutorly/pkg/sanitizer"
)

const (
	StudentIDKey    contextKey = "student_id"
	StudentIDHeader            = "X-User-ID"
)

// StudentIdentity reads the acting student's id from the X-User-ID header.
// The portal does not authenticate; the header is what the browser would
// otherwise keep in local storage.
func StudentIdentity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			studentID := sanitizer.NormalizeID(r.Header.Get(StudentIDHeader))
			if studentID == "" {
				log.Warn("Missing student identity",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
				)
				err := apperrors.Unauthorized(StudentIDHeader + " header is required")
				if writeErr := httputil.WriteError(w, err); writeErr != nil {
					log.Error("failed to write error response", "middleware", "StudentIdentity", "error", writeErr)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithStudentID(r.Context(), studentID)))
		})
	}
}

func WithStudentID(ctx context.Context, studentID string) context.Context {
	return context.WithValue(ctx, StudentIDKey, studentID)
}

// StudentIDFromContext returns the id set by StudentIdentity, or "".
func StudentIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(StudentIDKey).(string); ok {
		return id
	}
	return ""
}
