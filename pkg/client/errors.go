package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "tutorly/pkg/errors"
)

// APIError is a non-2xx answer from the tutoring API.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsRejected reports whether the API answered with a client error, as opposed
// to being unreachable or failing internally.
func IsRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// ToAppError maps a client failure onto the portal's error taxonomy. API
// messages are passed through verbatim.
func ToAppError(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}

	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		return apperrors.NotFound(resource)
	case errors.As(err, &apiErr):
		return apperrors.UpstreamRejected(apiErr.Status, apiErr.Message, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Tutoring API did not answer in time")
	default:
		return apperrors.Unavailable("Tutoring API", err)
	}
}
