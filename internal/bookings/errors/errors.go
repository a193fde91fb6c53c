package errors

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("wizard not found")

	ErrInvalidID = errors.New("invalid wizard ID format")

	ErrVersionConflict = errors.New("wizard was modified concurrently")

	ErrStaleGeneration = errors.New("result belongs to a superseded selection")

	ErrNoTutor = errors.New("select a tutor first")

	ErrSlotsNotReady = errors.New("available times are not loaded")

	ErrDateUnavailable = errors.New("date has no available times")

	ErrDateNotSelected = errors.New("select a date first")

	ErrTimeUnavailable = errors.New("time is not available on the selected date")

	ErrSubjectRequired = errors.New("subject is required")

	ErrSubjectNotOffered = errors.New("tutor does not teach this subject")

	ErrInvalidSessionType = errors.New("session type must be online or in-person")

	ErrSubmissionInProgress = errors.New("booking is being submitted")

	ErrAlreadyConfirmed = errors.New("booking is already confirmed")

	ErrNotSubmitting = errors.New("no submission in progress")
)

// IncompleteError lists the selections still missing before a booking can be submitted.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "booking is incomplete: missing " + strings.Join(e.Missing, ", ")
}
