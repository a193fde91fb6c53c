package service

import (
	"context"
	"errors"
	"time"

	"tutorly/internal/availability"
	"tutorly/internal/bookings/wizard"
	"tutorly/internal/events"
	"tutorly/pkg/client"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/middleware"
	"tutorly/pkg/model"
	"tutorly/pkg/pipeline"
)

type submission struct {
	state     wizard.State
	request   model.SessionRequest
	bookingID string
}

// BookingCreated is the payload of the booking.created event.
type BookingCreated struct {
	SessionID   string    `json:"session_id"`
	WizardID    string    `json:"wizard_id"`
	StudentID   string    `json:"student_id"`
	TutorID     string    `json:"tutor_id"`
	Subject     string    `json:"subject"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    int       `json:"duration"`
	SessionType string    `json:"session_type"`
}

// Submit books the selected slot. The wizard is held in the submitting phase
// while the booking call runs, so concurrent edits are refused. Once the
// booking call starts it is not cancelled with the caller; the client timeout
// bounds it, and the wizard is moved on even if the caller has gone away.
func (s *wizardService) Submit(ctx context.Context, studentID, id string) (*wizard.State, error) {
	st, err := s.mutate(ctx, studentID, id, wizard.BeginSubmit)
	if err != nil {
		return nil, err
	}

	sub := &submission{state: *st}
	runErr := pipeline.Run(ctx, sub,
		pipeline.NewStep("instants", s.resolveInstants),
		pipeline.NewStep("validate", validateSubmission),
		pipeline.NewStep("book", s.book),
	)

	finishCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		message := failureMessage(runErr)
		if _, err := s.apply(finishCtx, studentID, id, func(cur wizard.State) (wizard.State, error) {
			return wizard.SubmitFailed(cur, message)
		}); err != nil {
			s.cfg.Log.Error("Failed to record booking failure", "wizard_id", id, "error", err)
		}

		s.cfg.Log.Warn("Booking submission failed",
			"wizard_id", id,
			"student_id", studentID,
			"tutor_id", st.Selection.TutorID,
			"error", runErr,
		)
		return nil, s.submitError(runErr, id)
	}

	next, err := s.apply(finishCtx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		return wizard.SubmitSucceeded(cur, sub.bookingID)
	})
	if err != nil {
		s.cfg.Log.Error("Booking created but wizard could not be confirmed",
			"wizard_id", id,
			"session_id", sub.bookingID,
			"error", err,
		)
		return nil, s.mapError(err, id)
	}

	s.cfg.Log.Info("Booking created",
		"wizard_id", id,
		"session_id", sub.bookingID,
		"student_id", studentID,
		"tutor_id", sub.request.TutorID,
		"start_time", sub.request.StartTime,
	)

	events.Emit(ctx, s.publisher, s.cfg.Log, events.Event{
		Type:          events.TypeBookingCreated,
		StudentID:     studentID,
		CorrelationID: middleware.RequestIDFromContext(ctx),
		Payload: BookingCreated{
			SessionID:   sub.bookingID,
			WizardID:    id,
			StudentID:   studentID,
			TutorID:     sub.request.TutorID,
			Subject:     sub.request.Subject,
			StartTime:   sub.request.StartTime,
			EndTime:     sub.request.EndTime,
			Duration:    sub.request.Duration,
			SessionType: sub.request.SessionType,
		},
	})
	return next, nil
}

func (s *wizardService) resolveInstants(_ context.Context, sub *submission) error {
	sel := sub.state.Selection
	start, end, err := availability.ToInstants(sel.Date, sel.Time, sel.Duration, s.cfg.Location)
	if err != nil {
		return err
	}
	sub.request = model.SessionRequest{
		TutorID:     sel.TutorID,
		StudentID:   sub.state.StudentID,
		Subject:     sel.Subject,
		StartTime:   start,
		EndTime:     end,
		Duration:    sel.Duration,
		SessionType: sel.SessionType,
		Notes:       sel.Notes,
	}
	return nil
}

func validateSubmission(_ context.Context, sub *submission) error {
	return model.Validate(sub.request)
}

// book detaches from the request context: a session created upstream after
// the caller disconnected must still confirm the wizard.
func (s *wizardService) book(ctx context.Context, sub *submission) error {
	id, err := s.upstream.Sessions.Create(context.WithoutCancel(ctx), sub.request)
	if err != nil {
		return err
	}
	sub.bookingID = id
	return nil
}

func failureMessage(err error) string {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	if errors.Is(err, availability.ErrUnsupportedDuration) || errors.Is(err, availability.ErrInvalidClock) {
		return "The selected time could not be read. Pick the time again."
	}
	return upstreamMessage(err)
}

func (s *wizardService) submitError(err error, id string) error {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Booking request is invalid", verrs.Details()).WithDetail("wizard_id", id)
	}
	if errors.Is(err, availability.ErrUnsupportedDuration) || errors.Is(err, availability.ErrInvalidClock) {
		return apperrors.Validation(err.Error(), map[string]any{"wizard_id": id})
	}
	return client.ToAppError(err, "Session").WithDetail("wizard_id", id)
}
