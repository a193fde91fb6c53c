package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tutorly/internal/availability"
	bookingserrors "tutorly/internal/bookings/errors"
	"tutorly/internal/bookings/repository"
	"tutorly/internal/bookings/wizard"
	"tutorly/internal/events"
	"tutorly/pkg/client"
	"tutorly/pkg/config"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/model"
	"tutorly/pkg/pipeline"
	"tutorly/pkg/sanitizer"
)

const maxMutateAttempts = 3

type AvailabilitySource interface {
	Windows(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error)
}

type ClassSource interface {
	List(ctx context.Context, filter model.ClassFilter) ([]model.ClassRecord, error)
}

type UserSource interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

type SessionBooker interface {
	Create(ctx context.Context, req model.SessionRequest) (string, error)
}

// SlotTokens seals slot coordinates into the opaque slot_id handed to the UI.
type SlotTokens interface {
	Seal(parts ...string) (string, error)
	Open(token string) ([]string, error)
}

// Upstream groups the tutoring API operations the wizard needs.
type Upstream struct {
	Availability AvailabilitySource
	Classes      ClassSource
	Users        UserSource
	Sessions     SessionBooker
}

// TimeChoice identifies a slot either by display time or by slot id.
type TimeChoice struct {
	Time   string
	SlotID string
}

type WizardService interface {
	Create(ctx context.Context, studentID, tutorID string, duration int) (*wizard.State, error)
	Get(ctx context.Context, studentID, id string) (*wizard.State, error)
	SelectTutor(ctx context.Context, studentID, id, tutorID string) (*wizard.State, error)
	SelectSubject(ctx context.Context, studentID, id, subject string) (*wizard.State, error)
	SelectDuration(ctx context.Context, studentID, id string, minutes int) (*wizard.State, error)
	PickDate(ctx context.Context, studentID, id, date string) (*wizard.State, error)
	ChangeDate(ctx context.Context, studentID, id string) (*wizard.State, error)
	PickTime(ctx context.Context, studentID, id string, choice TimeChoice) (*wizard.State, error)
	SetDetails(ctx context.Context, studentID, id, sessionType, notes string) (*wizard.State, error)
	Submit(ctx context.Context, studentID, id string) (*wizard.State, error)
	Reset(ctx context.Context, studentID, id string) (*wizard.State, error)
	Delete(ctx context.Context, studentID, id string) error
}

type wizardService struct {
	repo      repository.WizardRepository
	upstream  Upstream
	tokens    SlotTokens
	publisher events.Publisher
	inflight  *inflight
	cfg       *config.Config
	now       func() time.Time
}

func NewWizardService(
	repo repository.WizardRepository,
	upstream Upstream,
	tokens SlotTokens,
	publisher events.Publisher,
	cfg *config.Config,
) WizardService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &wizardService{
		repo:      repo,
		upstream:  upstream,
		tokens:    tokens,
		publisher: publisher,
		inflight:  newInflight(),
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *wizardService) Create(ctx context.Context, studentID, tutorID string, duration int) (*wizard.State, error) {
	if studentID == "" {
		return nil, apperrors.Unauthorized("Student identity is required")
	}
	if duration == 0 {
		duration = s.cfg.DefaultSessionDurationMin
	}

	st := wizard.New(uuid.NewString(), studentID, s.cfg.DefaultSessionDurationMin)
	st, err := wizard.SelectDuration(st, duration)
	if err != nil {
		return nil, s.mapError(err, st.ID)
	}
	if tutorID = sanitizer.NormalizeID(tutorID); tutorID != "" {
		if st, err = wizard.SelectTutor(st, tutorID); err != nil {
			return nil, s.mapError(err, st.ID)
		}
	}

	if err := s.repo.Create(ctx, &st); err != nil {
		s.cfg.Log.Error("Failed to create wizard", "student_id", studentID, "error", err)
		return nil, apperrors.Internal("Failed to create booking wizard", err)
	}

	s.cfg.Log.Info("Booking wizard created",
		"wizard_id", st.ID,
		"student_id", studentID,
		"tutor_id", st.Selection.TutorID,
		"duration", st.Selection.Duration,
	)
	return s.refreshIfNeeded(ctx, &st)
}

func (s *wizardService) Get(ctx context.Context, studentID, id string) (*wizard.State, error) {
	return s.find(ctx, studentID, id)
}

func (s *wizardService) SelectTutor(ctx context.Context, studentID, id, tutorID string) (*wizard.State, error) {
	tutorID = sanitizer.NormalizeID(tutorID)
	st, err := s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		return wizard.SelectTutor(cur, tutorID)
	})
	if err != nil {
		return nil, err
	}
	return s.refreshIfNeeded(ctx, st)
}

func (s *wizardService) SelectSubject(ctx context.Context, studentID, id, subject string) (*wizard.State, error) {
	subject = sanitizer.NormalizeSubject(subject)
	return s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		return wizard.SelectSubject(cur, subject)
	})
}

func (s *wizardService) SelectDuration(ctx context.Context, studentID, id string, minutes int) (*wizard.State, error) {
	st, err := s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		return wizard.SelectDuration(cur, minutes)
	})
	if err != nil {
		return nil, err
	}
	return s.refreshIfNeeded(ctx, st)
}

func (s *wizardService) PickDate(ctx context.Context, studentID, id, date string) (*wizard.State, error) {
	return s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		return wizard.PickDate(cur, date)
	})
}

func (s *wizardService) ChangeDate(ctx context.Context, studentID, id string) (*wizard.State, error) {
	return s.mutate(ctx, studentID, id, wizard.ChangeDate)
}

func (s *wizardService) PickTime(ctx context.Context, studentID, id string, choice TimeChoice) (*wizard.State, error) {
	return s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		ref := choice.Time
		if choice.SlotID != "" {
			resolved, err := s.resolveSlotID(cur, choice.SlotID)
			if err != nil {
				return cur, err
			}
			ref = resolved
		}
		return wizard.PickTime(cur, ref)
	})
}

// resolveSlotID opens a slot token and checks it was issued for the current
// tutor, duration and date. It returns the slot's 24-hour start time, which
// still matches after the slot list has been regenerated with new tokens.
func (s *wizardService) resolveSlotID(cur wizard.State, slotID string) (string, error) {
	parts, err := s.tokens.Open(slotID)
	if err != nil || len(parts) != 4 {
		return "", errInvalidSlotID
	}
	tutorID, date, start, duration := parts[0], parts[1], parts[2], parts[3]
	if tutorID != cur.Selection.TutorID || duration != strconv.Itoa(cur.Selection.Duration) {
		return "", bookingserrors.ErrTimeUnavailable
	}
	if cur.Selection.Date != "" && date != cur.Selection.Date {
		return "", bookingserrors.ErrTimeUnavailable
	}
	return start, nil
}

func (s *wizardService) SetDetails(ctx context.Context, studentID, id, sessionType, notes string) (*wizard.State, error) {
	notes = sanitizer.NormalizeText(notes, model.MaxNotesLength)
	return s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		return wizard.SetDetails(cur, sessionType, notes)
	})
}

func (s *wizardService) Reset(ctx context.Context, studentID, id string) (*wizard.State, error) {
	st, err := s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		return wizard.Reset(cur, s.cfg.DefaultSessionDurationMin), nil
	})
	if err != nil {
		return nil, err
	}
	s.inflight.cancel(id)
	return st, nil
}

func (s *wizardService) Delete(ctx context.Context, studentID, id string) error {
	if _, err := s.find(ctx, studentID, id); err != nil {
		return err
	}
	s.inflight.cancel(id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	s.cfg.Log.Info("Booking wizard deleted", "wizard_id", id, "student_id", studentID)
	return nil
}

func (s *wizardService) find(ctx context.Context, studentID, id string) (*wizard.State, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Wizard ID cannot be empty")
	}
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	// Another student's wizard is reported as missing.
	if st.StudentID != studentID {
		return nil, apperrors.NotFoundWithID("Wizard", id)
	}
	return st, nil
}

// mutate loads the wizard, applies fn and stores the result, retrying when a
// concurrent request replaced the wizard in between.
func (s *wizardService) mutate(ctx context.Context, studentID, id string, fn func(wizard.State) (wizard.State, error)) (*wizard.State, error) {
	var lastErr error
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		cur, err := s.find(ctx, studentID, id)
		if err != nil {
			return nil, err
		}

		next, err := fn(*cur)
		if err != nil {
			return nil, s.mapError(err, id)
		}

		err = s.repo.Replace(ctx, &next)
		if err == nil {
			return &next, nil
		}
		if !errors.Is(err, bookingserrors.ErrVersionConflict) {
			return nil, s.mapError(err, id)
		}
		lastErr = err
		s.cfg.Log.Debug("Wizard changed concurrently, retrying", "wizard_id", id, "attempt", attempt)
	}
	return nil, s.mapError(lastErr, id)
}

// apply is mutate for internal transitions whose wizard errors are returned
// unmapped, so callers can recognise ErrStaleGeneration.
func (s *wizardService) apply(ctx context.Context, studentID, id string, fn func(wizard.State) (wizard.State, error)) (*wizard.State, error) {
	var fnErr error
	st, err := s.mutate(ctx, studentID, id, func(cur wizard.State) (wizard.State, error) {
		next, err := fn(cur)
		fnErr = err
		return next, err
	})
	if fnErr != nil {
		return nil, fnErr
	}
	return st, err
}

func (s *wizardService) refreshIfNeeded(ctx context.Context, st *wizard.State) (*wizard.State, error) {
	if !st.NeedsSlots() {
		return st, nil
	}
	return s.loadSlots(ctx, st)
}

// loadSlots fetches availability for the wizard's current generation and
// feeds the outcome back in. A newer selection cancels this fetch; results
// that still arrive late are dropped by the generation check.
func (s *wizardService) loadSlots(ctx context.Context, st *wizard.State) (*wizard.State, error) {
	gen := st.Generation
	fetchCtx, done := s.inflight.begin(ctx, st.ID, gen)
	defer done()

	load := &slotLoad{
		tutorID:  st.Selection.TutorID,
		duration: st.Selection.Duration,
	}
	err := pipeline.Run(fetchCtx, load,
		pipeline.NewStep("fetch", s.fetchAvailability),
		pipeline.NewStep("generate", s.generateSlots),
		pipeline.NewStep("subtract", subtractClasses),
		pipeline.NewStep("seal", s.sealSlots),
	)

	var next *wizard.State
	switch {
	case err == nil:
		next, err = s.apply(ctx, st.StudentID, st.ID, func(cur wizard.State) (wizard.State, error) {
			cur, err := wizard.TutorLoaded(cur, gen, load.subjects)
			if err != nil {
				return cur, err
			}
			return wizard.SlotsLoaded(cur, gen, load.slots)
		})
	case fetchCtx.Err() != nil && ctx.Err() == nil:
		s.cfg.Log.Debug("Availability fetch superseded", "wizard_id", st.ID, "generation", gen)
		return s.find(ctx, st.StudentID, st.ID)
	default:
		s.cfg.Log.Warn("Failed to load availability",
			"wizard_id", st.ID,
			"tutor_id", load.tutorID,
			"duration", load.duration,
			"error", err,
		)
		next, err = s.apply(context.WithoutCancel(ctx), st.StudentID, st.ID, func(cur wizard.State) (wizard.State, error) {
			return wizard.SlotsFailed(cur, gen)
		})
	}

	if errors.Is(err, bookingserrors.ErrStaleGeneration) {
		return s.find(ctx, st.StudentID, st.ID)
	}
	if err != nil {
		return nil, s.mapError(err, st.ID)
	}

	s.cfg.Log.Info("Availability loaded",
		"wizard_id", next.ID,
		"tutor_id", next.Selection.TutorID,
		"duration", next.Selection.Duration,
		"phase", next.Phase,
		"slots", len(next.Slots),
	)
	return next, nil
}

type slotLoad struct {
	tutorID  string
	duration int

	windows  []model.AvailabilityWindow
	classes  []model.ClassRecord
	subjects []string
	slots    []availability.BookableSlot
}

func (s *wizardService) generateSlots(_ context.Context, load *slotLoad) error {
	slots, err := availability.Generate(load.windows, load.duration, s.now().In(s.cfg.Location))
	if err != nil {
		return err
	}
	load.slots = slots
	return nil
}

func subtractClasses(_ context.Context, load *slotLoad) error {
	load.slots = availability.SubtractClasses(load.slots, load.classes)
	return nil
}

func (s *wizardService) sealSlots(_ context.Context, load *slotLoad) error {
	duration := strconv.Itoa(load.duration)
	for i := range load.slots {
		slot := &load.slots[i]
		id, err := s.tokens.Seal(load.tutorID, slot.Date, slot.Start.String(), duration)
		if err != nil {
			return fmt.Errorf("seal slot %s %s: %w", slot.Date, slot.StartTime, err)
		}
		slot.ID = id
	}
	return nil
}

var errInvalidSlotID = errors.New("slot_id is not valid")

func (s *wizardService) mapError(err error, id string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	var incomplete *bookingserrors.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		return apperrors.Validation("Booking is incomplete", map[string]any{"missing": incomplete.Missing})
	case errors.Is(err, bookingserrors.ErrStaleGeneration):
		return apperrors.Conflict(err.Error())
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Wizard", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid wizard ID format")
	case errors.Is(err, bookingserrors.ErrVersionConflict),
		errors.Is(err, bookingserrors.ErrSubmissionInProgress),
		errors.Is(err, bookingserrors.ErrAlreadyConfirmed):
		return apperrors.Conflict(err.Error())
	case errors.Is(err, availability.ErrUnsupportedDuration):
		return apperrors.Validation(err.Error(), map[string]any{"duration": fmt.Sprintf("must be one of %v", model.SessionDurations)})
	case errors.Is(err, errInvalidSlotID):
		return apperrors.Validation(err.Error(), map[string]any{"slot_id": "is not valid"})
	case isWizardInputError(err):
		return apperrors.Validation(err.Error(), nil)
	}

	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Validation failed", verrs.Details())
	}

	s.cfg.Log.Error("Wizard operation failed", "wizard_id", id, "error", err)
	return apperrors.Internal("Failed to update booking wizard", err)
}

func isWizardInputError(err error) bool {
	for _, target := range []error{
		bookingserrors.ErrNoTutor,
		bookingserrors.ErrSlotsNotReady,
		bookingserrors.ErrDateUnavailable,
		bookingserrors.ErrDateNotSelected,
		bookingserrors.ErrTimeUnavailable,
		bookingserrors.ErrSubjectRequired,
		bookingserrors.ErrSubjectNotOffered,
		bookingserrors.ErrInvalidSessionType,
		bookingserrors.ErrNotSubmitting,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// upstreamMessage is the text shown to the student when a booking fails.
func upstreamMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The booking service did not answer in time. Please try again."
	}
	return "Could not reach the booking service. Please try again."
}
