// Package wizard models the session booking flow as a single state record and
// pure transition functions. Nothing here performs I/O; callers fetch slots and
// submit bookings, then feed the outcome back in.
package wizard

import (
	"fmt"
	"strings"
	"time"

	"tutorly/internal/availability"
	bookingserrors "tutorly/internal/bookings/errors"
	"tutorly/pkg/model"
)

type Phase string

const (
	PhaseNoTutor        Phase = "no_tutor"
	PhaseLoadingSlots   Phase = "loading_slots"
	PhaseNoAvailability Phase = "no_availability"
	PhasePickingDate    Phase = "picking_date"
	PhasePickingTime    Phase = "picking_time"
	PhaseReadyToSubmit  Phase = "ready_to_submit"
	PhaseSubmitting     Phase = "submitting"
	PhaseConfirmed      Phase = "confirmed"
)

const (
	NoticeSelectTutor    = "Select a tutor first"
	NoticeNoAvailability = "This tutor has no available times in the next two weeks. Try another tutor or duration."
	NoticeLoadFailed     = "Could not load available times. Select the tutor again to retry."
)

// Selection is what the student has chosen so far.
type Selection struct {
	TutorID     string `json:"tutor_id,omitempty" bson:"tutor_id,omitempty"`
	Subject     string `json:"subject,omitempty" bson:"subject,omitempty"`
	Duration    int    `json:"duration" bson:"duration"`
	Date        string `json:"date,omitempty" bson:"date,omitempty"`
	Time        string `json:"time,omitempty" bson:"time,omitempty"`
	SessionType string `json:"session_type,omitempty" bson:"session_type,omitempty"`
	Notes       string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// State is one student's booking wizard. Slots is always replaced wholesale.
type State struct {
	ID            string                      `json:"id" bson:"_id"`
	StudentID     string                      `json:"student_id" bson:"student_id"`
	Phase         Phase                       `json:"phase" bson:"phase"`
	Selection     Selection                   `json:"selection" bson:"selection"`
	TutorSubjects []string                    `json:"tutor_subjects,omitempty" bson:"tutor_subjects,omitempty"`
	Slots         []availability.BookableSlot `json:"-" bson:"slots"`
	Generation    uint64                      `json:"generation" bson:"generation"`
	Notice        string                      `json:"notice,omitempty" bson:"notice,omitempty"`
	LastError     string                      `json:"last_error,omitempty" bson:"last_error,omitempty"`
	BookingID     string                      `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	Version       int64                       `json:"version" bson:"version"`
	CreatedAt     time.Time                   `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at" bson:"updated_at"`
	ExpiresAt     time.Time                   `json:"expires_at" bson:"expires_at"`
}

// New returns an empty wizard waiting for a tutor.
func New(id, studentID string, duration int) State {
	return State{
		ID:        id,
		StudentID: studentID,
		Phase:     PhaseNoTutor,
		Selection: Selection{
			Duration:    duration,
			SessionType: model.SessionTypeOnline,
		},
		Slots:  []availability.BookableSlot{},
		Notice: NoticeSelectTutor,
	}
}

// NeedsSlots reports whether the state is waiting for a slot fetch.
func (s State) NeedsSlots() bool {
	return s.Phase == PhaseLoadingSlots
}

// Dates summarises the generated slots for the date picker.
func (s State) Dates() []availability.DateSummary {
	return availability.SummarizeDates(s.Slots)
}

// Times lists the slots on the selected date, or nothing when no date is picked.
func (s State) Times() []availability.BookableSlot {
	if s.Selection.Date == "" {
		return []availability.BookableSlot{}
	}
	return availability.SlotsOn(s.Slots, s.Selection.Date)
}

func guardEditable(s State) error {
	switch s.Phase {
	case PhaseSubmitting:
		return bookingserrors.ErrSubmissionInProgress
	case PhaseConfirmed:
		return bookingserrors.ErrAlreadyConfirmed
	}
	return nil
}

// invalidate drops everything derived from (tutor, duration) and starts a new generation.
func invalidate(s State) State {
	s.Selection.Date = ""
	s.Selection.Time = ""
	s.Slots = []availability.BookableSlot{}
	s.LastError = ""
	s.Generation++
	if s.Selection.TutorID == "" {
		s.Phase = PhaseNoTutor
		s.Notice = NoticeSelectTutor
		return s
	}
	s.Phase = PhaseLoadingSlots
	s.Notice = ""
	return s
}

// SelectTutor switches tutor. Selecting any tutor, including the current one,
// discards the slot list and requests a fresh one. An empty id deselects.
func SelectTutor(s State, tutorID string) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}
	tutorID = strings.TrimSpace(tutorID)
	if tutorID != s.Selection.TutorID {
		s.TutorSubjects = nil
	}
	s.Selection.TutorID = tutorID
	return invalidate(s), nil
}

// SelectDuration changes the session length. Choosing the current length is a no-op.
func SelectDuration(s State, minutes int) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}
	if !model.IsSupportedDuration(minutes) {
		return s, fmt.Errorf("%w: %d minutes", availability.ErrUnsupportedDuration, minutes)
	}
	if minutes == s.Selection.Duration {
		return s, nil
	}
	s.Selection.Duration = minutes
	return invalidate(s), nil
}

func SelectSubject(s State, subject string) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return s, bookingserrors.ErrSubjectRequired
	}
	if len(s.TutorSubjects) > 0 {
		canonical, ok := matchSubject(s.TutorSubjects, subject)
		if !ok {
			return s, bookingserrors.ErrSubjectNotOffered
		}
		subject = canonical
	}
	s.Selection.Subject = subject
	return s, nil
}

func matchSubject(subjects []string, subject string) (string, bool) {
	for _, sub := range subjects {
		if strings.EqualFold(sub, subject) {
			return sub, true
		}
	}
	return "", false
}

// TutorLoaded records the subjects the selected tutor teaches. A previously
// chosen subject the tutor does not teach is cleared.
func TutorLoaded(s State, gen uint64, subjects []string) (State, error) {
	if gen != s.Generation {
		return s, bookingserrors.ErrStaleGeneration
	}
	s.TutorSubjects = subjects
	if s.Selection.Subject != "" && len(subjects) > 0 {
		if canonical, ok := matchSubject(subjects, s.Selection.Subject); ok {
			s.Selection.Subject = canonical
		} else {
			s.Selection.Subject = ""
		}
	}
	if s.Selection.Subject == "" && len(subjects) == 1 {
		s.Selection.Subject = subjects[0]
	}
	return s, nil
}

// SlotsLoaded installs a freshly generated slot list. Results for an older
// generation are rejected with ErrStaleGeneration and leave s unchanged.
func SlotsLoaded(s State, gen uint64, slots []availability.BookableSlot) (State, error) {
	if gen != s.Generation || s.Phase != PhaseLoadingSlots {
		return s, bookingserrors.ErrStaleGeneration
	}
	if len(slots) == 0 {
		s.Slots = []availability.BookableSlot{}
		s.Phase = PhaseNoAvailability
		s.Notice = NoticeNoAvailability
		return s, nil
	}
	s.Slots = slots
	s.Phase = PhasePickingDate
	s.Notice = ""
	return s, nil
}

// SlotsFailed records a failed availability fetch. The wizard stays usable:
// the student can pick another tutor or reselect this one to retry.
func SlotsFailed(s State, gen uint64) (State, error) {
	if gen != s.Generation || s.Phase != PhaseLoadingSlots {
		return s, bookingserrors.ErrStaleGeneration
	}
	s.Slots = []availability.BookableSlot{}
	s.Phase = PhaseNoAvailability
	s.Notice = NoticeLoadFailed
	return s, nil
}

func PickDate(s State, date string) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}
	if err := requireSlots(s); err != nil {
		return s, err
	}
	date = strings.TrimSpace(date)
	if !availability.HasDate(s.Slots, date) {
		return s, bookingserrors.ErrDateUnavailable
	}
	s.Selection.Date = date
	s.Selection.Time = ""
	s.Phase = PhasePickingTime
	return s, nil
}

// ChangeDate returns to the date picker. The previous date stays selected
// until another one is picked; the time is cleared.
func ChangeDate(s State) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}
	if err := requireSlots(s); err != nil {
		return s, err
	}
	s.Selection.Time = ""
	s.Phase = PhasePickingDate
	return s, nil
}

// PickTime selects a slot on the chosen date by display time or slot id.
func PickTime(s State, ref string) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}
	if err := requireSlots(s); err != nil {
		return s, err
	}
	if s.Selection.Date == "" || s.Phase == PhasePickingDate {
		return s, bookingserrors.ErrDateNotSelected
	}
	slot, ok := availability.FindSlot(s.Slots, s.Selection.Date, ref)
	if !ok {
		return s, bookingserrors.ErrTimeUnavailable
	}
	s.Selection.Time = slot.StartTime
	s.Phase = PhaseReadyToSubmit
	return s, nil
}

func requireSlots(s State) error {
	switch s.Phase {
	case PhaseNoTutor:
		return bookingserrors.ErrNoTutor
	case PhaseLoadingSlots, PhaseNoAvailability:
		return bookingserrors.ErrSlotsNotReady
	}
	return nil
}

func SetDetails(s State, sessionType, notes string) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}
	sessionType = strings.ToLower(strings.TrimSpace(sessionType))
	if !model.IsSessionType(sessionType) {
		return s, bookingserrors.ErrInvalidSessionType
	}
	s.Selection.SessionType = sessionType
	s.Selection.Notes = notes
	return s, nil
}

// BeginSubmit checks that every selection is present and still matches a
// generated slot, then moves to PhaseSubmitting. On failure s is returned unchanged.
func BeginSubmit(s State) (State, error) {
	if err := guardEditable(s); err != nil {
		return s, err
	}

	sel := s.Selection
	var missing []string
	if sel.TutorID == "" {
		missing = append(missing, "tutor_id")
	}
	if sel.Subject == "" {
		missing = append(missing, "subject")
	}
	if !model.IsSupportedDuration(sel.Duration) {
		missing = append(missing, "duration")
	}
	if sel.Date == "" {
		missing = append(missing, "date")
	}
	if sel.Time == "" || s.Phase != PhaseReadyToSubmit {
		missing = append(missing, "time")
	}
	if !model.IsSessionType(sel.SessionType) {
		missing = append(missing, "session_type")
	}
	if len(missing) > 0 {
		return s, &bookingserrors.IncompleteError{Missing: missing}
	}
	if _, ok := availability.FindSlot(s.Slots, sel.Date, sel.Time); !ok {
		return s, bookingserrors.ErrTimeUnavailable
	}

	s.Phase = PhaseSubmitting
	s.LastError = ""
	return s, nil
}

// Slot returns the slot matching the current date and time selection.
func (s State) Slot() (availability.BookableSlot, bool) {
	return availability.FindSlot(s.Slots, s.Selection.Date, s.Selection.Time)
}

func SubmitSucceeded(s State, bookingID string) (State, error) {
	if s.Phase != PhaseSubmitting {
		return s, bookingserrors.ErrNotSubmitting
	}
	s.Phase = PhaseConfirmed
	s.BookingID = bookingID
	s.LastError = ""
	return s, nil
}

// SubmitFailed keeps every selection so the student can retry, and records
// the server's message verbatim.
func SubmitFailed(s State, message string) (State, error) {
	if s.Phase != PhaseSubmitting {
		return s, bookingserrors.ErrNotSubmitting
	}
	s.Phase = PhaseReadyToSubmit
	s.LastError = message
	return s, nil
}

// Reset starts over with a fresh wizard under the same id. The generation keeps
// increasing so any fetch still in flight is ignored.
func Reset(s State, duration int) State {
	fresh := New(s.ID, s.StudentID, duration)
	fresh.Generation = s.Generation + 1
	fresh.Version = s.Version
	fresh.CreatedAt = s.CreatedAt
	fresh.UpdatedAt = s.UpdatedAt
	fresh.ExpiresAt = s.ExpiresAt
	return fresh
}
