package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingserrors "tutorly/internal/bookings/errors"
	"tutorly/internal/bookings/repository"
	"tutorly/internal/bookings/wizard"
	"tutorly/internal/events"
	"tutorly/pkg/client"
	"tutorly/pkg/config"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/logger"
	"tutorly/pkg/model"
	"tutorly/pkg/sealer"
)

const testSlotKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockAvailability struct {
	windowsFunc func(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error)
}

func (m *mockAvailability) Windows(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error) {
	if m.windowsFunc != nil {
		return m.windowsFunc(ctx, tutorID, excludeClasses)
	}
	return []model.AvailabilityWindow{}, nil
}

type mockClasses struct {
	listFunc func(ctx context.Context, filter model.ClassFilter) ([]model.ClassRecord, error)
}

func (m *mockClasses) List(ctx context.Context, filter model.ClassFilter) ([]model.ClassRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []model.ClassRecord{}, nil
}

type mockUsers struct {
	getFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUsers) Get(ctx context.Context, id string) (*model.User, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.User{ID: id, Role: model.RoleTutor, Subjects: []string{"Mathematics"}}, nil
}

type mockSessions struct {
	mu         sync.Mutex
	createFunc func(ctx context.Context, req model.SessionRequest) (string, error)
	requests   []model.SessionRequest
}

func (m *mockSessions) Create(ctx context.Context, req model.SessionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return "session-1", nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// conflictingRepository fails the first n replaces with a version conflict.
type conflictingRepository struct {
	repository.WizardRepository
	conflicts int
}

func (r *conflictingRepository) Replace(ctx context.Context, st *wizard.State) error {
	if r.conflicts > 0 {
		r.conflicts--
		return bookingserrors.ErrVersionConflict
	}
	return r.WizardRepository.Replace(ctx, st)
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

type fixture struct {
	svc       *wizardService
	repo      repository.WizardRepository
	avail     *mockAvailability
	classes   *mockClasses
	users     *mockUsers
	sessions  *mockSessions
	publisher *recordingPublisher
	tokens    *sealer.Sealer
}

// Friday 2026-10-16; the first Monday in the horizon is 2026-10-19.
var fixedNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func mondayMorning() []model.AvailabilityWindow {
	return []model.AvailabilityWindow{{TutorID: "tutor-1", Day: model.Monday, StartTime: "07:00", EndTime: "09:00"}}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := repository.NewMemoryWizardRepository(time.Hour)
	t.Cleanup(repo.Stop)

	tokens, err := sealer.New(testSlotKey)
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}

	f := &fixture{
		repo: repo,
		avail: &mockAvailability{windowsFunc: func(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error) {
			return mondayMorning(), nil
		}},
		classes:   &mockClasses{},
		users:     &mockUsers{},
		sessions:  &mockSessions{},
		publisher: &recordingPublisher{},
		tokens:    tokens,
	}
	f.svc = f.build(repo)
	return f
}

func (f *fixture) build(repo repository.WizardRepository) *wizardService {
	cfg := &config.Config{
		Log:                       logger.Discard(),
		Location:                  time.UTC,
		DefaultSessionDurationMin: 60,
		ExcludeClassTimes:         true,
	}
	svc := NewWizardService(repo, Upstream{
		Availability: f.avail,
		Classes:      f.classes,
		Users:        f.users,
		Sessions:     f.sessions,
	}, f.tokens, f.publisher, cfg).(*wizardService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_WithoutTutorWaitsForSelection(t *testing.T) {
	f := newFixture(t)

	st, err := f.svc.Create(context.Background(), "stu-1", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Phase != wizard.PhaseNoTutor || st.Notice != wizard.NoticeSelectTutor {
		t.Errorf("expected no-tutor placeholder, got %s %q", st.Phase, st.Notice)
	}
	if st.Selection.Duration != 60 {
		t.Errorf("expected default duration 60, got %d", st.Selection.Duration)
	}
	if len(st.Slots) != 0 {
		t.Errorf("expected no slots, got %d", len(st.Slots))
	}
}

func TestCreate_RejectsUnsupportedDuration(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "stu-1", "tutor-1", 45)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestCreate_WithTutorLoadsSlots(t *testing.T) {
	f := newFixture(t)

	var excluded bool
	var classFilter model.ClassFilter
	f.avail.windowsFunc = func(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error) {
		excluded = excludeClasses
		return mondayMorning(), nil
	}
	f.classes.listFunc = func(ctx context.Context, filter model.ClassFilter) ([]model.ClassRecord, error) {
		classFilter = filter
		return nil, nil
	}

	st, err := f.svc.Create(context.Background(), "stu-1", "tutor-1", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.Phase != wizard.PhasePickingDate {
		t.Fatalf("expected picking_date, got %s", st.Phase)
	}
	if !excluded || classFilter.TutorID != "tutor-1" {
		t.Errorf("unexpected upstream arguments: exclude=%v filter=%+v", excluded, classFilter)
	}

	dates := st.Dates()
	if len(dates) != 2 || dates[0].Date != "2026-10-19" || dates[1].Date != "2026-10-26" {
		t.Fatalf("expected the two Mondays in the horizon, got %+v", dates)
	}
	times := availabilitySlotsOn(st, "2026-10-19")
	if len(times) != 2 || times[0] != "7:00 AM" || times[1] != "8:00 AM" {
		t.Errorf("unexpected Monday times %v", times)
	}
	for _, slot := range st.Slots {
		if slot.ID == "" {
			t.Fatal("every slot should carry a slot id")
		}
	}
	if st.Selection.Subject != "Mathematics" {
		t.Errorf("single subject should be preselected, got %q", st.Selection.Subject)
	}
}

func availabilitySlotsOn(st *wizard.State, date string) []string {
	var out []string
	for _, slot := range st.Slots {
		if slot.Date == date {
			out = append(out, slot.StartTime)
		}
	}
	return out
}

func TestSelectTutor_SubtractsClasses(t *testing.T) {
	f := newFixture(t)
	f.classes.listFunc = func(ctx context.Context, filter model.ClassFilter) ([]model.ClassRecord, error) {
		return []model.ClassRecord{{
			ID: "c1", TutorID: "tutor-1", Title: "Algebra", Subject: "Mathematics",
			Day: model.Monday, StartTime: "07:00", EndTime: "08:00", Status: model.ClassStatusActive,
		}}, nil
	}

	st, _ := f.svc.Create(context.Background(), "stu-1", "", 0)
	st, err := f.svc.SelectTutor(context.Background(), "stu-1", st.ID, "tutor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	times := availabilitySlotsOn(st, "2026-10-19")
	if len(times) != 1 || times[0] != "8:00 AM" {
		t.Errorf("class time should be removed, got %v", times)
	}
}

func TestSelectTutor_FetchFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.avail.windowsFunc = func(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error) {
		return nil, &client.APIError{Status: 500, Method: "GET", Path: "/api/tutors/tutor-1/availability", Message: "boom"}
	}

	st, _ := f.svc.Create(context.Background(), "stu-1", "", 0)
	st, err := f.svc.SelectTutor(context.Background(), "stu-1", st.ID, "tutor-1")
	if err != nil {
		t.Fatalf("fetch failure should not be an error, got %v", err)
	}
	if st.Phase != wizard.PhaseNoAvailability || st.Notice != wizard.NoticeLoadFailed {
		t.Errorf("expected no_availability with load-failed notice, got %s %q", st.Phase, st.Notice)
	}
}

func TestSelectTutor_NoWindowsReportsNoAvailability(t *testing.T) {
	f := newFixture(t)
	f.avail.windowsFunc = func(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error) {
		return []model.AvailabilityWindow{}, nil
	}

	st, err := f.svc.Create(context.Background(), "stu-1", "tutor-1", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Phase != wizard.PhaseNoAvailability || st.Notice != wizard.NoticeNoAvailability {
		t.Errorf("expected no_availability, got %s %q", st.Phase, st.Notice)
	}
}

func TestSelectTutor_ProfileFailureKeepsSlots(t *testing.T) {
	f := newFixture(t)
	f.users.getFunc = func(ctx context.Context, id string) (*model.User, error) {
		return nil, errors.New("connection refused")
	}

	st, err := f.svc.Create(context.Background(), "stu-1", "tutor-1", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Phase != wizard.PhasePickingDate || len(st.TutorSubjects) != 0 {
		t.Errorf("expected slots without subjects, got %s %v", st.Phase, st.TutorSubjects)
	}
}

func TestSelectDuration_ClearsDateAndTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, _ := f.svc.Create(ctx, "stu-1", "tutor-1", 60)
	st, _ = f.svc.PickDate(ctx, "stu-1", st.ID, "2026-10-19")
	st, err := f.svc.PickTime(ctx, "stu-1", st.ID, TimeChoice{Time: "8:00 AM"})
	if err != nil || st.Phase != wizard.PhaseReadyToSubmit {
		t.Fatalf("setup failed: %v %s", err, st.Phase)
	}

	st, err = f.svc.SelectDuration(ctx, "stu-1", st.ID, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Selection.Date != "" || st.Selection.Time != "" {
		t.Errorf("date and time should be cleared, got %q %q", st.Selection.Date, st.Selection.Time)
	}
	if st.Phase != wizard.PhasePickingDate {
		t.Errorf("expected picking_date, got %s", st.Phase)
	}
	if times := availabilitySlotsOn(st, "2026-10-19"); len(times) != 1 || times[0] != "7:00 AM" {
		t.Errorf("120 minute slots should be regenerated, got %v", times)
	}
}

func TestPickTime_BySlotID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, _ := f.svc.Create(ctx, "stu-1", "tutor-1", 60)
	st, _ = f.svc.PickDate(ctx, "stu-1", st.ID, "2026-10-19")

	var slotID string
	for _, slot := range st.Times() {
		if slot.StartTime == "8:00 AM" {
			slotID = slot.ID
		}
	}

	st, err := f.svc.PickTime(ctx, "stu-1", st.ID, TimeChoice{SlotID: slotID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Selection.Time != "8:00 AM" {
		t.Errorf("expected 8:00 AM, got %q", st.Selection.Time)
	}
}

func TestPickTime_RejectsForeignSlotID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, _ := f.svc.Create(ctx, "stu-1", "tutor-1", 60)
	st, _ = f.svc.PickDate(ctx, "stu-1", st.ID, "2026-10-19")

	otherTutor, _ := f.tokens.Seal("tutor-2", "2026-10-19", "07:00", "60")
	_, err := f.svc.PickTime(ctx, "stu-1", st.ID, TimeChoice{SlotID: otherTutor})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.PickTime(ctx, "stu-1", st.ID, TimeChoice{SlotID: "garbage"})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestPickDate_UnknownDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, _ := f.svc.Create(ctx, "stu-1", "tutor-1", 60)
	_, err := f.svc.PickDate(ctx, "stu-1", st.ID, "2026-10-20")
	assertCode(t, err, apperrors.CodeValidation)
}

func readyWizard(t *testing.T, f *fixture) *wizard.State {
	t.Helper()
	ctx := context.Background()

	st, err := f.svc.Create(ctx, "stu-1", "tutor-1", 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st, err = f.svc.PickDate(ctx, "stu-1", st.ID, "2026-10-19"); err != nil {
		t.Fatalf("pick date: %v", err)
	}
	if st, err = f.svc.PickTime(ctx, "stu-1", st.ID, TimeChoice{Time: "7:00 AM"}); err != nil {
		t.Fatalf("pick time: %v", err)
	}
	if st, err = f.svc.SetDetails(ctx, "stu-1", st.ID, "Online", "  chapter 3  "); err != nil {
		t.Fatalf("details: %v", err)
	}
	return st
}

func TestSubmit_BooksSessionAndPublishes(t *testing.T) {
	f := newFixture(t)
	st := readyWizard(t, f)

	st, err := f.svc.Submit(context.Background(), "stu-1", st.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Phase != wizard.PhaseConfirmed || st.BookingID != "session-1" {
		t.Errorf("expected confirmed session-1, got %s %q", st.Phase, st.BookingID)
	}

	if len(f.sessions.requests) != 1 {
		t.Fatalf("expected one booking call, got %d", len(f.sessions.requests))
	}
	req := f.sessions.requests[0]
	wantStart := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	if !req.StartTime.Equal(wantStart) || !req.EndTime.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("unexpected instants %s - %s", req.StartTime, req.EndTime)
	}
	if req.SessionType != model.SessionTypeOnline || req.Notes != "chapter 3" || req.Subject != "Mathematics" {
		t.Errorf("unexpected request %+v", req)
	}

	if len(f.publisher.events) != 1 || f.publisher.events[0].Type != events.TypeBookingCreated {
		t.Fatalf("expected booking.created event, got %+v", f.publisher.events)
	}
	if f.publisher.events[0].StudentID != "stu-1" {
		t.Errorf("event should be keyed by student, got %q", f.publisher.events[0].StudentID)
	}

	_, err = f.svc.PickDate(context.Background(), "stu-1", st.ID, "2026-10-26")
	assertCode(t, err, apperrors.CodeConflict)
}

func TestSubmit_CompletesAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	called := make(chan struct{})
	f.sessions.createFunc = func(ctx context.Context, req model.SessionRequest) (string, error) {
		close(called)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return "session-1", nil
		}
	}
	st := readyWizard(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-called
		cancel()
	}()
	defer cancel()

	got, err := f.svc.Submit(ctx, "stu-1", st.ID)
	if err != nil {
		t.Fatalf("booking should complete after the caller goes away: %v", err)
	}
	if got.Phase != wizard.PhaseConfirmed || got.BookingID != "session-1" {
		t.Errorf("expected confirmed session-1, got %s %q", got.Phase, got.BookingID)
	}

	stored, err := f.svc.Get(context.Background(), "stu-1", st.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Phase != wizard.PhaseConfirmed || stored.LastError != "" {
		t.Errorf("stored wizard should be confirmed, got %s %q", stored.Phase, stored.LastError)
	}
	if len(f.sessions.requests) != 1 {
		t.Errorf("expected one booking call, got %d", len(f.sessions.requests))
	}
}

func TestSubmit_FailureKeepsSelections(t *testing.T) {
	f := newFixture(t)
	f.sessions.createFunc = func(ctx context.Context, req model.SessionRequest) (string, error) {
		return "", &client.APIError{Status: 409, Method: "POST", Path: "/api/sessions", Message: "Tutor is already booked at this time"}
	}
	st := readyWizard(t, f)

	_, err := f.svc.Submit(context.Background(), "stu-1", st.ID)
	assertCode(t, err, apperrors.CodeUpstreamRejected)
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != 409 || appErr.Message != "Tutor is already booked at this time" {
		t.Errorf("server message should pass through verbatim, got %d %q", appErr.StatusCode(), appErr.Message)
	}

	st, err = f.svc.Get(context.Background(), "stu-1", st.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Phase != wizard.PhaseReadyToSubmit {
		t.Errorf("expected ready_to_submit, got %s", st.Phase)
	}
	if st.LastError != "Tutor is already booked at this time" {
		t.Errorf("unexpected last error %q", st.LastError)
	}
	if st.Selection.Date != "2026-10-19" || st.Selection.Time != "7:00 AM" || st.Selection.Notes != "chapter 3" {
		t.Errorf("selections should be kept, got %+v", st.Selection)
	}
	if len(f.publisher.events) != 0 {
		t.Error("no event should be published for a failed booking")
	}
}

func TestSubmit_UnreachableUpstream(t *testing.T) {
	f := newFixture(t)
	f.sessions.createFunc = func(ctx context.Context, req model.SessionRequest) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}
	st := readyWizard(t, f)

	_, err := f.svc.Submit(context.Background(), "stu-1", st.ID)
	assertCode(t, err, apperrors.CodeUnavailable)

	st, _ = f.svc.Get(context.Background(), "stu-1", st.ID)
	if st.LastError == "" || st.Phase != wizard.PhaseReadyToSubmit {
		t.Errorf("expected retryable state with message, got %s %q", st.Phase, st.LastError)
	}
}

func TestSubmit_IncompleteWizard(t *testing.T) {
	f := newFixture(t)
	st, _ := f.svc.Create(context.Background(), "stu-1", "tutor-1", 60)

	_, err := f.svc.Submit(context.Background(), "stu-1", st.ID)
	assertCode(t, err, apperrors.CodeValidation)
	if len(f.sessions.requests) != 0 {
		t.Error("incomplete wizard must not reach the API")
	}
}

func TestGet_OtherStudentsWizardIsMissing(t *testing.T) {
	f := newFixture(t)
	st, _ := f.svc.Create(context.Background(), "stu-1", "", 0)

	_, err := f.svc.Get(context.Background(), "stu-2", st.ID)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestReset_StartsOver(t *testing.T) {
	f := newFixture(t)
	st := readyWizard(t, f)
	before := st.Generation

	st, err := f.svc.Reset(context.Background(), "stu-1", st.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Phase != wizard.PhaseNoTutor || st.Selection.TutorID != "" || len(st.Slots) != 0 {
		t.Errorf("expected fresh wizard, got %+v", st)
	}
	if st.Generation <= before {
		t.Error("generation should keep increasing across resets")
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	st, _ := f.svc.Create(context.Background(), "stu-1", "", 0)

	assertCode(t, f.svc.Delete(context.Background(), "stu-2", st.ID), apperrors.CodeNotFound)
	if err := f.svc.Delete(context.Background(), "stu-1", st.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.Get(context.Background(), "stu-1", st.ID)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestMutate_RetriesVersionConflicts(t *testing.T) {
	f := newFixture(t)
	st, _ := f.svc.Create(context.Background(), "stu-1", "tutor-1", 60)

	conflicting := &conflictingRepository{WizardRepository: f.repo, conflicts: 2}
	svc := f.build(conflicting)

	st, err := svc.PickDate(context.Background(), "stu-1", st.ID, "2026-10-19")
	if err != nil {
		t.Fatalf("two conflicts should be retried, got %v", err)
	}
	if st.Selection.Date != "2026-10-19" {
		t.Errorf("unexpected date %q", st.Selection.Date)
	}

	conflicting.conflicts = maxMutateAttempts
	_, err = svc.ChangeDate(context.Background(), "stu-1", st.ID)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestSelectTutor_NewerSelectionSupersedesFetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	started := make(chan struct{})
	f.avail.windowsFunc = func(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error) {
		if tutorID == "tutor-slow" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return mondayMorning(), nil
	}

	st, _ := f.svc.Create(ctx, "stu-1", "", 0)

	type result struct {
		st  *wizard.State
		err error
	}
	slow := make(chan result, 1)
	go func() {
		got, err := f.svc.SelectTutor(ctx, "stu-1", st.ID, "tutor-slow")
		slow <- result{got, err}
	}()

	<-started
	fast, err := f.svc.SelectTutor(ctx, "stu-1", st.ID, "tutor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fast.Phase != wizard.PhasePickingDate || fast.Selection.TutorID != "tutor-1" {
		t.Fatalf("expected tutor-1 slots, got %s %s", fast.Phase, fast.Selection.TutorID)
	}

	select {
	case r := <-slow:
		if r.err != nil {
			t.Fatalf("superseded request should not fail, got %v", r.err)
		}
		if r.st.Selection.TutorID != "tutor-1" {
			t.Errorf("superseded request should report the current wizard, got tutor %q", r.st.Selection.TutorID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}

	final, _ := f.svc.Get(ctx, "stu-1", st.ID)
	if final.Phase != wizard.PhasePickingDate || final.Selection.TutorID != "tutor-1" {
		t.Errorf("stale fetch must not overwrite the wizard, got %s %s", final.Phase, final.Selection.TutorID)
	}
	if f.svc.inflight.size() != 0 {
		t.Errorf("finished fetches should be released, %d remain", f.svc.inflight.size())
	}
}
