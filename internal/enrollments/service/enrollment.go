package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"tutorly/internal/events"
	"tutorly/pkg/client"
	"tutorly/pkg/config"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/middleware"
	"tutorly/pkg/model"
	"tutorly/pkg/sanitizer"
)

// ClassesPath is the overview page a client is sent back to when a class is missing.
const ClassesPath = "/classes"

type ClassSource interface {
	List(ctx context.Context, filter model.ClassFilter) ([]model.ClassRecord, error)
	Get(ctx context.Context, id string) (*model.ClassRecord, error)
}

type EnrollmentStore interface {
	Create(ctx context.Context, req model.EnrollmentRequest) (*model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	Delete(ctx context.Context, id string) error
}

// ClassView is a class as listed to a student, with capacity and membership resolved.
type ClassView struct {
	model.ClassRecord
	SpotsLeft int  `json:"spots_left"`
	IsFull    bool `json:"is_full"`
	Enrolled  bool `json:"enrolled"`
}

// EnrollmentChanged is the payload of the enrollment.created and
// enrollment.deleted events.
type EnrollmentChanged struct {
	EnrollmentID string    `json:"enrollment_id"`
	ClassID      string    `json:"class_id"`
	StudentID    string    `json:"student_id"`
	At           time.Time `json:"at"`
}

type EnrollmentService interface {
	ListClasses(ctx context.Context, studentID string, filter model.ClassFilter) ([]ClassView, error)
	Enroll(ctx context.Context, studentID, classID string) (*model.Enrollment, error)
	ListMine(ctx context.Context, studentID string) ([]model.Enrollment, error)
	Unenroll(ctx context.Context, studentID, enrollmentID string) error
}

type enrollmentService struct {
	classes     ClassSource
	enrollments EnrollmentStore
	publisher   events.Publisher
	cfg         *config.Config
	now         func() time.Time
}

func NewEnrollmentService(
	classes ClassSource,
	enrollments EnrollmentStore,
	publisher events.Publisher,
	cfg *config.Config,
) EnrollmentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &enrollmentService{
		classes:     classes,
		enrollments: enrollments,
		publisher:   publisher,
		cfg:         cfg,
		now:         time.Now,
	}
}

// ListClasses lists classes matching filter. The student's own enrollments
// are fetched alongside to mark membership; if that fetch fails the classes
// are still returned.
func (s *enrollmentService) ListClasses(ctx context.Context, studentID string, filter model.ClassFilter) ([]ClassView, error) {
	filter.TutorID = sanitizer.NormalizeID(filter.TutorID)
	filter.Subject = sanitizer.NormalizeSubject(filter.Subject)

	var (
		classes []model.ClassRecord
		mine    []model.Enrollment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		classes, err = s.classes.List(gctx, filter)
		return err
	})
	if studentID != "" {
		g.Go(func() error {
			var err error
			if mine, err = s.enrollments.ListByStudent(gctx, studentID); err != nil {
				s.cfg.Log.Warn("Failed to load enrollments for class listing", "student_id", studentID, "error", err)
				mine = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Log.Warn("Failed to list classes", "subject", filter.Subject, "tutor_id", filter.TutorID, "error", err)
		return []ClassView{}, client.ToAppError(err, "Classes")
	}

	enrolled := make(map[string]bool, len(mine))
	for _, e := range mine {
		enrolled[e.ClassID] = true
	}

	views := make([]ClassView, 0, len(classes))
	for _, c := range classes {
		views = append(views, ClassView{
			ClassRecord: c,
			SpotsLeft:   c.SpotsLeft(),
			IsFull:      c.IsFull(),
			Enrolled:    enrolled[c.ID],
		})
	}
	return views, nil
}

// Enroll adds the student to a class. Inactive, full and already-joined
// classes are refused before the API is called.
func (s *enrollmentService) Enroll(ctx context.Context, studentID, classID string) (*model.Enrollment, error) {
	classID = sanitizer.NormalizeID(classID)
	if classID == "" {
		return nil, apperrors.Validation("Validation failed", map[string]any{"class_id": "class_id is required"})
	}

	var (
		class *model.ClassRecord
		mine  []model.Enrollment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		class, err = s.classes.Get(gctx, classID)
		return err
	})
	g.Go(func() error {
		var err error
		mine, err = s.enrollments.ListByStudent(gctx, studentID)
		return err
	})
	if err := g.Wait(); err != nil {
		if client.IsNotFound(err) {
			return nil, apperrors.NotFoundWithRedirect("Class", classID, ClassesPath)
		}
		s.cfg.Log.Error("Failed to prepare enrollment", "class_id", classID, "student_id", studentID, "error", err)
		return nil, client.ToAppError(err, "Class")
	}

	switch {
	case !class.IsActive():
		return nil, apperrors.Conflict("This class is not open for enrollment")
	case class.IsFull():
		return nil, apperrors.Conflict("This class is full")
	}
	for _, e := range mine {
		if e.ClassID == classID {
			return nil, apperrors.Conflict("You are already enrolled in this class").WithDetail("enrollment_id", e.ID)
		}
	}

	enrollment, err := s.enrollments.Create(ctx, model.EnrollmentRequest{ClassID: classID, StudentID: studentID})
	if err != nil {
		if isDuplicate(err) {
			return nil, apperrors.Conflict("You are already enrolled in this class")
		}
		s.cfg.Log.Error("Failed to create enrollment", "class_id", classID, "student_id", studentID, "error", err)
		return nil, client.ToAppError(err, "Class")
	}

	s.cfg.Log.Info("Enrollment created",
		"enrollment_id", enrollment.ID,
		"class_id", classID,
		"student_id", studentID,
	)
	s.emit(ctx, events.TypeEnrollmentCreated, studentID, enrollment.ID, classID)
	return enrollment, nil
}

func (s *enrollmentService) ListMine(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		s.cfg.Log.Warn("Failed to list enrollments", "student_id", studentID, "error", err)
		return []model.Enrollment{}, client.ToAppError(err, "Enrollments")
	}
	if enrollments == nil {
		enrollments = []model.Enrollment{}
	}
	return enrollments, nil
}

// Unenroll removes one of the student's enrollments. Enrollments belonging
// to someone else are reported as missing.
func (s *enrollmentService) Unenroll(ctx context.Context, studentID, enrollmentID string) error {
	enrollmentID = sanitizer.NormalizeID(enrollmentID)
	if enrollmentID == "" {
		return apperrors.InvalidInput("Enrollment ID cannot be empty")
	}

	mine, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		s.cfg.Log.Error("Failed to load enrollments", "student_id", studentID, "error", err)
		return client.ToAppError(err, "Enrollments")
	}

	var classID string
	found := false
	for _, e := range mine {
		if e.ID == enrollmentID {
			classID, found = e.ClassID, true
			break
		}
	}
	if !found {
		return apperrors.NotFoundWithID("Enrollment", enrollmentID)
	}

	if err := s.enrollments.Delete(ctx, enrollmentID); err != nil {
		if client.IsNotFound(err) {
			return apperrors.NotFoundWithID("Enrollment", enrollmentID)
		}
		s.cfg.Log.Error("Failed to delete enrollment", "enrollment_id", enrollmentID, "error", err)
		return client.ToAppError(err, "Enrollment")
	}

	s.cfg.Log.Info("Enrollment deleted",
		"enrollment_id", enrollmentID,
		"class_id", classID,
		"student_id", studentID,
	)
	s.emit(ctx, events.TypeEnrollmentDeleted, studentID, enrollmentID, classID)
	return nil
}

func (s *enrollmentService) emit(ctx context.Context, eventType, studentID, enrollmentID, classID string) {
	events.Emit(ctx, s.publisher, s.cfg.Log, events.Event{
		Type:          eventType,
		StudentID:     studentID,
		CorrelationID: middleware.RequestIDFromContext(ctx),
		Payload: EnrollmentChanged{
			EnrollmentID: enrollmentID,
			ClassID:      classID,
			StudentID:    studentID,
			At:           s.now().UTC(),
		},
	})
}

func isDuplicate(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}
