package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tutorly/pkg/client"
	"tutorly/pkg/config"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/model"
	"tutorly/pkg/sanitizer"
)

// TutorsPath is the overview page a client is sent back to when a tutor is missing.
const TutorsPath = "/tutors"

const NoticeAvailabilityUnavailable = "Could not load this tutor's availability right now."

type TutorLister interface {
	List(ctx context.Context, filter model.TutorFilter) (model.Page[model.Tutor], error)
}

type UserSource interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

type AvailabilitySource interface {
	Windows(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error)
}

// TutorDetail is a tutor profile with its weekly availability. A failed
// availability fetch leaves Availability empty and sets Notice.
type TutorDetail struct {
	model.Tutor
	Availability []model.AvailabilityWindow `json:"availability"`
	Notice       string                     `json:"notice,omitempty"`
}

type TutorService interface {
	List(ctx context.Context, filter model.TutorFilter) (model.Page[model.Tutor], error)
	Get(ctx context.Context, id string) (*TutorDetail, error)
}

type tutorService struct {
	tutors       TutorLister
	users        UserSource
	availability AvailabilitySource
	cfg          *config.Config
}

func NewTutorService(
	tutors TutorLister,
	users UserSource,
	availability AvailabilitySource,
	cfg *config.Config,
) TutorService {
	return &tutorService{
		tutors:       tutors,
		users:        users,
		availability: availability,
		cfg:          cfg,
	}
}

func (s *tutorService) List(ctx context.Context, filter model.TutorFilter) (model.Page[model.Tutor], error) {
	filter.Page = max(1, filter.Page)
	filter.Limit = config.NormalizePaginationLimit(filter.Limit)
	filter.Subject = sanitizer.NormalizeSubject(filter.Subject)
	filter.Search = sanitizer.NormalizeSearch(filter.Search)
	filter.MinRating = sanitizer.NormalizeMinRating(filter.MinRating)

	page, err := s.tutors.List(ctx, filter)
	if err != nil {
		s.cfg.Log.Warn("Failed to list tutors",
			"page", filter.Page,
			"subject", filter.Subject,
			"error", err,
		)
		return model.EmptyPage[model.Tutor](filter.Limit, 0), client.ToAppError(err, "Tutors")
	}
	if page.Data == nil {
		page.Data = []model.Tutor{}
	}
	return page, nil
}

// Get loads the tutor profile and availability concurrently. A missing user,
// or one who is not a tutor, is reported as not found with a redirect to the
// tutor list.
func (s *tutorService) Get(ctx context.Context, id string) (*TutorDetail, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Tutor ID cannot be empty")
	}

	var (
		user      *model.User
		windows   []model.AvailabilityWindow
		windowErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.users.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		windows, windowErr = s.availability.Windows(gctx, id, false)
		return nil
	})
	if err := g.Wait(); err != nil {
		if client.IsNotFound(err) {
			return nil, apperrors.NotFoundWithRedirect("Tutor", id, TutorsPath)
		}
		s.cfg.Log.Error("Failed to load tutor", "tutor_id", id, "error", err)
		return nil, client.ToAppError(err, "Tutor")
	}
	if !user.IsTutor() {
		return nil, apperrors.NotFoundWithRedirect("Tutor", id, TutorsPath)
	}

	detail := &TutorDetail{
		Tutor:        model.TutorFromUser(*user),
		Availability: windows,
	}
	detail.Subjects = sanitizer.NormalizeSubjects(detail.Subjects)
	if windowErr != nil {
		s.cfg.Log.Warn("Failed to load tutor availability", "tutor_id", id, "error", windowErr)
		detail.Availability = []model.AvailabilityWindow{}
		detail.Notice = NoticeAvailabilityUnavailable
	}
	if detail.Availability == nil {
		detail.Availability = []model.AvailabilityWindow{}
	}
	return detail, nil
}
