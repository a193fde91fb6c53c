package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"tutorly/internal/events"
	"tutorly/pkg/client"
	"tutorly/pkg/config"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/middleware"
	"tutorly/pkg/model"
	"tutorly/pkg/sanitizer"
)

// SessionsPath is the overview page a client is sent back to when a session is missing.
const SessionsPath = "/sessions"

type SessionSource interface {
	Get(ctx context.Context, id string) (*model.Session, error)
}

type EvaluationStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]model.Evaluation, error)
	Create(ctx context.Context, req model.EvaluationRequest) (*model.Evaluation, error)
}

// EvaluationInput is what the student submits for a session.
type EvaluationInput struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// EvaluationCreated is the payload of the evaluation.created event.
type EvaluationCreated struct {
	EvaluationID string `json:"evaluation_id"`
	SessionID    string `json:"session_id"`
	StudentID    string `json:"student_id"`
	TutorID      string `json:"tutor_id"`
	Rating       int    `json:"rating"`
}

type EvaluationService interface {
	List(ctx context.Context, studentID, sessionID string) ([]model.Evaluation, error)
	Create(ctx context.Context, studentID, sessionID string, input EvaluationInput) (*model.Evaluation, error)
}

type evaluationService struct {
	sessions    SessionSource
	evaluations EvaluationStore
	publisher   events.Publisher
	cfg         *config.Config
}

func NewEvaluationService(
	sessions SessionSource,
	evaluations EvaluationStore,
	publisher events.Publisher,
	cfg *config.Config,
) EvaluationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &evaluationService{
		sessions:    sessions,
		evaluations: evaluations,
		publisher:   publisher,
		cfg:         cfg,
	}
}

func (s *evaluationService) List(ctx context.Context, studentID, sessionID string) ([]model.Evaluation, error) {
	_, evaluations, err := s.load(ctx, studentID, sanitizer.NormalizeID(sessionID))
	if err != nil {
		return []model.Evaluation{}, err
	}
	return evaluations, nil
}

// load fetches a session and its evaluations concurrently. Sessions that
// belong to another student are reported as missing.
func (s *evaluationService) load(ctx context.Context, studentID, sessionID string) (*model.Session, []model.Evaluation, error) {
	if sessionID == "" {
		return nil, nil, apperrors.InvalidInput("Session ID cannot be empty")
	}

	var (
		session     *model.Session
		evaluations []model.Evaluation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		session, err = s.sessions.Get(gctx, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		evaluations, err = s.evaluations.ListBySession(gctx, sessionID)
		return err
	})
	if err := g.Wait(); err != nil {
		if client.IsNotFound(err) {
			return nil, nil, apperrors.NotFoundWithRedirect("Session", sessionID, SessionsPath)
		}
		s.cfg.Log.Warn("Failed to load session evaluations", "session_id", sessionID, "error", err)
		return nil, nil, client.ToAppError(err, "Session")
	}
	if session.StudentID != studentID {
		return nil, nil, apperrors.NotFoundWithRedirect("Session", sessionID, SessionsPath)
	}

	if evaluations == nil {
		evaluations = []model.Evaluation{}
	}
	return session, evaluations, nil
}

// Create rates a completed session. The rating is checked before anything
// is sent, and a student can evaluate a session only once.
func (s *evaluationService) Create(ctx context.Context, studentID, sessionID string, input EvaluationInput) (*model.Evaluation, error) {
	req := model.EvaluationRequest{
		SessionID: sanitizer.NormalizeID(sessionID),
		StudentID: studentID,
		Rating:    input.Rating,
		Feedback:  sanitizer.NormalizeText(input.Feedback, model.MaxFeedbackLength),
	}
	if err := model.Validate(req); err != nil {
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Evaluation validation failed", verrs.Details())
		}
		return nil, apperrors.Internal("Failed to validate evaluation", err)
	}

	session, existing, err := s.load(ctx, studentID, req.SessionID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.StudentID == studentID {
			return nil, apperrors.Conflict("You have already evaluated this session").WithDetail("evaluation_id", e.ID)
		}
	}
	if !session.IsCompleted() {
		return nil, apperrors.Conflict("Only completed sessions can be evaluated")
	}
	req.TutorID = session.TutorID

	evaluation, err := s.evaluations.Create(ctx, req)
	if err != nil {
		s.cfg.Log.Error("Failed to create evaluation",
			"session_id", req.SessionID,
			"student_id", studentID,
			"error", err,
		)
		return nil, client.ToAppError(err, "Session")
	}

	s.cfg.Log.Info("Evaluation created",
		"evaluation_id", evaluation.ID,
		"session_id", req.SessionID,
		"student_id", studentID,
		"rating", req.Rating,
	)

	events.Emit(ctx, s.publisher, s.cfg.Log, events.Event{
		Type:          events.TypeEvaluationCreated,
		StudentID:     studentID,
		CorrelationID: middleware.RequestIDFromContext(ctx),
		Payload: EvaluationCreated{
			EvaluationID: evaluation.ID,
			SessionID:    req.SessionID,
			StudentID:    studentID,
			TutorID:      req.TutorID,
			Rating:       req.Rating,
		},
	})
	return evaluation, nil
}
