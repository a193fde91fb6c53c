package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"tutorly/pkg/client"
	"tutorly/pkg/config"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/model"
)

type ProgressSource interface {
	ListByStudent(ctx context.Context, studentID string) ([]model.ProgressRecord, error)
}

// SubjectSummary aggregates a student's progress records for one subject.
type SubjectSummary struct {
	Subject            string   `json:"subject"`
	Records            int      `json:"records"`
	AverageScore       float64  `json:"average_score"`
	MinScore           float64  `json:"min_score"`
	MaxScore           float64  `json:"max_score"`
	LatestImprovements string   `json:"latest_improvements,omitempty"`
	LatestChallenges   string   `json:"latest_challenges,omitempty"`
	Tutors             []string `json:"tutors"`
}

type Report struct {
	StudentID    string           `json:"student_id"`
	Records      int              `json:"records"`
	AverageScore float64          `json:"average_score"`
	Subjects     []SubjectSummary `json:"subjects"`
}

type ProgressService interface {
	List(ctx context.Context, studentID string) ([]model.ProgressRecord, error)
	Report(ctx context.Context, studentID string) (*Report, error)
}

type progressService struct {
	source ProgressSource
	cfg    *config.Config
}

func NewProgressService(source ProgressSource, cfg *config.Config) ProgressService {
	return &progressService{
		source: source,
		cfg:    cfg,
	}
}

// List returns the student's progress records, newest first.
func (s *progressService) List(ctx context.Context, studentID string) ([]model.ProgressRecord, error) {
	if studentID == "" {
		return nil, apperrors.Unauthorized("Student identity is required")
	}

	records, err := s.source.ListByStudent(ctx, studentID)
	if err != nil {
		s.cfg.Log.Warn("Failed to list progress records", "student_id", studentID, "error", err)
		return []model.ProgressRecord{}, client.ToAppError(err, "Progress")
	}
	if records == nil {
		records = []model.ProgressRecord{}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
	return records, nil
}

func (s *progressService) Report(ctx context.Context, studentID string) (*Report, error) {
	records, err := s.List(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return BuildReport(studentID, records), nil
}

// BuildReport aggregates records per subject. Records must be ordered newest
// first; the latest notes per subject are taken from the first record that
// has them. Subjects are sorted by name, tutors keep first-seen order.
func BuildReport(studentID string, records []model.ProgressRecord) *Report {
	report := &Report{
		StudentID: studentID,
		Records:   len(records),
		Subjects:  []SubjectSummary{},
	}
	if len(records) == 0 {
		return report
	}

	type acc struct {
		summary    SubjectSummary
		total      float64
		seenTutors map[string]bool
	}
	bySubject := make(map[string]*acc)
	var total float64

	for _, rec := range records {
		key := strings.ToLower(strings.TrimSpace(rec.Subject))
		a, ok := bySubject[key]
		if !ok {
			a = &acc{
				summary: SubjectSummary{
					Subject:  strings.TrimSpace(rec.Subject),
					MinScore: rec.Score,
					MaxScore: rec.Score,
					Tutors:   []string{},
				},
				seenTutors: make(map[string]bool),
			}
			bySubject[key] = a
		}

		a.summary.Records++
		a.total += rec.Score
		a.summary.MinScore = math.Min(a.summary.MinScore, rec.Score)
		a.summary.MaxScore = math.Max(a.summary.MaxScore, rec.Score)
		if a.summary.LatestImprovements == "" {
			a.summary.LatestImprovements = rec.Improvements
		}
		if a.summary.LatestChallenges == "" {
			a.summary.LatestChallenges = rec.Challenges
		}

		tutor := rec.TutorName
		if tutor == "" {
			tutor = rec.TutorID
		}
		if tutor != "" && !a.seenTutors[tutor] {
			a.seenTutors[tutor] = true
			a.summary.Tutors = append(a.summary.Tutors, tutor)
		}
		total += rec.Score
	}

	for _, a := range bySubject {
		a.summary.AverageScore = round2(a.total / float64(a.summary.Records))
		report.Subjects = append(report.Subjects, a.summary)
	}
	sort.Slice(report.Subjects, func(i, j int) bool {
		return strings.ToLower(report.Subjects[i].Subject) < strings.ToLower(report.Subjects[j].Subject)
	})
	report.AverageScore = round2(total / float64(len(records)))
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
