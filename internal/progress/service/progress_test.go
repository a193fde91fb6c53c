package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutorly/pkg/config"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type mockProgress struct {
	listFunc func(ctx context.Context, studentID string) ([]model.ProgressRecord, error)
}

func (m *mockProgress) ListByStudent(ctx context.Context, studentID string) ([]model.ProgressRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, studentID)
	}
	return nil, nil
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 12, 0, 0, 0, time.UTC)
}

func sampleRecords() []model.ProgressRecord {
	return []model.ProgressRecord{
		{ID: "p1", Subject: "Physics", Score: 60, TutorName: "Ada", RecordedAt: day(1), Challenges: "vectors"},
		{ID: "p2", Subject: "math", Score: 70, TutorName: "Alan", RecordedAt: day(2), Improvements: "fractions"},
		{ID: "p3", Subject: "Math", Score: 90, TutorName: "Ada", RecordedAt: day(9), Improvements: "algebra"},
		{ID: "p4", Subject: "Math", Score: 81, TutorID: "t-3", RecordedAt: day(5), Challenges: "proofs"},
	}
}

func newTestService(source *mockProgress) ProgressService {
	return NewProgressService(source, &config.Config{Log: logger.Discard()})
}

func TestList_NewestFirst(t *testing.T) {
	svc := newTestService(&mockProgress{
		listFunc: func(ctx context.Context, studentID string) ([]model.ProgressRecord, error) {
			return sampleRecords(), nil
		},
	})

	records, err := svc.List(context.Background(), "stu-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"p3", "p4", "p2", "p1"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, records[i].ID)
		}
	}
}

func TestList_RequiresStudent(t *testing.T) {
	svc := newTestService(&mockProgress{})

	_, err := svc.List(context.Background(), "")
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestReport_AggregatesPerSubject(t *testing.T) {
	svc := newTestService(&mockProgress{
		listFunc: func(ctx context.Context, studentID string) ([]model.ProgressRecord, error) {
			return sampleRecords(), nil
		},
	})

	report, err := svc.Report(context.Background(), "stu-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Records != 4 || report.AverageScore != 75.25 {
		t.Errorf("unexpected totals: records=%d average=%v", report.Records, report.AverageScore)
	}
	if len(report.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %+v", report.Subjects)
	}

	math := report.Subjects[0]
	if math.Subject != "Math" || math.Records != 3 {
		t.Errorf("unexpected math summary %+v", math)
	}
	if math.AverageScore != 80.33 || math.MinScore != 70 || math.MaxScore != 90 {
		t.Errorf("unexpected math scores %+v", math)
	}
	if math.LatestImprovements != "algebra" || math.LatestChallenges != "proofs" {
		t.Errorf("unexpected latest notes %q %q", math.LatestImprovements, math.LatestChallenges)
	}
	if len(math.Tutors) != 3 || math.Tutors[0] != "Ada" || math.Tutors[1] != "t-3" || math.Tutors[2] != "Alan" {
		t.Errorf("unexpected tutors %v", math.Tutors)
	}

	if report.Subjects[1].Subject != "Physics" || report.Subjects[1].LatestChallenges != "vectors" {
		t.Errorf("unexpected physics summary %+v", report.Subjects[1])
	}
}

func TestReport_Empty(t *testing.T) {
	report := BuildReport("stu-1", nil)

	if report.Records != 0 || report.AverageScore != 0 || report.Subjects == nil || len(report.Subjects) != 0 {
		t.Errorf("unexpected empty report %+v", report)
	}
}

func TestReport_UpstreamFailure(t *testing.T) {
	svc := newTestService(&mockProgress{
		listFunc: func(ctx context.Context, studentID string) ([]model.ProgressRecord, error) {
			return nil, errors.New("connection refused")
		},
	})

	_, err := svc.Report(context.Background(), "stu-1")
	if !apperrors.IsUpstreamFailure(err) {
		t.Errorf("expected upstream failure, got %v", err)
	}
}
