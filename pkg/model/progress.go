package model

import "time"

type ProgressRecord struct {
	ID           string    `json:"id" validate:"required"`
	StudentID    string    `json:"student_id" validate:"required"`
	TutorID      string    `json:"tutor_id,omitempty"`
	TutorName    string    `json:"tutor_name,omitempty"`
	Subject      string    `json:"subject" validate:"required"`
	Topic        string    `json:"topic,omitempty"`
	Score        float64   `json:"score" validate:"gte=0,lte=100"`
	Improvements string    `json:"improvements,omitempty"`
	Challenges   string    `json:"challenges,omitempty"`
	RecordedAt   time.Time `json:"recorded_at,omitempty"`
}
