package model

import "time"

const MaxFeedbackLength = 2000

type Evaluation struct {
	ID        string    `json:"id" validate:"required"`
	SessionID string    `json:"session_id" validate:"required"`
	StudentID string    `json:"student_id,omitempty"`
	TutorID   string    `json:"tutor_id,omitempty"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Feedback  string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type EvaluationRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	TutorID   string `json:"tutor_id,omitempty"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback  string `json:"feedback" validate:"max=2000"`
}
