package model

import "time"

const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"

	MaxNotesLength = 2000
)

type Session struct {
	ID          string    `json:"id" validate:"required"`
	TutorID     string    `json:"tutor_id" validate:"required"`
	StudentID   string    `json:"student_id" validate:"required"`
	Subject     string    `json:"subject"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Duration    int       `json:"duration" validate:"gte=0"`
	SessionType string    `json:"session_type,omitempty" validate:"omitempty,session_type"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status,omitempty" validate:"omitempty,oneof=scheduled completed cancelled pending"`
}

func (s Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// SessionRequest is the create-session payload sent to the tutoring API.
type SessionRequest struct {
	TutorID     string    `json:"tutor_id" validate:"required"`
	StudentID   string    `json:"student_id" validate:"required"`
	Subject     string    `json:"subject" validate:"required,max=100"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Duration    int       `json:"duration" validate:"required,slot_duration"`
	SessionType string    `json:"session_type" validate:"required,session_type"`
	Notes       string    `json:"notes" validate:"max=2000"`
}

type CreatedResource struct {
	ID string `json:"id" validate:"required"`
}
