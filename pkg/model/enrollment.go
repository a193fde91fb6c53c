package model

import "time"

type Enrollment struct {
	ID         string       `json:"id" validate:"required"`
	ClassID    string       `json:"class_id" validate:"required"`
	StudentID  string       `json:"student_id" validate:"required"`
	Status     string       `json:"status,omitempty"`
	EnrolledAt time.Time    `json:"enrolled_at,omitempty"`
	Class      *ClassRecord `json:"class,omitempty"`
}

type EnrollmentRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}
