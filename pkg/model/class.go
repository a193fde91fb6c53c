package model

const (
	ClassStatusActive    = "active"
	ClassStatusInactive  = "inactive"
	ClassStatusCancelled = "cancelled"
	ClassStatusCompleted = "completed"
)

// ClassRecord is a recurring class with a fixed weekly meeting time.
type ClassRecord struct {
	ID            string  `json:"id" validate:"required"`
	TutorID       string  `json:"tutor_id" validate:"required"`
	TutorName     string  `json:"tutor_name,omitempty"`
	Title         string  `json:"title" validate:"required,max=200"`
	Subject       string  `json:"subject" validate:"required,max=100"`
	Description   string  `json:"description,omitempty"`
	Day           Weekday `json:"day" validate:"required,weekday"`
	StartTime     string  `json:"start_time" validate:"required,hhmm"`
	EndTime       string  `json:"end_time" validate:"required,hhmm"`
	MaxStudents   int     `json:"max_students" validate:"gte=0"`
	EnrolledCount int     `json:"enrolled_count" validate:"gte=0"`
	Status        string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive cancelled completed"`
}

// IsFull reports whether the class has reached capacity. Zero capacity means unlimited.
func (c ClassRecord) IsFull() bool {
	return c.MaxStudents > 0 && c.EnrolledCount >= c.MaxStudents
}

func (c ClassRecord) IsActive() bool {
	return c.Status == "" || c.Status == ClassStatusActive
}

func (c ClassRecord) SpotsLeft() int {
	if c.MaxStudents == 0 {
		return -1
	}
	return max(0, c.MaxStudents-c.EnrolledCount)
}

type ClassFilter struct {
	TutorID   string
	Subject   string
	Day       Weekday
	Status    string
	Available *bool
}
