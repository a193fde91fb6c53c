package model

// AvailabilityWindow is a recurring weekly block in which a tutor accepts sessions.
type AvailabilityWindow struct {
	ID        string  `json:"id,omitempty" bson:"id,omitempty"`
	TutorID   string  `json:"tutor_id,omitempty" bson:"tutor_id,omitempty"`
	Day       Weekday `json:"day" bson:"day" validate:"required,weekday"`
	StartTime string  `json:"start_time" bson:"start_time" validate:"required,hhmm"`
	EndTime   string  `json:"end_time" bson:"end_time" validate:"required,hhmm"`
}
