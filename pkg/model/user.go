package model

const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string   `json:"id" validate:"required"`
	FirstName    string   `json:"first_name" validate:"max=100"`
	LastName     string   `json:"last_name" validate:"max=100"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Role         string   `json:"role" validate:"omitempty,oneof=student tutor admin"`
	Bio          string   `json:"bio,omitempty"`
	Subjects     []string `json:"subjects,omitempty"`
	HourlyRate   float64  `json:"hourly_rate,omitempty" validate:"gte=0"`
	Rating       float64  `json:"rating,omitempty" validate:"gte=0,lte=5"`
	ProfileImage string   `json:"profile_image,omitempty"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

func (u User) IsTutor() bool {
	return u.Role == RoleTutor
}

type Tutor struct {
	ID            string   `json:"id" validate:"required"`
	FirstName     string   `json:"first_name" validate:"max=100"`
	LastName      string   `json:"last_name" validate:"max=100"`
	Email         string   `json:"email,omitempty" validate:"omitempty,email"`
	Bio           string   `json:"bio,omitempty"`
	Subjects      []string `json:"subjects"`
	HourlyRate    float64  `json:"hourly_rate" validate:"gte=0"`
	Rating        float64  `json:"rating" validate:"gte=0,lte=5"`
	TotalSessions int      `json:"total_sessions" validate:"gte=0"`
	ProfileImage  string   `json:"profile_image,omitempty"`
}

func (t Tutor) FullName() string {
	return User{FirstName: t.FirstName, LastName: t.LastName}.FullName()
}

// TutorFromUser projects a tutor-role user onto the tutor listing shape.
func TutorFromUser(u User) Tutor {
	return Tutor{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Bio:          u.Bio,
		Subjects:     u.Subjects,
		HourlyRate:   u.HourlyRate,
		Rating:       u.Rating,
		ProfileImage: u.ProfileImage,
	}
}

type TutorFilter struct {
	Page      int
	Limit     int
	Subject   string
	MinRating float64
	Search    string
}
