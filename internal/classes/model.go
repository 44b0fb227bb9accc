package classes

import "time"

type Class struct {
	ID              int       `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	Category        string    `db:"category" json:"category"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	RequiresCredits bool      `db:"requires_credits" json:"requires_credits"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type ClassDetail struct {
	Class
	AverageRating *float64 `json:"average_rating"`
	RatingCount   int      `json:"rating_count"`
}

type Schedule struct {
	ID        int       `db:"id" json:"id"`
	ClassID   int       `db:"class_id" json:"class_id"`
	TrainerID int       `db:"trainer_id" json:"trainer_id"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ScheduleWithAvailability struct {
	Schedule
	ClassName      string `db:"class_name" json:"class_name"`
	TrainerName    string `db:"trainer_name" json:"trainer_name"`
	ConfirmedCount int    `db:"confirmed_count" json:"confirmed_count"`
	WaitingCount   int    `db:"waiting_count" json:"waiting_count"`
	Available      int    `db:"-" json:"available"`
	IsFull         bool   `db:"-" json:"is_full"`
}

// fill derives Available and IsFull from capacity and the confirmed count.
func (s *ScheduleWithAvailability) fill() {
	s.Available = s.Capacity - s.ConfirmedCount
	if s.Available < 0 {
		s.Available = 0
	}
	s.IsFull = s.Available == 0
}

type Rating struct {
	ID        int       `db:"id" json:"id"`
	BookingID int       `db:"booking_id" json:"booking_id"`
	ClassID   int       `db:"class_id" json:"class_id"`
	MemberID  int       `db:"member_id" json:"member_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ScheduleFilter struct {
	From      *time.Time
	To        *time.Time
	ClassID   *int
	TrainerID *int
}

type CreateClassRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	Description     string `json:"description" binding:"max=2000"`
	Category        string `json:"category" binding:"max=64"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=600"`
	RequiresCredits *bool  `json:"requires_credits"`
}

type CreateScheduleRequest struct {
	ClassID   int       `json:"class_id" binding:"required,min=1"`
	TrainerID int       `json:"trainer_id" binding:"required,min=1"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Capacity  int       `json:"capacity" binding:"required,min=1"`
	Location  string    `json:"location" binding:"max=255"`
}

type RateClassRequest struct {
	BookingID int    `json:"booking_id" binding:"required,min=1"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"max=2000"`
}
