package attendance

import "time"

const (
	TypeGymVisit        = "gym_visit"
	TypeClassAttendance = "class_attendance"

	MethodManual = "manual"
	MethodQR     = "qr"
)

type Record struct {
	ID           int        `db:"id" json:"id"`
	MemberID     int        `db:"member_id" json:"member_id"`
	ScheduleID   *int       `db:"schedule_id" json:"schedule_id,omitempty"`
	Type         string     `db:"type" json:"type" example:"gym_visit"`
	Method       string     `db:"method" json:"method" example:"qr"`
	CheckInTime  time.Time  `db:"check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time `db:"check_out_time" json:"check_out_time,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

type RecordDetail struct {
	Record
	MemberName string  `db:"member_name" json:"member_name"`
	ClassName  *string `db:"class_name" json:"class_name,omitempty"`
}

type CheckInRequest struct {
	MemberID   int  `json:"member_id" binding:"required,min=1"`
	ScheduleID *int `json:"schedule_id" binding:"omitempty,min=1"`
}

type QRCheckInRequest struct {
	Token      string `json:"token" binding:"required,uuid"`
	ScheduleID *int   `json:"schedule_id" binding:"omitempty,min=1"`
}

type CheckOutRequest struct {
	MemberID int `json:"member_id" binding:"required,min=1"`
}

type ListFilter struct {
	MemberID *int
	From     *time.Time
	To       *time.Time
}

// Visit is the slice of an attendance row the report needs.
type Visit struct {
	MemberID     int        `db:"member_id"`
	CheckInTime  time.Time  `db:"check_in_time"`
	CheckOutTime *time.Time `db:"check_out_time"`
}

type Report struct {
	From            time.Time      `json:"from"`
	To              time.Time      `json:"to"`
	TotalVisits     int            `json:"total_visits"`
	UniqueMembers   int            `json:"unique_members"`
	HourlyVisits    [24]int        `json:"hourly_visits"`
	PeakHour        *int           `json:"peak_hour"`
	WeekdayVisits   map[string]int `json:"weekday_visits"`
	AvgVisitMinutes float64        `json:"avg_visit_minutes"`
	AvgVisitsPerDay float64        `json:"avg_visits_per_day"`
}
