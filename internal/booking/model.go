package booking

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

const (
	WaitWaiting  = "waiting"
	WaitNotified = "notified"
	WaitAccepted = "accepted"
	WaitExpired  = "expired"
	WaitDeclined = "declined"
	WaitLeft     = "left"
	WaitSkipped  = "skipped"
)

type Booking struct {
	ID           int        `db:"id" json:"id"`
	MemberID     int        `db:"member_id" json:"member_id"`
	ScheduleID   int        `db:"schedule_id" json:"schedule_id"`
	Status       string     `db:"status" json:"status" example:"confirmed"`
	PassID       *int       `db:"pass_id" json:"pass_id,omitempty"`
	CreditSource string     `db:"credit_source" json:"credit_source" example:"pass"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type BookingDetail struct {
	Booking
	ClassName   string    `db:"class_name" json:"class_name"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	MemberName  string    `db:"member_name" json:"member_name"`
	MemberEmail string    `db:"member_email" json:"member_email"`
}

// WaitlistEntry holds a position only while waiting. Once an offer goes out
// the position is released and BookingID points at the held booking.
type WaitlistEntry struct {
	ID         int        `db:"id" json:"id"`
	MemberID   int        `db:"member_id" json:"member_id"`
	ScheduleID int        `db:"schedule_id" json:"schedule_id"`
	Position   *int       `db:"position" json:"position,omitempty"`
	Status     string     `db:"status" json:"status" example:"waiting"`
	BookingID  *int       `db:"booking_id" json:"booking_id,omitempty"`
	NotifiedAt *time.Time `db:"notified_at" json:"notified_at,omitempty"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

type WaitlistDetail struct {
	WaitlistEntry
	ClassName   string    `db:"class_name" json:"class_name"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	MemberName  string    `db:"member_name" json:"member_name"`
	MemberEmail string    `db:"member_email" json:"member_email"`
}

// Offer is a waitlist promotion made inside a transaction. Offers are
// announced by e-mail once the transaction commits.
type Offer struct {
	Entry   WaitlistEntry
	Booking Booking
}

// Withdrawal is the outcome of taking back an offer. Withdrawn is false when
// the offer was settled before it could lapse; Refunded reports the held
// booking's credit going back to its pass.
type Withdrawal struct {
	Withdrawn bool
	Refunded  bool
	Offers    []Offer
}

type ListFilter struct {
	MemberID   *int
	ScheduleID *int
	Status     string
}

type BookRequest struct {
	ScheduleID   int  `json:"schedule_id" binding:"required,min=1"`
	JoinWaitlist bool `json:"join_waitlist"`
}

type StaffBookRequest struct {
	MemberID   int  `json:"member_id" binding:"required,min=1"`
	ScheduleID int  `json:"schedule_id" binding:"required,min=1"`
	Pending    bool `json:"pending"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed completed cancelled no_show"`
}

type JoinWaitlistRequest struct {
	ScheduleID int `json:"schedule_id" binding:"required,min=1"`
}

// BookResult carries either the booking or, when the class was full and the
// caller asked for it, the waitlist entry that was created instead.
type BookResult struct {
	Booking  *Booking       `json:"booking,omitempty"`
	Waitlist *WaitlistEntry `json:"waitlist,omitempty"`
}

type TransitionResult struct {
	Booking  *Booking `json:"booking"`
	From     string   `json:"previous_status"`
	Refunded bool     `json:"refunded"`
	Offers   []Offer  `json:"-"`
}

type SweepResult struct {
	Expired  int `json:"expired"`
	Promoted int `json:"promoted"`
}
