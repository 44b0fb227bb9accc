package booking

import (
	"context"
	"time"
)

// Repository exposes each booking mutation as one transaction. Every
// mutation locks the schedule row first, then bookings and waitlist rows.
type Repository interface {
	Book(ctx context.Context, memberID, scheduleID int, opts BookOptions) (*BookResult, error)
	Transition(ctx context.Context, bookingID int, to string, opts TransitionOptions) (*TransitionResult, error)
	JoinWaitlist(ctx context.Context, memberID, scheduleID int, now time.Time) (*WaitlistEntry, error)
	LeaveWaitlist(ctx context.Context, memberID, entryID int) (*WaitlistEntry, error)
	AcceptOffer(ctx context.Context, memberID, entryID int, now time.Time) (*WaitlistEntry, error)
	DeclineOffer(ctx context.Context, memberID, entryID int, now time.Time, window time.Duration) (*Withdrawal, error)
	DueOffers(ctx context.Context, now time.Time) ([]int, error)
	ExpireOffer(ctx context.Context, entryID int, now time.Time, window time.Duration) (*Withdrawal, error)

	GetBooking(ctx context.Context, id int) (*Booking, error)
	GetDetail(ctx context.Context, id int) (*BookingDetail, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]BookingDetail, int, error)
	ListWaitlist(ctx context.Context, filter WaitlistFilter) ([]WaitlistDetail, error)
}

type BookOptions struct {
	Now          time.Time
	Pending      bool
	JoinWaitlist bool
}

type TransitionOptions struct {
	Now     time.Time
	Window  time.Duration
	Policy  RefundPolicy
	ByStaff bool
	// MemberID restricts the transition to the member's own booking.
	MemberID int
}

type WaitlistFilter struct {
	MemberID   *int
	ScheduleID *int
}
