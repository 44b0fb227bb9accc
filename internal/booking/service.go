package booking

import (
	"context"
	"time"

	"gymhub/internal/credits"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

// Mailer queues the booking notifications. *email.Service satisfies it.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, to, name, className string, start time.Time) error
	SendBookingCancellation(ctx context.Context, to, name, className string, start time.Time, refunded bool) error
	SendWaitlistOffer(ctx context.Context, to, name, className string, start, expiresAt time.Time) error
}

type Config struct {
	AcceptWindow time.Duration
	RefundCutoff time.Duration
}

type Service interface {
	Book(ctx context.Context, memberID int, req BookRequest) (*BookResult, error)
	StaffBook(ctx context.Context, req StaffBookRequest) (*BookResult, error)
	Cancel(ctx context.Context, memberID, bookingID int) (*TransitionResult, error)
	Transition(ctx context.Context, bookingID int, to string) (*TransitionResult, error)
	Get(ctx context.Context, id int) (*BookingDetail, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]BookingDetail, int, error)

	JoinWaitlist(ctx context.Context, memberID, scheduleID int) (*WaitlistEntry, error)
	LeaveWaitlist(ctx context.Context, memberID, entryID int) (*WaitlistEntry, error)
	AcceptOffer(ctx context.Context, memberID, entryID int) (*WaitlistEntry, error)
	DeclineOffer(ctx context.Context, memberID, entryID int) error
	ExpireOffers(ctx context.Context) (*SweepResult, error)
	ListMemberWaitlist(ctx context.Context, memberID int) ([]WaitlistDetail, error)
	ListScheduleWaitlist(ctx context.Context, scheduleID int) ([]WaitlistDetail, error)
}

type service struct {
	repo   Repository
	mailer Mailer
	cfg    Config
	now    func() time.Time
}

func NewService(repo Repository, mailer Mailer, cfg Config) Service {
	return &service{repo: repo, mailer: mailer, cfg: cfg, now: time.Now}
}

func (s *service) Book(ctx context.Context, memberID int, req BookRequest) (*BookResult, error) {
	res, err := s.repo.Book(ctx, memberID, req.ScheduleID, BookOptions{
		Now:          s.now(),
		JoinWaitlist: req.JoinWaitlist,
	})
	if err != nil {
		return nil, err
	}
	s.afterBook(ctx, res)
	return res, nil
}

func (s *service) StaffBook(ctx context.Context, req StaffBookRequest) (*BookResult, error) {
	res, err := s.repo.Book(ctx, req.MemberID, req.ScheduleID, BookOptions{
		Now:     s.now(),
		Pending: req.Pending,
	})
	if err != nil {
		return nil, err
	}
	s.afterBook(ctx, res)
	return res, nil
}

func (s *service) afterBook(ctx context.Context, res *BookResult) {
	if res.Waitlist != nil {
		metrics.RecordWaitlist("joined")
		logger.Info("schedule full, member waitlisted",
			"member_id", res.Waitlist.MemberID, "schedule_id", res.Waitlist.ScheduleID, "position", *res.Waitlist.Position)
		return
	}

	b := res.Booking
	metrics.RecordBooking(b.Status, b.CreditSource)
	recordDeduction(b)
	logger.Info("booking created", "booking_id", b.ID, "member_id", b.MemberID,
		"schedule_id", b.ScheduleID, "status", b.Status, "credit_source", b.CreditSource)

	if b.Status == StatusConfirmed {
		s.notifyConfirmed(ctx, b.ID)
	}
}

// Cancel lets a member cancel their own booking. The credit comes back only
// when the cancellation is early enough.
func (s *service) Cancel(ctx context.Context, memberID, bookingID int) (*TransitionResult, error) {
	return s.transition(ctx, bookingID, StatusCancelled, false, memberID)
}

// Transition is the staff entry point to the booking state machine.
func (s *service) Transition(ctx context.Context, bookingID int, to string) (*TransitionResult, error) {
	return s.transition(ctx, bookingID, to, true, 0)
}

func (s *service) transition(ctx context.Context, bookingID int, to string, byStaff bool, memberID int) (*TransitionResult, error) {
	res, err := s.repo.Transition(ctx, bookingID, to, TransitionOptions{
		Now:      s.now(),
		Window:   s.cfg.AcceptWindow,
		Policy:   RefundPolicy{Cutoff: s.cfg.RefundCutoff},
		ByStaff:  byStaff,
		MemberID: memberID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(res.From, to)
	if to == StatusConfirmed {
		recordDeduction(res.Booking)
	}
	if res.Refunded {
		metrics.RecordCredits(credits.TxRefund, 1)
	}
	logger.Info("booking transition", "booking_id", bookingID, "from", res.From, "to", to,
		"refunded", res.Refunded, "by_staff", byStaff)

	switch to {
	case StatusConfirmed:
		s.notifyConfirmed(ctx, bookingID)
	case StatusCancelled:
		s.notifyCancelled(ctx, bookingID, res.Refunded)
	}
	s.announce(ctx, res.Offers)
	return res, nil
}

func (s *service) Get(ctx context.Context, id int) (*BookingDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]BookingDetail, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *service) JoinWaitlist(ctx context.Context, memberID, scheduleID int) (*WaitlistEntry, error) {
	entry, err := s.repo.JoinWaitlist(ctx, memberID, scheduleID, s.now())
	if err != nil {
		return nil, err
	}
	metrics.RecordWaitlist("joined")
	return entry, nil
}

func (s *service) LeaveWaitlist(ctx context.Context, memberID, entryID int) (*WaitlistEntry, error) {
	entry, err := s.repo.LeaveWaitlist(ctx, memberID, entryID)
	if err != nil {
		return nil, err
	}
	metrics.RecordWaitlist(WaitLeft)
	return entry, nil
}

func (s *service) AcceptOffer(ctx context.Context, memberID, entryID int) (*WaitlistEntry, error) {
	entry, err := s.repo.AcceptOffer(ctx, memberID, entryID, s.now())
	if err != nil {
		return nil, err
	}
	metrics.RecordWaitlist(WaitAccepted)
	return entry, nil
}

func (s *service) DeclineOffer(ctx context.Context, memberID, entryID int) error {
	w, err := s.repo.DeclineOffer(ctx, memberID, entryID, s.now(), s.cfg.AcceptWindow)
	if err != nil {
		return err
	}
	metrics.RecordWaitlist(WaitDeclined)
	s.settle(ctx, w)
	return nil
}

// ExpireOffers withdraws every lapsed offer and cascades each freed place to
// the next waiting member. One failing entry does not stop the sweep.
func (s *service) ExpireOffers(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	ids, err := s.repo.DueOffers(ctx, now)
	if err != nil {
		return nil, err
	}

	var res SweepResult
	var firstErr error
	for _, id := range ids {
		w, err := s.repo.ExpireOffer(ctx, id, now, s.cfg.AcceptWindow)
		if err != nil {
			logger.Error("failed to expire waitlist offer", "entry_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if w.Withdrawn {
			res.Expired++
			metrics.RecordWaitlist(WaitExpired)
		}
		res.Promoted += len(w.Offers)
		s.settle(ctx, w)
	}

	if res.Expired > 0 {
		logger.Info("waitlist offers expired", "expired", res.Expired, "promoted", res.Promoted)
	}
	return &res, firstErr
}

func (s *service) ListMemberWaitlist(ctx context.Context, memberID int) ([]WaitlistDetail, error) {
	return s.repo.ListWaitlist(ctx, WaitlistFilter{MemberID: &memberID})
}

func (s *service) ListScheduleWaitlist(ctx context.Context, scheduleID int) ([]WaitlistDetail, error) {
	return s.repo.ListWaitlist(ctx, WaitlistFilter{ScheduleID: &scheduleID})
}

// settle records a committed withdrawal and announces the offers it cascaded to.
func (s *service) settle(ctx context.Context, w *Withdrawal) {
	if w == nil {
		return
	}
	if w.Refunded {
		metrics.RecordCredits(credits.TxRefund, 1)
	}
	s.announce(ctx, w.Offers)
}

// recordDeduction counts the credit a committed booking drew from a pass.
func recordDeduction(b *Booking) {
	if b != nil && b.CreditSource == credits.SourcePass {
		metrics.RecordCredits(credits.TxDeduction, 1)
	}
}

func (s *service) announce(ctx context.Context, offers []Offer) {
	for i, o := range offers {
		metrics.RecordWaitlist("offered")
		metrics.RecordBooking(o.Booking.Status, o.Booking.CreditSource)
		recordDeduction(&offers[i].Booking)
		logger.Info("waitlist promotion", "entry_id", o.Entry.ID, "member_id", o.Entry.MemberID,
			"booking_id", o.Booking.ID, "expires_at", o.Entry.ExpiresAt)

		if s.mailer == nil || o.Entry.ExpiresAt == nil {
			continue
		}
		d, err := s.repo.GetDetail(ctx, o.Booking.ID)
		if err != nil {
			logger.Error("failed to load booking for offer email", "booking_id", o.Booking.ID, "error", err)
			continue
		}
		if err := s.mailer.SendWaitlistOffer(ctx, d.MemberEmail, d.MemberName, d.ClassName, d.StartTime, *o.Entry.ExpiresAt); err != nil {
			logger.Error("failed to queue waitlist offer email", "booking_id", d.ID, "error", err)
		}
	}
}

func (s *service) notifyConfirmed(ctx context.Context, bookingID int) {
	if s.mailer == nil {
		return
	}
	d, err := s.repo.GetDetail(ctx, bookingID)
	if err != nil {
		logger.Error("failed to load booking for confirmation email", "booking_id", bookingID, "error", err)
		return
	}
	if err := s.mailer.SendBookingConfirmation(ctx, d.MemberEmail, d.MemberName, d.ClassName, d.StartTime); err != nil {
		logger.Error("failed to queue confirmation email", "booking_id", bookingID, "error", err)
	}
}

func (s *service) notifyCancelled(ctx context.Context, bookingID int, refunded bool) {
	if s.mailer == nil {
		return
	}
	d, err := s.repo.GetDetail(ctx, bookingID)
	if err != nil {
		logger.Error("failed to load booking for cancellation email", "booking_id", bookingID, "error", err)
		return
	}
	if err := s.mailer.SendBookingCancellation(ctx, d.MemberEmail, d.MemberName, d.ClassName, d.StartTime, refunded); err != nil {
		logger.Error("failed to queue cancellation email", "booking_id", bookingID, "error", err)
	}
}
