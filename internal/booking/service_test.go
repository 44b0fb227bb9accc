package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymhub/internal/apperr"
	"gymhub/internal/credits"
	"gymhub/internal/metrics"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Book(ctx context.Context, memberID, scheduleID int, opts BookOptions) (*BookResult, error) {
	args := m.Called(ctx, memberID, scheduleID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookResult), args.Error(1)
}

func (m *MockRepository) Transition(ctx context.Context, bookingID int, to string, opts TransitionOptions) (*TransitionResult, error) {
	args := m.Called(ctx, bookingID, to, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TransitionResult), args.Error(1)
}

func (m *MockRepository) JoinWaitlist(ctx context.Context, memberID, scheduleID int, now time.Time) (*WaitlistEntry, error) {
	args := m.Called(ctx, memberID, scheduleID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WaitlistEntry), args.Error(1)
}

func (m *MockRepository) LeaveWaitlist(ctx context.Context, memberID, entryID int) (*WaitlistEntry, error) {
	args := m.Called(ctx, memberID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WaitlistEntry), args.Error(1)
}

func (m *MockRepository) AcceptOffer(ctx context.Context, memberID, entryID int, now time.Time) (*WaitlistEntry, error) {
	args := m.Called(ctx, memberID, entryID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WaitlistEntry), args.Error(1)
}

func (m *MockRepository) DeclineOffer(ctx context.Context, memberID, entryID int, now time.Time, window time.Duration) (*Withdrawal, error) {
	args := m.Called(ctx, memberID, entryID, now, window)
	w, _ := args.Get(0).(*Withdrawal)
	return w, args.Error(1)
}

func (m *MockRepository) DueOffers(ctx context.Context, now time.Time) ([]int, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockRepository) ExpireOffer(ctx context.Context, entryID int, now time.Time, window time.Duration) (*Withdrawal, error) {
	args := m.Called(ctx, entryID, now, window)
	w, _ := args.Get(0).(*Withdrawal)
	return w, args.Error(1)
}

func (m *MockRepository) GetBooking(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) GetDetail(ctx context.Context, id int) (*BookingDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingDetail), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]BookingDetail, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]BookingDetail), args.Int(1), args.Error(2)
}

func (m *MockRepository) ListWaitlist(ctx context.Context, filter WaitlistFilter) ([]WaitlistDetail, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]WaitlistDetail), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendBookingConfirmation(ctx context.Context, to, name, className string, start time.Time) error {
	return m.Called(ctx, to, name, className, start).Error(0)
}

func (m *MockMailer) SendBookingCancellation(ctx context.Context, to, name, className string, start time.Time, refunded bool) error {
	return m.Called(ctx, to, name, className, start, refunded).Error(0)
}

func (m *MockMailer) SendWaitlistOffer(ctx context.Context, to, name, className string, start, expiresAt time.Time) error {
	return m.Called(ctx, to, name, className, start, expiresAt).Error(0)
}

var (
	fixedNow   = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	classStart = fixedNow.Add(24 * time.Hour)
	testCfg    = Config{AcceptWindow: 2 * time.Hour, RefundCutoff: 2 * time.Hour}
)

func newTestService(repo *MockRepository, mailer *MockMailer) *service {
	s := &service{repo: repo, cfg: testCfg, now: func() time.Time { return fixedNow }}
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

func detail(id, memberID int, email string) *BookingDetail {
	return &BookingDetail{
		Booking:     Booking{ID: id, MemberID: memberID, ScheduleID: 4, Status: StatusConfirmed},
		ClassName:   "Spin",
		StartTime:   classStart,
		MemberName:  email,
		MemberEmail: email,
	}
}

func TestBook_SendsConfirmation(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)

	repo.On("Book", mock.Anything, 5, 4, BookOptions{Now: fixedNow}).
		Return(&BookResult{Booking: &Booking{ID: 40, MemberID: 5, ScheduleID: 4, Status: StatusConfirmed, CreditSource: credits.SourcePass}}, nil)
	repo.On("GetDetail", mock.Anything, 40).Return(detail(40, 5, "a@gym.test"), nil)
	mailer.On("SendBookingConfirmation", mock.Anything, "a@gym.test", "a@gym.test", "Spin", classStart).Return(nil)

	res, err := svc.Book(context.Background(), 5, BookRequest{ScheduleID: 4})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Booking.ID)
	mailer.AssertExpectations(t)
}

func TestBook_WaitlistedSendsNothing(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)
	pos := 1

	repo.On("Book", mock.Anything, 5, 4, BookOptions{Now: fixedNow, JoinWaitlist: true}).
		Return(&BookResult{Waitlist: &WaitlistEntry{ID: 9, MemberID: 5, ScheduleID: 4, Position: &pos, Status: WaitWaiting}}, nil)

	res, err := svc.Book(context.Background(), 5, BookRequest{ScheduleID: 4, JoinWaitlist: true})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Waitlist.ID)
	mailer.AssertNotCalled(t, "SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBook_PropagatesCapacityError(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)

	repo.On("Book", mock.Anything, 5, 4, mock.Anything).
		Return(nil, &apperr.CapacityError{ScheduleID: 4, Capacity: 1, NextPosition: 1})

	_, err := svc.Book(context.Background(), 5, BookRequest{ScheduleID: 4})
	assert.True(t, errors.Is(err, apperr.ErrCapacityExceeded))
}

func TestStaffBook_PendingHoldSkipsEmail(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)

	repo.On("Book", mock.Anything, 5, 4, BookOptions{Now: fixedNow, Pending: true}).
		Return(&BookResult{Booking: &Booking{ID: 40, Status: StatusPending, CreditSource: credits.SourceNone}}, nil)

	_, err := svc.StaffBook(context.Background(), StaffBookRequest{MemberID: 5, ScheduleID: 4, Pending: true})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "GetDetail", mock.Anything, mock.Anything)
}

func TestCancel_NotifiesMemberAndPromotedMember(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)
	expires := fixedNow.Add(testCfg.AcceptWindow)

	repo.On("Transition", mock.Anything, 40, StatusCancelled, mock.MatchedBy(func(o TransitionOptions) bool {
		return o.MemberID == 5 && !o.ByStaff && o.Policy.Cutoff == testCfg.RefundCutoff && o.Window == testCfg.AcceptWindow
	})).Return(&TransitionResult{
		Booking:  &Booking{ID: 40, MemberID: 5, Status: StatusCancelled},
		From:     StatusConfirmed,
		Refunded: true,
		Offers: []Offer{{
			Entry:   WaitlistEntry{ID: 9, MemberID: 6, Status: WaitNotified, ExpiresAt: &expires},
			Booking: Booking{ID: 41, MemberID: 6, Status: StatusConfirmed, CreditSource: credits.SourcePass},
		}},
	}, nil)
	repo.On("GetDetail", mock.Anything, 40).Return(detail(40, 5, "a@gym.test"), nil)
	repo.On("GetDetail", mock.Anything, 41).Return(detail(41, 6, "b@gym.test"), nil)
	mailer.On("SendBookingCancellation", mock.Anything, "a@gym.test", "a@gym.test", "Spin", classStart, true).Return(nil)
	mailer.On("SendWaitlistOffer", mock.Anything, "b@gym.test", "b@gym.test", "Spin", classStart, expires).Return(nil)

	res, err := svc.Cancel(context.Background(), 5, 40)
	require.NoError(t, err)
	assert.True(t, res.Refunded)
	mailer.AssertExpectations(t)
}

func TestTransition_EmailFailureDoesNotFail(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)

	repo.On("Transition", mock.Anything, 40, StatusConfirmed, mock.Anything).
		Return(&TransitionResult{Booking: &Booking{ID: 40, Status: StatusConfirmed}, From: StatusPending}, nil)
	repo.On("GetDetail", mock.Anything, 40).Return(detail(40, 5, "a@gym.test"), nil)
	mailer.On("SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("redis down"))

	_, err := svc.Transition(context.Background(), 40, StatusConfirmed)
	require.NoError(t, err)
}

func TestExpireOffers_ContinuesPastFailures(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)
	expires := fixedNow.Add(testCfg.AcceptWindow)
	boom := errors.New("deadlock detected")

	repo.On("DueOffers", mock.Anything, fixedNow).Return([]int{1, 2, 3}, nil)
	repo.On("ExpireOffer", mock.Anything, 1, fixedNow, testCfg.AcceptWindow).Return(nil, boom)
	repo.On("ExpireOffer", mock.Anything, 2, fixedNow, testCfg.AcceptWindow).Return(&Withdrawal{
		Withdrawn: true,
		Offers: []Offer{{
			Entry:   WaitlistEntry{ID: 12, MemberID: 7, ExpiresAt: &expires},
			Booking: Booking{ID: 50, MemberID: 7, Status: StatusConfirmed},
		}},
	}, nil)
	repo.On("ExpireOffer", mock.Anything, 3, fixedNow, testCfg.AcceptWindow).Return(&Withdrawal{}, nil)
	repo.On("GetDetail", mock.Anything, 50).Return(detail(50, 7, "c@gym.test"), nil)
	mailer.On("SendWaitlistOffer", mock.Anything, "c@gym.test", "c@gym.test", "Spin", classStart, expires).Return(nil)

	res, err := svc.ExpireOffers(context.Background())
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Promoted)
	repo.AssertNumberOfCalls(t, "ExpireOffer", 3)
}

func TestDeclineOffer_AnnouncesCascade(t *testing.T) {
	repo, mailer := new(MockRepository), new(MockMailer)
	svc := newTestService(repo, mailer)

	repo.On("DeclineOffer", mock.Anything, 6, 9, fixedNow, testCfg.AcceptWindow).Return(&Withdrawal{Withdrawn: true}, nil)

	require.NoError(t, svc.DeclineOffer(context.Background(), 6, 9))
	repo.AssertExpectations(t)
}

func creditCount(txType string) float64 {
	return testutil.ToFloat64(metrics.CreditsTotal.WithLabelValues(txType))
}

// Credit movements are counted from committed results only.
func TestExpireOffers_CountsCreditsAfterCommit(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, nil)
	expires := fixedNow.Add(testCfg.AcceptWindow)
	refunds, deductions := creditCount(credits.TxRefund), creditCount(credits.TxDeduction)

	repo.On("DueOffers", mock.Anything, fixedNow).Return([]int{1, 2}, nil)
	repo.On("ExpireOffer", mock.Anything, 1, fixedNow, testCfg.AcceptWindow).Return(nil, errors.New("serialization failure"))
	repo.On("ExpireOffer", mock.Anything, 2, fixedNow, testCfg.AcceptWindow).Return(&Withdrawal{
		Withdrawn: true,
		Refunded:  true,
		Offers: []Offer{{
			Entry:   WaitlistEntry{ID: 12, MemberID: 7, ExpiresAt: &expires},
			Booking: Booking{ID: 50, MemberID: 7, Status: StatusConfirmed, CreditSource: credits.SourcePass},
		}},
	}, nil)

	_, err := svc.ExpireOffers(context.Background())
	require.Error(t, err)
	assert.Equal(t, refunds+1, creditCount(credits.TxRefund))
	assert.Equal(t, deductions+1, creditCount(credits.TxDeduction))
}

func TestBook_FailedBookingCountsNoCredit(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, nil)
	deductions := creditCount(credits.TxDeduction)

	repo.On("Book", mock.Anything, 5, 4, mock.Anything).Return(nil, apperr.Conflict("duplicate")).Once()
	_, err := svc.Book(context.Background(), 5, BookRequest{ScheduleID: 4})
	require.Error(t, err)
	assert.Equal(t, deductions, creditCount(credits.TxDeduction))

	repo.On("Book", mock.Anything, 5, 4, mock.Anything).Return(&BookResult{
		Booking: &Booking{ID: 40, MemberID: 5, ScheduleID: 4, Status: StatusPending, CreditSource: credits.SourceNone},
	}, nil)
	_, err = svc.Book(context.Background(), 5, BookRequest{ScheduleID: 4})
	require.NoError(t, err)
	assert.Equal(t, deductions, creditCount(credits.TxDeduction))
}

func TestListScheduleWaitlist(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, nil)
	scheduleID := 4

	repo.On("ListWaitlist", mock.Anything, WaitlistFilter{ScheduleID: &scheduleID}).
		Return([]WaitlistDetail{{WaitlistEntry: WaitlistEntry{ID: 9}}}, nil)

	list, err := svc.ListScheduleWaitlist(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
