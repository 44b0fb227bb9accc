package email

import (
	"context"
	"fmt"
	"time"
)

const whenLayout = "Jan 2, 2006 at 3:04 PM"

const signature = "\n\n- GymHub Team"

func (s *Service) SendBookingConfirmation(ctx context.Context, to, name, className string, start time.Time) error {
	subject := "Booking Confirmed - " + className
	body := fmt.Sprintf(`Hi %s,

Your spot is confirmed!

Class: %s
Time: %s

See you at the gym!`, name, className, start.Format(whenLayout))

	return s.enqueue(ctx, "booking_confirmation", to, name, subject, body+signature)
}

func (s *Service) SendBookingCancellation(ctx context.Context, to, name, className string, start time.Time, refunded bool) error {
	subject := "Booking Cancelled - " + className
	credit := "No credit was returned for this booking."
	if refunded {
		credit = "Your class credit has been returned to your pass."
	}
	body := fmt.Sprintf(`Hi %s,

Your booking has been cancelled:

Class: %s
Time: %s

%s`, name, className, start.Format(whenLayout), credit)

	return s.enqueue(ctx, "booking_cancellation", to, name, subject, body+signature)
}

func (s *Service) SendWaitlistOffer(ctx context.Context, to, name, className string, start, expiresAt time.Time) error {
	subject := "A spot opened up - " + className
	body := fmt.Sprintf(`Hi %s,

Good news! A spot opened up and we are holding it for you.

Class: %s
Time: %s

Please accept before %s or the spot goes to the next person on the waitlist.`,
		name, className, start.Format(whenLayout), expiresAt.Format(whenLayout))

	return s.enqueue(ctx, "waitlist_offer", to, name, subject, body+signature)
}

func (s *Service) SendMembershipAssigned(ctx context.Context, to, name, planName string, start, end time.Time, priceCents int64) error {
	subject := "Welcome to " + planName
	body := fmt.Sprintf(`Hi %s,

Your %s membership is set up.

Starts: %s
Ends: %s
Price: %s`, name, planName, start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"), FormatCents(priceCents))

	return s.enqueue(ctx, "membership_assigned", to, name, subject, body+signature)
}

func (s *Service) SendLowStockAlert(ctx context.Context, to, sku, productName string, stock, threshold int) error {
	subject := fmt.Sprintf("Low stock: %s (%s)", productName, sku)
	body := fmt.Sprintf(`Stock for %s (%s) is down to %d.
The low-stock threshold is %d. Please reorder.`, productName, sku, stock, threshold)

	return s.enqueue(ctx, "low_stock_alert", to, "Staff", subject, body+signature)
}

func (s *Service) SendCampaign(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, "campaign", to, name, subject, fmt.Sprintf("Hi %s,\n\n%s", name, body)+signature)
}

// FormatCents renders an amount such as 4999 as "$49.99".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
