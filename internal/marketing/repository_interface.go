package marketing

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, c *Campaign) (*Campaign, error)
	Get(ctx context.Context, id int) (*Campaign, error)
	List(ctx context.Context, limit, offset int) ([]Campaign, int, error)
	Claim(ctx context.Context, id int, now time.Time) (*Campaign, []Recipient, error)
	RecordEvents(ctx context.Context, events []Event) error
	Events(ctx context.Context, campaignID, limit, offset int) ([]Event, int, error)
}
