package marketing

import "time"

const (
	StatusDraft = "draft"
	StatusSent  = "sent"

	EventQueued = "queued"
	EventFailed = "failed"
)

type Campaign struct {
	ID         int        `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Subject    string     `db:"subject" json:"subject"`
	Body       string     `db:"body" json:"body"`
	TargetRisk *string    `db:"target_risk" json:"target_risk,omitempty" example:"high"`
	Status     string     `db:"status" json:"status"`
	SentAt     *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedBy  *int       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

type Event struct {
	ID         int       `db:"id" json:"id"`
	CampaignID int       `db:"campaign_id" json:"campaign_id"`
	MemberID   int       `db:"member_id" json:"member_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Recipient struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

type CreateCampaignRequest struct {
	Name       string  `json:"name" binding:"required,max=255"`
	Subject    string  `json:"subject" binding:"required,max=255"`
	Body       string  `json:"body" binding:"required,max=20000"`
	TargetRisk *string `json:"target_risk" binding:"omitempty,oneof=high medium low"`
}

type SendResult struct {
	Campaign   Campaign `json:"campaign"`
	Recipients int      `json:"recipients"`
	Queued     int      `json:"queued"`
	Failed     int      `json:"failed"`
}
