package subscription

import "time"

// Subscription is one browser push endpoint and the draft ids it watches.
// The endpoint URL is the natural key: re-subscribing from the same browser
// replaces the stored keys instead of creating a second row.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
	Username string
	UserID   string
	DraftIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
