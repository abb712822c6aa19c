package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/onclock/draft-alerts/internal/domain/subscription"
)

type subscriptionTableModel struct {
	Endpoint  string         `db:"endpoint"`
	P256dh    string         `db:"p256dh"`
	Auth      string         `db:"auth"`
	Username  string         `db:"username"`
	UserID    string         `db:"user_id"`
	DraftIDs  pq.StringArray `db:"draft_ids"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (m subscriptionTableModel) toDomain() subscription.Subscription {
	return subscription.Subscription{
		Endpoint:  m.Endpoint,
		P256dh:    m.P256dh,
		Auth:      m.Auth,
		Username:  m.Username,
		UserID:    m.UserID,
		DraftIDs:  append([]string(nil), m.DraftIDs...),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func subscriptionModelFromDomain(sub subscription.Subscription) subscriptionTableModel {
	return subscriptionTableModel{
		Endpoint:  sub.Endpoint,
		P256dh:    sub.P256dh,
		Auth:      sub.Auth,
		Username:  sub.Username,
		UserID:    sub.UserID,
		DraftIDs:  pq.StringArray(sub.DraftIDs),
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}
