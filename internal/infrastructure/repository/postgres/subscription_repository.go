package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onclock/draft-alerts/internal/domain/subscription"
	qb "github.com/onclock/draft-alerts/internal/platform/querybuilder"
)

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByEndpoint(ctx context.Context, endpoint string) (subscription.Subscription, bool, error) {
	query, args, err := qb.Select("*").From("push_subscriptions").
		Where(qb.Eq("endpoint", endpoint)).
		ToSQL()
	if err != nil {
		return subscription.Subscription{}, false, fmt.Errorf("build get subscription query: %w", err)
	}

	var row subscriptionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return subscription.Subscription{}, false, nil
		}
		return subscription.Subscription{}, false, fmt.Errorf("get subscription: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *SubscriptionRepository) List(ctx context.Context) ([]subscription.Subscription, error) {
	query, args, err := qb.Select("*").From("push_subscriptions").
		OrderBy("endpoint").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list subscriptions query: %w", err)
	}

	var rows []subscriptionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	out := make([]subscription.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, sub subscription.Subscription) error {
	model := subscriptionModelFromDomain(sub)
	query, args, err := qb.InsertModel("push_subscriptions", model, `ON CONFLICT (endpoint)
DO UPDATE SET p256dh = EXCLUDED.p256dh,
	auth = EXCLUDED.auth,
	username = EXCLUDED.username,
	user_id = EXCLUDED.user_id,
	draft_ids = EXCLUDED.draft_ids,
	updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert subscription query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	query, args, err := qb.DeleteFrom("push_subscriptions").
		Where(qb.Eq("endpoint", endpoint)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete subscription query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
