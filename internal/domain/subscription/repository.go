package subscription

import "context"

// Repository exposes push subscription persistence operations.
type Repository interface {
	GetByEndpoint(ctx context.Context, endpoint string) (Subscription, bool, error)
	List(ctx context.Context) ([]Subscription, error)
	Upsert(ctx context.Context, sub Subscription) error
	Delete(ctx context.Context, endpoint string) error
}
