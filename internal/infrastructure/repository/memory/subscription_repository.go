package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/onclock/draft-alerts/internal/domain/subscription"
)

// SubscriptionRepository is an in-memory subscription.Repository used by
// tests and local runs without a database.
type SubscriptionRepository struct {
	mu   sync.RWMutex
	rows map[string]subscription.Subscription
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{rows: make(map[string]subscription.Subscription)}
}

func (r *SubscriptionRepository) GetByEndpoint(_ context.Context, endpoint string) (subscription.Subscription, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[endpoint]
	return cloneSubscription(row), ok, nil
}

func (r *SubscriptionRepository) List(_ context.Context) ([]subscription.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subscription.Subscription, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, cloneSubscription(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out, nil
}

func (r *SubscriptionRepository) Upsert(_ context.Context, sub subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[sub.Endpoint] = cloneSubscription(sub)
	return nil
}

func (r *SubscriptionRepository) Delete(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, endpoint)
	return nil
}

func cloneSubscription(sub subscription.Subscription) subscription.Subscription {
	out := sub
	out.DraftIDs = append([]string(nil), sub.DraftIDs...)
	return out
}
