package clockstate

import "context"

// Repository exposes per-(endpoint, draft) clock state persistence.
type Repository interface {
	Get(ctx context.Context, endpoint, draftID string) (State, bool, error)
	Upsert(ctx context.Context, state State) error
	Delete(ctx context.Context, endpoint, draftID string) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
