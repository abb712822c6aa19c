package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/onclock/draft-alerts/internal/domain/clockstate"
)

// ClockStateRepository is an in-memory clockstate.Repository keyed by
// endpoint plus draft id.
type ClockStateRepository struct {
	mu   sync.RWMutex
	rows map[string]clockstate.State
}

func NewClockStateRepository() *ClockStateRepository {
	return &ClockStateRepository{rows: make(map[string]clockstate.State)}
}

func stateKey(endpoint, draftID string) string {
	return endpoint + "\x00" + draftID
}

func (r *ClockStateRepository) Get(_ context.Context, endpoint, draftID string) (clockstate.State, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[stateKey(endpoint, draftID)]
	return row, ok, nil
}

func (r *ClockStateRepository) Upsert(_ context.Context, state clockstate.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[stateKey(state.Endpoint, state.DraftID)] = state
	return nil
}

func (r *ClockStateRepository) Delete(_ context.Context, endpoint, draftID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, stateKey(endpoint, draftID))
	return nil
}

func (r *ClockStateRepository) DeleteByEndpoint(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := endpoint + "\x00"
	for key := range r.rows {
		if strings.HasPrefix(key, prefix) {
			delete(r.rows, key)
		}
	}
	return nil
}

// Len reports how many state rows exist; test helper.
func (r *ClockStateRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
