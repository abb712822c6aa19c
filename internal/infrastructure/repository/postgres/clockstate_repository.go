package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onclock/draft-alerts/internal/domain/clockstate"
	qb "github.com/onclock/draft-alerts/internal/platform/querybuilder"
)

type ClockStateRepository struct {
	db *sqlx.DB
}

func NewClockStateRepository(db *sqlx.DB) *ClockStateRepository {
	return &ClockStateRepository{db: db}
}

func (r *ClockStateRepository) Get(ctx context.Context, endpoint, draftID string) (clockstate.State, bool, error) {
	query, args, err := qb.Select("*").From("draft_clock_states").
		Where(
			qb.Eq("endpoint", endpoint),
			qb.Eq("draft_id", draftID),
		).
		ToSQL()
	if err != nil {
		return clockstate.State{}, false, fmt.Errorf("build get clock state query: %w", err)
	}

	var row clockStateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return clockstate.State{}, false, nil
		}
		return clockstate.State{}, false, fmt.Errorf("get clock state: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ClockStateRepository) Upsert(ctx context.Context, state clockstate.State) error {
	model := clockStateModelFromDomain(state)
	query, args, err := qb.InsertModel("draft_clock_states", model, `ON CONFLICT (endpoint, draft_id)
DO UPDATE SET pick_no = EXCLUDED.pick_no,
	last_status = EXCLUDED.last_status,
	sent_on_clock = EXCLUDED.sent_on_clock,
	sent_quarter = EXCLUDED.sent_quarter,
	sent_half = EXCLUDED.sent_half,
	sent_ten_left = EXCLUDED.sent_ten_left,
	sent_final = EXCLUDED.sent_final,
	sent_paused = EXCLUDED.sent_paused,
	sent_unpaused = EXCLUDED.sent_unpaused,
	updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert clock state query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert clock state: %w", err)
	}
	return nil
}

func (r *ClockStateRepository) Delete(ctx context.Context, endpoint, draftID string) error {
	query, args, err := qb.DeleteFrom("draft_clock_states").
		Where(
			qb.Eq("endpoint", endpoint),
			qb.Eq("draft_id", draftID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete clock state query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete clock state: %w", err)
	}
	return nil
}

func (r *ClockStateRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	query, args, err := qb.DeleteFrom("draft_clock_states").
		Where(qb.Eq("endpoint", endpoint)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete clock states query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete clock states: %w", err)
	}
	return nil
}
