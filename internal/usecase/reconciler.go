package usecase

import (
	"time"

	"github.com/onclock/draft-alerts/internal/domain/clockstate"
	"github.com/onclock/draft-alerts/internal/domain/draft"
)

// Stage identifies which escalation notification fires for a poll.
type Stage string

const (
	StageNone         Stage = ""
	StageOnClock      Stage = "on_clock"
	StageQuarterUsed  Stage = "quarter_used"
	StageHalfUsed     Stage = "half_used"
	StageTenLeft      Stage = "ten_left"
	StageFinalWarning Stage = "final_warning"
	StagePaused       Stage = "paused"
	StageUnpaused     Stage = "unpaused"
)

// ReconcilerConfig carries the escalation thresholds. The fractions and
// clamps are product-tuned values; treat them as opaque constants.
type ReconcilerConfig struct {
	QuarterUsedFrac float64
	HalfUsedFrac    float64
	// LongTimerSec splits drafts into long-clock and short-clock regimes.
	LongTimerSec int
	TenLeft      time.Duration
	FinalFrac    float64
	FinalMin     time.Duration
	FinalMax     time.Duration
}

func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		QuarterUsedFrac: 0.25,
		HalfUsedFrac:    0.50,
		LongTimerSec:    600,
		TenLeft:         10 * time.Minute,
		FinalFrac:       0.20,
		FinalMin:        20 * time.Second,
		FinalMax:        2 * time.Minute,
	}
}

// ClockDecision is the outcome of one reconciliation step.
type ClockDecision struct {
	// Stage is StageNone when nothing should be sent this poll.
	Stage  Stage
	PickNo int
	// TimeLeft is the remaining-clock estimate; meaningful only when
	// HasTimer is true.
	TimeLeft time.Duration
	HasTimer bool
	// Clear means the subscriber is confirmed off the clock: delete the
	// persisted state instead of upserting Next.
	Clear bool
	// Next is the state to persist when Clear is false. It is always
	// refreshed, even when Stage is StageNone.
	Next clockstate.State
}

// Reconciler decides, per (subscription, draft) pair, which notification
// stage fires this poll. It is pure: no I/O, no clock reads.
type Reconciler struct {
	cfg ReconcilerConfig
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.QuarterUsedFrac <= 0 || cfg.HalfUsedFrac <= 0 {
		cfg = DefaultReconcilerConfig()
	}
	return &Reconciler{cfg: cfg}
}

// Reconcile compares fresh draft state against the persisted flags.
// prev carries found=false when no row exists yet. userSlot is the
// subscriber's 1-based slot from draft_order, zero when absent.
//
// At most one stage fires per call; every stage is gated by its own
// already-sent flag, so calling again with identical inputs fires nothing.
func (r *Reconciler) Reconcile(prev clockstate.State, found bool, snap draft.Snapshot, userSlot int, now time.Time) ClockDecision {
	pickNo := snap.PickCount + 1
	currentSlot := snakeSlot(pickNo, snap.Teams)

	active := snap.Status == draft.StatusDrafting || snap.Status == draft.StatusPaused
	if !active || userSlot <= 0 || currentSlot != userSlot {
		return ClockDecision{PickNo: pickNo, Clear: true}
	}

	next := prev
	if !found || prev.PickNo != pickNo {
		next = prev.ResetForPick(pickNo)
	}
	prevStatus := next.LastStatus

	remaining, hasTimer := remainingClock(snap, now)

	decision := ClockDecision{
		PickNo:   pickNo,
		TimeLeft: remaining,
		HasTimer: hasTimer,
	}

	switch {
	case snap.Status == draft.StatusPaused:
		// Pause is exclusive: nothing else may fire while paused.
		if !next.SentPaused {
			decision.Stage = StagePaused
			next.SentPaused = true
		}

	case prevStatus == draft.StatusPaused && !next.SentUnpaused:
		decision.Stage = StageUnpaused
		next.SentUnpaused = true

	case !next.SentOnClock:
		decision.Stage = StageOnClock
		next.SentOnClock = true

	case hasTimer:
		total := time.Duration(snap.PickTimerSec) * time.Second
		usedFrac := 1 - float64(remaining)/float64(total)

		if snap.PickTimerSec >= r.cfg.LongTimerSec {
			switch {
			case remaining <= r.cfg.TenLeft && !next.SentTenLeft:
				decision.Stage = StageTenLeft
				next.SentTenLeft = true
			case usedFrac >= r.cfg.HalfUsedFrac && !next.SentHalf:
				decision.Stage = StageHalfUsed
				next.SentHalf = true
			case usedFrac >= r.cfg.QuarterUsedFrac && !next.SentQuarter:
				decision.Stage = StageQuarterUsed
				next.SentQuarter = true
			}
		} else {
			finalAt := clampDuration(time.Duration(r.cfg.FinalFrac*float64(total)), r.cfg.FinalMin, r.cfg.FinalMax)
			switch {
			case remaining <= finalAt && !next.SentFinal:
				decision.Stage = StageFinalWarning
				next.SentFinal = true
			case usedFrac >= r.cfg.HalfUsedFrac && !next.SentHalf:
				decision.Stage = StageHalfUsed
				next.SentHalf = true
			case usedFrac >= r.cfg.QuarterUsedFrac && !next.SentQuarter:
				decision.Stage = StageQuarterUsed
				next.SentQuarter = true
			}
		}
	}

	next.PickNo = pickNo
	next.LastStatus = snap.Status
	next.UpdatedAt = now
	decision.Next = next
	return decision
}

// snakeSlot maps a 1-based overall pick number to the 1-based roster slot
// holding it. Odd rounds run 1..teams, even rounds reverse.
func snakeSlot(pickNo, teams int) int {
	if pickNo <= 0 || teams <= 0 {
		return 0
	}
	round := (pickNo - 1) / teams
	idx := (pickNo - 1) % teams
	if round%2 == 0 {
		return idx + 1
	}
	return teams - idx
}

// remainingClock estimates time left on the current pick from the last
// pick timestamp plus the configured timer. Without a timer, or before the
// first pick lands, there is nothing to estimate.
func remainingClock(snap draft.Snapshot, now time.Time) (time.Duration, bool) {
	if snap.PickTimerSec <= 0 || snap.LastPickedAt.IsZero() {
		return 0, false
	}
	deadline := snap.LastPickedAt.Add(time.Duration(snap.PickTimerSec) * time.Second)
	remaining := deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
