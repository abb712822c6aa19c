package usecase

import (
	"testing"
	"time"

	"github.com/onclock/draft-alerts/internal/domain/clockstate"
	"github.com/onclock/draft-alerts/internal/domain/draft"
)

var reconcileNow = time.Date(2026, time.August, 27, 19, 0, 0, 0, time.UTC)

func onClockSnapshot(status string, teams, timerSec, pickCount int, elapsed time.Duration) draft.Snapshot {
	snap := draft.Snapshot{
		Detail: draft.Detail{
			DraftID:      "draft-1",
			LeagueID:     "league-1",
			Status:       status,
			Teams:        teams,
			PickTimerSec: timerSec,
		},
		LeagueName: "Dynasty Degens",
		PickCount:  pickCount,
	}
	if timerSec > 0 {
		snap.LastPickedAt = reconcileNow.Add(-elapsed)
	}
	return snap
}

func freshState() clockstate.State {
	return clockstate.State{Endpoint: "https://push.example.net/send/a", DraftID: "draft-1"}
}

func TestSnakeSlot(t *testing.T) {
	cases := []struct {
		pickNo, teams, want int
	}{
		{1, 10, 1},
		{10, 10, 10},
		{11, 10, 10},
		{20, 10, 1},
		{21, 10, 1},
		{25, 12, 1},
		{0, 10, 0},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := snakeSlot(tc.pickNo, tc.teams); got != tc.want {
			t.Fatalf("snakeSlot(%d, %d) = %d, want %d", tc.pickNo, tc.teams, got, tc.want)
		}
	}
}

func TestReconcileFiresOnClockOnceForSamePick(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())
	snap := onClockSnapshot(draft.StatusDrafting, 10, 0, 0, 0)

	first := r.Reconcile(freshState(), false, snap, 1, reconcileNow)
	if first.Stage != StageOnClock {
		t.Fatalf("first poll stage = %q, want on_clock", first.Stage)
	}
	if first.Clear {
		t.Fatal("on-clock decision must not clear state")
	}
	if !first.Next.SentOnClock {
		t.Fatal("on-clock flag not set in persisted state")
	}

	second := r.Reconcile(first.Next, true, snap, 1, reconcileNow)
	if second.Stage != StageNone {
		t.Fatalf("second identical poll fired %q, want nothing", second.Stage)
	}
}

func TestReconcilePickAdvanceRearmsAllStages(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())

	prev := freshState()
	prev.PickNo = 1
	prev.LastStatus = draft.StatusDrafting
	prev.SentOnClock = true
	prev.SentQuarter = true
	prev.SentHalf = true
	prev.SentTenLeft = true
	prev.SentFinal = true
	prev.SentPaused = true
	prev.SentUnpaused = true

	// Pick 20, teams 10: round two reversed, slot 1 is on the clock again.
	snap := onClockSnapshot(draft.StatusDrafting, 10, 0, 0, 0)
	snap.PickCount = 19

	got := r.Reconcile(prev, true, snap, 1, reconcileNow)
	if got.Stage != StageOnClock {
		t.Fatalf("stage = %q, want on_clock to re-fire for the new pick", got.Stage)
	}
	if got.PickNo != 20 || got.Next.PickNo != 20 {
		t.Fatalf("pick number not advanced: decision=%d state=%d", got.PickNo, got.Next.PickNo)
	}
	next := got.Next
	if next.SentQuarter || next.SentHalf || next.SentTenLeft || next.SentFinal || next.SentPaused || next.SentUnpaused {
		t.Fatalf("flags not reset for new pick: %+v", next)
	}
}

func TestReconcileOffClockClearsState(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())
	snap := onClockSnapshot(draft.StatusDrafting, 10, 0, 0, 0)

	// Pick 1 belongs to slot 1; slot 4 is off the clock.
	got := r.Reconcile(freshState(), true, snap, 4, reconcileNow)
	if !got.Clear {
		t.Fatal("expected Clear for off-clock subscriber")
	}
	if got.Stage != StageNone {
		t.Fatalf("off-clock fired %q", got.Stage)
	}

	// A finished draft clears regardless of slot.
	done := onClockSnapshot(draft.StatusComplete, 10, 0, 0, 0)
	if got := r.Reconcile(freshState(), true, done, 1, reconcileNow); !got.Clear {
		t.Fatal("expected Clear for completed draft")
	}

	// Unknown user (slot zero) clears too.
	if got := r.Reconcile(freshState(), true, snap, 0, reconcileNow); !got.Clear {
		t.Fatal("expected Clear when user has no draft slot")
	}
}

func TestReconcilePauseIsExclusive(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())
	// Timer nearly exhausted; without the pause this would escalate.
	snap := onClockSnapshot(draft.StatusPaused, 10, 1800, 0, 29*time.Minute)

	first := r.Reconcile(freshState(), false, snap, 1, reconcileNow)
	if first.Stage != StagePaused {
		t.Fatalf("stage = %q, want paused", first.Stage)
	}

	second := r.Reconcile(first.Next, true, snap, 1, reconcileNow)
	if second.Stage != StageNone {
		t.Fatalf("paused draft fired %q on repeat poll, want nothing", second.Stage)
	}
	if second.Next.SentOnClock || second.Next.SentTenLeft {
		t.Fatalf("non-pause flags set while paused: %+v", second.Next)
	}
}

func TestReconcileUnpauseFiresExactlyOnce(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())

	prev := freshState()
	prev.PickNo = 1
	prev.LastStatus = draft.StatusPaused
	prev.SentOnClock = true
	prev.SentPaused = true

	snap := onClockSnapshot(draft.StatusDrafting, 10, 0, 0, 0)

	first := r.Reconcile(prev, true, snap, 1, reconcileNow)
	if first.Stage != StageUnpaused {
		t.Fatalf("stage = %q, want unpaused even though on_clock already fired", first.Stage)
	}
	if first.Next.LastStatus != draft.StatusDrafting {
		t.Fatalf("last status = %q, want drafting", first.Next.LastStatus)
	}

	second := r.Reconcile(first.Next, true, snap, 1, reconcileNow)
	if second.Stage != StageNone {
		t.Fatalf("unpaused fired again: %q", second.Stage)
	}
}

func TestReconcileLongTimerEscalation(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())
	const timer = 1800 // 30 minutes, long-clock regime

	state := freshState()
	found := false

	// Poll 1: just on the clock.
	snap := onClockSnapshot(draft.StatusDrafting, 10, timer, 0, time.Minute)
	got := r.Reconcile(state, found, snap, 1, reconcileNow)
	if got.Stage != StageOnClock {
		t.Fatalf("poll 1 stage = %q, want on_clock", got.Stage)
	}
	state, found = got.Next, true

	// Poll 2: 30% used, 21 minutes left.
	snap = onClockSnapshot(draft.StatusDrafting, 10, timer, 0, 9*time.Minute)
	got = r.Reconcile(state, found, snap, 1, reconcileNow)
	if got.Stage != StageQuarterUsed {
		t.Fatalf("poll 2 stage = %q, want quarter_used", got.Stage)
	}
	state = got.Next

	// Poll 3: 60% used, 12 minutes left. Half wins over quarter.
	snap = onClockSnapshot(draft.StatusDrafting, 10, timer, 0, 18*time.Minute)
	got = r.Reconcile(state, found, snap, 1, reconcileNow)
	if got.Stage != StageHalfUsed {
		t.Fatalf("poll 3 stage = %q, want half_used", got.Stage)
	}
	state = got.Next

	// Poll 4: 9 minutes left crosses the ten-minute line.
	snap = onClockSnapshot(draft.StatusDrafting, 10, timer, 0, 21*time.Minute)
	got = r.Reconcile(state, found, snap, 1, reconcileNow)
	if got.Stage != StageTenLeft {
		t.Fatalf("poll 4 stage = %q, want ten_left", got.Stage)
	}
	state = got.Next

	// Poll 5: nothing left to fire.
	got = r.Reconcile(state, found, snap, 1, reconcileNow)
	if got.Stage != StageNone {
		t.Fatalf("poll 5 stage = %q, want nothing", got.Stage)
	}
}

func TestReconcileLongTimerSkipsStraightToTenLeft(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())

	prev := freshState()
	prev.PickNo = 1
	prev.LastStatus = draft.StatusDrafting
	prev.SentOnClock = true

	// First escalation poll already lands inside the ten-minute window;
	// descending severity means ten_left fires, not quarter_used.
	snap := onClockSnapshot(draft.StatusDrafting, 10, 1800, 0, 22*time.Minute)
	got := r.Reconcile(prev, true, snap, 1, reconcileNow)
	if got.Stage != StageTenLeft {
		t.Fatalf("stage = %q, want ten_left to win over lower thresholds", got.Stage)
	}
}

func TestReconcileShortTimerFinalWarning(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())

	prev := freshState()
	prev.PickNo = 1
	prev.LastStatus = draft.StatusDrafting
	prev.SentOnClock = true

	// 120s timer: final threshold is clamp(24s, 20s, 120s) = 24s.
	snap := onClockSnapshot(draft.StatusDrafting, 10, 120, 0, 100*time.Second)
	got := r.Reconcile(prev, true, snap, 1, reconcileNow)
	if got.Stage != StageFinalWarning {
		t.Fatalf("stage = %q, want final_warning at 20s remaining", got.Stage)
	}

	// 30s elapsed on the same timer is above the final line but past half.
	prev.SentFinal = false
	snap = onClockSnapshot(draft.StatusDrafting, 10, 120, 0, 70*time.Second)
	got = r.Reconcile(prev, true, snap, 1, reconcileNow)
	if got.Stage != StageHalfUsed {
		t.Fatalf("stage = %q, want half_used at 50s remaining", got.Stage)
	}
}

func TestReconcileWithoutTimerNeverEscalates(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())

	prev := freshState()
	prev.PickNo = 1
	prev.LastStatus = draft.StatusDrafting
	prev.SentOnClock = true

	snap := onClockSnapshot(draft.StatusDrafting, 10, 0, 0, 0)
	got := r.Reconcile(prev, true, snap, 1, reconcileNow)
	if got.Stage != StageNone {
		t.Fatalf("stage = %q, want nothing without a timer", got.Stage)
	}
	if got.HasTimer {
		t.Fatal("HasTimer = true for a draft with no pick timer")
	}
	if got.Next.UpdatedAt != reconcileNow {
		t.Fatal("state must be refreshed even when nothing fires")
	}
}

func TestClampDuration(t *testing.T) {
	if got := clampDuration(12*time.Second, 20*time.Second, 2*time.Minute); got != 20*time.Second {
		t.Fatalf("clamp low = %v", got)
	}
	if got := clampDuration(5*time.Minute, 20*time.Second, 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("clamp high = %v", got)
	}
	if got := clampDuration(time.Minute, 20*time.Second, 2*time.Minute); got != time.Minute {
		t.Fatalf("clamp mid = %v", got)
	}
}
