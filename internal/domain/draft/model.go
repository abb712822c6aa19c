package draft

import "time"

// Draft status strings as reported by the provider.
const (
	StatusDrafting = "drafting"
	StatusPaused   = "paused"
	StatusComplete = "complete"
)

// Detail is the subset of the provider draft object the reconciler needs.
type Detail struct {
	DraftID      string
	LeagueID     string
	Status       string
	Teams        int
	PickTimerSec int
	// DraftOrder maps a provider user id to its 1-based draft slot.
	DraftOrder   map[string]int
	LastPickedAt time.Time
}

// LeagueInfo is provider league metadata used only for notification text.
type LeagueInfo struct {
	LeagueID string
	Name     string
	Avatar   string
}

// Snapshot is one poll's view of a draft. It is assembled fresh every pass
// and never persisted.
type Snapshot struct {
	Detail
	LeagueName string
	// PickCount is the number of picks already made; the current pick on
	// the clock is PickCount+1.
	PickCount int
}
