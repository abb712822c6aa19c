package clockstate

import "time"

// State tracks notification progress for one (endpoint, draft) pair.
//
// The sent-flags are scoped to the pick the user is currently on the clock
// for, not to the draft as a whole: whenever PickNo advances every flag is
// reset, so each escalation stage re-arms naturally on the next pick. The
// flags stay independent booleans rather than a single enum because paused
// can land on top of any prior progress within the same pick.
type State struct {
	Endpoint   string
	DraftID    string
	PickNo     int
	LastStatus string

	SentOnClock  bool
	SentQuarter  bool
	SentHalf     bool
	SentTenLeft  bool
	SentFinal    bool
	SentPaused   bool
	SentUnpaused bool

	UpdatedAt time.Time
}

// ResetForPick returns a fresh state for a new current pick, carrying only
// the identity columns forward.
func (s State) ResetForPick(pickNo int) State {
	return State{
		Endpoint: s.Endpoint,
		DraftID:  s.DraftID,
		PickNo:   pickNo,
	}
}
