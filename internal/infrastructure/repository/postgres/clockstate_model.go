package postgres

import (
	"time"

	"github.com/onclock/draft-alerts/internal/domain/clockstate"
)

type clockStateTableModel struct {
	Endpoint   string `db:"endpoint"`
	DraftID    string `db:"draft_id"`
	PickNo     int    `db:"pick_no"`
	LastStatus string `db:"last_status"`

	SentOnClock  bool `db:"sent_on_clock"`
	SentQuarter  bool `db:"sent_quarter"`
	SentHalf     bool `db:"sent_half"`
	SentTenLeft  bool `db:"sent_ten_left"`
	SentFinal    bool `db:"sent_final"`
	SentPaused   bool `db:"sent_paused"`
	SentUnpaused bool `db:"sent_unpaused"`

	UpdatedAt time.Time `db:"updated_at"`
}

func (m clockStateTableModel) toDomain() clockstate.State {
	return clockstate.State{
		Endpoint:     m.Endpoint,
		DraftID:      m.DraftID,
		PickNo:       m.PickNo,
		LastStatus:   m.LastStatus,
		SentOnClock:  m.SentOnClock,
		SentQuarter:  m.SentQuarter,
		SentHalf:     m.SentHalf,
		SentTenLeft:  m.SentTenLeft,
		SentFinal:    m.SentFinal,
		SentPaused:   m.SentPaused,
		SentUnpaused: m.SentUnpaused,
		UpdatedAt:    m.UpdatedAt,
	}
}

func clockStateModelFromDomain(state clockstate.State) clockStateTableModel {
	return clockStateTableModel{
		Endpoint:     state.Endpoint,
		DraftID:      state.DraftID,
		PickNo:       state.PickNo,
		LastStatus:   state.LastStatus,
		SentOnClock:  state.SentOnClock,
		SentQuarter:  state.SentQuarter,
		SentHalf:     state.SentHalf,
		SentTenLeft:  state.SentTenLeft,
		SentFinal:    state.SentFinal,
		SentPaused:   state.SentPaused,
		SentUnpaused: state.SentUnpaused,
		UpdatedAt:    state.UpdatedAt,
	}
}
