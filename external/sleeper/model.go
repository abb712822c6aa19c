package sleeper

import (
	"strings"
	"time"

	"github.com/onclock/draft-alerts/internal/domain/draft"
)

type draftEnvelope struct {
	DraftID    string            `json:"draft_id"`
	LeagueID   string            `json:"league_id"`
	Status     string            `json:"status"`
	Type       string            `json:"type"`
	Settings   draftSettings     `json:"settings"`
	DraftOrder map[string]int    `json:"draft_order"`
	Metadata   map[string]string `json:"metadata"`
	LastPicked int64             `json:"last_picked"`
}

type draftSettings struct {
	Teams     int `json:"teams"`
	PickTimer int `json:"pick_timer"`
}

type leagueEnvelope struct {
	LeagueID string `json:"league_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

type userEnvelope struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// pickItem only needs to exist; picks are consumed as a count.
type pickItem struct {
	PickNo int `json:"pick_no"`
}

func mapDraftEnvelope(draftID string, src draftEnvelope) draft.Detail {
	out := draft.Detail{
		DraftID:      draftID,
		LeagueID:     strings.TrimSpace(src.LeagueID),
		Status:       strings.ToLower(strings.TrimSpace(src.Status)),
		Teams:        src.Settings.Teams,
		PickTimerSec: src.Settings.PickTimer,
		DraftOrder:   src.DraftOrder,
	}
	if src.DraftID != "" {
		out.DraftID = src.DraftID
	}
	// last_picked is epoch milliseconds; zero means no pick yet.
	if src.LastPicked > 0 {
		out.LastPickedAt = time.UnixMilli(src.LastPicked).UTC()
	}
	return out
}

func mapLeagueEnvelope(src leagueEnvelope) draft.LeagueInfo {
	return draft.LeagueInfo{
		LeagueID: strings.TrimSpace(src.LeagueID),
		Name:     strings.TrimSpace(src.Name),
		Avatar:   strings.TrimSpace(src.Avatar),
	}
}
