package notification

// Payload is the JSON document delivered to the service worker. Tag plus
// Renotify makes a later notification for the same pick replace the earlier
// one on the device instead of stacking.
type Payload struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	URL      string   `json:"url"`
	Tag      string   `json:"tag"`
	Renotify bool     `json:"renotify"`
	Icon     string   `json:"icon,omitempty"`
	Badge    string   `json:"badge,omitempty"`
	Data     Data     `json:"data"`
	Actions  []Action `json:"actions,omitempty"`
}

type Data struct {
	URL        string `json:"url"`
	LeagueURL  string `json:"leagueUrl,omitempty"`
	DraftURL   string `json:"draftUrl,omitempty"`
	LeagueID   string `json:"leagueId,omitempty"`
	DraftID    string `json:"draftId,omitempty"`
	PickNo     int    `json:"pickNo,omitempty"`
	Stage      string `json:"stage"`
	TimeLeftMs int64  `json:"timeLeftMs"`
}

type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}
