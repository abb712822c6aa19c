package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Composer picks title/body wording for a stage. Selection is a pure
// function of (stage, leagueName, timerSec): repeated polls within one pick
// window keep choosing the same variant, so the device notification text
// never flickers when a renotify replaces it.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

type messagePool struct {
	titles []string
	bodies []string
}

// %s in a title is the league name; in a body the first %s is the league
// name and the second the remaining-time text.
var poolsByStage = map[Stage]messagePool{
	StageOnClock: {
		titles: []string{
			"You're on the clock!",
			"Your pick is up!",
			"Clock's running — you're up!",
		},
		bodies: []string{
			"It's your turn to pick in %s. %s on the clock.",
			"%s is waiting on you. %s left to make your pick.",
			"Make your pick in %s — %s remaining.",
		},
	},
	StageQuarterUsed: {
		titles: []string{
			"Clock check",
			"Tick tock…",
		},
		bodies: []string{
			"A quarter of your pick clock in %s is gone. %s left.",
			"%s: 25%% of your timer is used, %s remaining.",
		},
	},
	StageHalfUsed: {
		titles: []string{
			"Halfway through your clock",
			"Half your time is gone",
		},
		bodies: []string{
			"Half of your pick clock in %s is used. %s left.",
			"%s: you've burned half the timer, %s remaining.",
		},
	},
	StageTenLeft: {
		titles: []string{
			"10 minutes left!",
			"Ten-minute warning",
		},
		bodies: []string{
			"Only %[2]s left on your pick in %[1]s.",
			"%s pick closing in — %s remaining.",
		},
	},
	StageFinalWarning: {
		titles: []string{
			"Last chance to pick!",
			"Pick now!",
		},
		bodies: []string{
			"Your clock in %s is almost out — %s left!",
			"%s will autopick soon. %s remaining!",
		},
	},
	StagePaused: {
		titles: []string{
			"Draft paused",
		},
		bodies: []string{
			"The draft in %s is paused while you're on the clock. Time shown: %s.",
		},
	},
	StageUnpaused: {
		titles: []string{
			"Draft resumed — you're still up!",
			"Back on the clock",
		},
		bodies: []string{
			"The draft in %s resumed and it's still your pick. %s left.",
			"%s is live again — %s on your clock.",
		},
	},
}

// Compose returns deterministic title/body text for one stage.
func (c *Composer) Compose(stage Stage, leagueName, timeLeftText string, timerSec int) (title, body string) {
	if strings.TrimSpace(leagueName) == "" {
		leagueName = "your league"
	}
	if strings.TrimSpace(timeLeftText) == "" {
		timeLeftText = "—"
	}

	pool, ok := poolsByStage[stage]
	if !ok || len(pool.titles) == 0 || len(pool.bodies) == 0 {
		return "Draft update", fmt.Sprintf("Something changed in %s.", leagueName)
	}

	h := fnv1a(string(stage) + "|" + leagueName + "|" + strconv.Itoa(timerSec))
	title = pool.titles[h%uint32(len(pool.titles))]
	body = fmt.Sprintf(pool.bodies[(h/7)%uint32(len(pool.bodies))], leagueName, timeLeftText)
	return title, body
}

// fnv1a is the 32-bit FNV-1a hash; only determinism matters here.
func fnv1a(s string) uint32 {
	const (
		offset uint32 = 2166136261
		prime  uint32 = 16777619
	)
	h := offset
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// FormatTimeLeft renders a remaining-clock duration as m:ss (or h:mm:ss).
// Drafts without a timer get a placeholder instead of a fake countdown.
func FormatTimeLeft(remaining time.Duration, hasTimer bool) string {
	if !hasTimer {
		return "—"
	}
	if remaining < 0 {
		remaining = 0
	}
	total := int(remaining.Round(time.Second) / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
