package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/onclock/draft-alerts/internal/domain/clockstate"
	"github.com/onclock/draft-alerts/internal/domain/draft"
	"github.com/onclock/draft-alerts/internal/domain/notification"
	"github.com/onclock/draft-alerts/internal/domain/subscription"
	"github.com/onclock/draft-alerts/internal/platform/cache"
	"github.com/onclock/draft-alerts/internal/platform/logging"
	"github.com/onclock/draft-alerts/internal/platform/webpush"
)

// PushEncoder builds one deliverable push request from a subscriber's key
// material and plaintext payload bytes.
type PushEncoder interface {
	Encode(sub webpush.Subscriber, payload []byte) (webpush.Request, error)
}

// PollConfig tunes one orchestrator pass.
type PollConfig struct {
	DraftURLBase  string
	LeagueURLBase string
	// SummaryMaxLeagues caps how many leagues a batched on-clock summary
	// lists before collapsing the rest into a "+N more" suffix.
	SummaryMaxLeagues int
	// PrewarmWorkers sizes the worker pool that pre-fetches distinct draft
	// snapshots into the pass cache before the sequential iteration.
	PrewarmWorkers int
	Icon           string
	Badge          string
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		DraftURLBase:      "https://sleeper.com/draft/nfl/",
		LeagueURLBase:     "https://sleeper.com/leagues/",
		SummaryMaxLeagues: 6,
		PrewarmWorkers:    8,
	}
}

// PassReport aggregates what one pass did; it is the admin trigger's JSON
// response body.
type PassReport struct {
	Subscriptions       int `json:"subscriptions"`
	DraftsChecked       int `json:"draftsChecked"`
	NotificationsSent   int `json:"notificationsSent"`
	SubscriptionsPruned int `json:"subscriptionsPruned"`
	SkippedNoUserID     int `json:"skippedNoUserId"`
	SkippedNoDrafts     int `json:"skippedNoDrafts"`
	DraftErrors         int `json:"draftErrors"`
	SendErrors          int `json:"sendErrors"`
	StatesCleared       int `json:"statesCleared"`
}

// PollService runs one reconciliation pass over every subscription and
// every draft it watches. Passes are assumed non-overlapping; the persisted
// clock-state rows are owned exclusively by this service.
type PollService struct {
	subRepo    subscription.Repository
	stateRepo  clockstate.Repository
	fetcher    *SnapshotFetcher
	provider   DraftProvider
	reconciler *Reconciler
	composer   *Composer
	encoder    PushEncoder
	sender     webpush.Sender
	userIDs    *cache.Store
	logger     *logging.Logger
	cfg        PollConfig
	now        func() time.Time
}

func NewPollService(
	subRepo subscription.Repository,
	stateRepo clockstate.Repository,
	fetcher *SnapshotFetcher,
	provider DraftProvider,
	reconciler *Reconciler,
	composer *Composer,
	encoder PushEncoder,
	sender webpush.Sender,
	userIDs *cache.Store,
	logger *logging.Logger,
	cfg PollConfig,
) *PollService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SummaryMaxLeagues <= 0 {
		cfg.SummaryMaxLeagues = DefaultPollConfig().SummaryMaxLeagues
	}
	if cfg.DraftURLBase == "" {
		cfg.DraftURLBase = DefaultPollConfig().DraftURLBase
	}
	if cfg.LeagueURLBase == "" {
		cfg.LeagueURLBase = DefaultPollConfig().LeagueURLBase
	}
	return &PollService{
		subRepo:    subRepo,
		stateRepo:  stateRepo,
		fetcher:    fetcher,
		provider:   provider,
		reconciler: reconciler,
		composer:   composer,
		encoder:    encoder,
		sender:     sender,
		userIDs:    userIDs,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

type onclockItem struct {
	snap     draft.Snapshot
	decision ClockDecision
}

// RunPass reads every subscription and reconciles each of its watched
// drafts, delivering at most one escalation notification per draft and one
// batched on-clock notification per subscriber.
func (s *PollService) RunPass(ctx context.Context) (PassReport, error) {
	ctx, span := startUsecaseSpan(ctx, "PollService.RunPass")
	defer span.End()

	var report PassReport

	subs, err := s.subRepo.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list subscriptions: %w", err)
	}
	report.Subscriptions = len(subs)

	passCache := NewPassCache()
	s.prewarm(ctx, passCache, subs)

	for _, sub := range subs {
		s.processSubscriber(ctx, passCache, sub, &report)
	}

	s.logger.InfoContext(ctx, "poll pass finished",
		"subscriptions", report.Subscriptions,
		"drafts_checked", report.DraftsChecked,
		"sent", report.NotificationsSent,
		"pruned", report.SubscriptionsPruned,
	)
	return report, nil
}

// prewarm fetches each distinct draft id once, concurrently, so the
// sequential subscriber loop below hits only the pass cache. Failures are
// cached too and surface as per-draft skips during iteration.
func (s *PollService) prewarm(ctx context.Context, passCache *PassCache, subs []subscription.Subscription) {
	distinct := make(map[string]struct{})
	for _, sub := range subs {
		for _, draftID := range sub.DraftIDs {
			if draftID = strings.TrimSpace(draftID); draftID != "" {
				distinct[draftID] = struct{}{}
			}
		}
	}
	if len(distinct) < 2 || s.cfg.PrewarmWorkers <= 1 {
		return
	}

	workers, err := ants.NewPool(s.cfg.PrewarmWorkers)
	if err != nil {
		s.logger.WarnContext(ctx, "prewarm pool unavailable, fetching inline", "error", err)
		return
	}
	defer workers.Release()

	var wg sync.WaitGroup
	for draftID := range distinct {
		draftID := draftID
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			_, _ = s.fetcher.Snapshot(ctx, passCache, draftID)
		}); err != nil {
			wg.Done()
		}
	}
	wg.Wait()
}

func (s *PollService) processSubscriber(ctx context.Context, passCache *PassCache, sub subscription.Subscription, report *PassReport) {
	if len(sub.DraftIDs) == 0 {
		report.SkippedNoDrafts++
		return
	}

	userID := s.resolveUserID(ctx, sub)
	if userID == "" {
		report.SkippedNoUserID++
		return
	}

	var batch []onclockItem
	for _, draftID := range sub.DraftIDs {
		snap, err := s.fetcher.Snapshot(ctx, passCache, draftID)
		if err != nil {
			report.DraftErrors++
			continue
		}
		report.DraftsChecked++

		prev, found, err := s.stateRepo.Get(ctx, sub.Endpoint, snap.DraftID)
		if err != nil {
			s.logger.ErrorContext(ctx, "load clock state failed", "endpoint", sub.Endpoint, "draft_id", snap.DraftID, "error", err)
			report.DraftErrors++
			continue
		}
		if !found {
			prev = clockstate.State{Endpoint: sub.Endpoint, DraftID: snap.DraftID}
		}

		decision := s.reconciler.Reconcile(prev, found, snap, snap.DraftOrder[userID], s.now())

		if decision.Clear {
			if found {
				if err := s.stateRepo.Delete(ctx, sub.Endpoint, snap.DraftID); err != nil {
					s.logger.WarnContext(ctx, "clear clock state failed", "endpoint", sub.Endpoint, "draft_id", snap.DraftID, "error", err)
				} else {
					report.StatesCleared++
				}
			}
			continue
		}

		// Persist first: even if delivery fails below, the next pass must
		// not re-decide the same stage.
		if err := s.stateRepo.Upsert(ctx, decision.Next); err != nil {
			s.logger.ErrorContext(ctx, "persist clock state failed", "endpoint", sub.Endpoint, "draft_id", snap.DraftID, "error", err)
		}

		switch decision.Stage {
		case StageNone:
		case StageOnClock:
			batch = append(batch, onclockItem{snap: snap, decision: decision})
		default:
			if gone := s.deliver(ctx, sub, s.stagePayload(sub, snap, decision), report); gone {
				return
			}
		}
	}

	if len(batch) == 0 {
		return
	}
	var payload notification.Payload
	if len(batch) == 1 {
		payload = s.stagePayload(sub, batch[0].snap, batch[0].decision)
	} else {
		payload = s.summaryPayload(batch)
	}
	s.deliver(ctx, sub, payload, report)
}

// deliver encodes and sends one payload. Returns true when the endpoint was
// pruned, which ends all processing for this subscriber.
func (s *PollService) deliver(ctx context.Context, sub subscription.Subscription, payload notification.Payload, report *PassReport) bool {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal notification payload failed", "endpoint", sub.Endpoint, "error", err)
		report.SendErrors++
		return false
	}

	req, err := s.encoder.Encode(webpush.Subscriber{
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
	}, raw)
	if err != nil {
		s.logger.WarnContext(ctx, "encode push failed", "endpoint", sub.Endpoint, "error", err)
		report.SendErrors++
		return false
	}

	err = s.sender.Send(ctx, req)
	switch {
	case err == nil:
		report.NotificationsSent++
		return false
	case crerr.Is(err, webpush.ErrEndpointGone):
		s.prune(ctx, sub.Endpoint)
		report.SubscriptionsPruned++
		return true
	default:
		s.logger.WarnContext(ctx, "push delivery failed", "endpoint", sub.Endpoint, "error", err)
		report.SendErrors++
		return false
	}
}

func (s *PollService) prune(ctx context.Context, endpoint string) {
	if err := s.stateRepo.DeleteByEndpoint(ctx, endpoint); err != nil {
		s.logger.WarnContext(ctx, "delete clock states for pruned endpoint failed", "endpoint", endpoint, "error", err)
	}
	if err := s.subRepo.Delete(ctx, endpoint); err != nil {
		s.logger.WarnContext(ctx, "delete pruned subscription failed", "endpoint", endpoint, "error", err)
	}
	s.logger.InfoContext(ctx, "pruned dead push endpoint", "endpoint", endpoint)
}

func (s *PollService) resolveUserID(ctx context.Context, sub subscription.Subscription) string {
	if sub.UserID != "" {
		return sub.UserID
	}
	username := strings.TrimSpace(sub.Username)
	if username == "" {
		return ""
	}

	value, err := s.userIDs.GetOrLoad(ctx, "user_id:"+username, func(ctx context.Context) (any, error) {
		return s.provider.FetchUserID(ctx, username)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "resolve username failed", "username", username, "error", err)
		return ""
	}
	userID, _ := value.(string)
	return userID
}

func (s *PollService) stagePayload(sub subscription.Subscription, snap draft.Snapshot, decision ClockDecision) notification.Payload {
	timeLeft := FormatTimeLeft(decision.TimeLeft, decision.HasTimer)
	title, body := s.composer.Compose(decision.Stage, snap.LeagueName, timeLeft, snap.PickTimerSec)

	draftURL := s.cfg.DraftURLBase + snap.DraftID
	leagueURL := ""
	if snap.LeagueID != "" {
		leagueURL = s.cfg.LeagueURLBase + snap.LeagueID
	}

	return notification.Payload{
		Title:    title,
		Body:     body,
		URL:      draftURL,
		Tag:      fmt.Sprintf("clock:%s:pick:%d", snap.DraftID, decision.PickNo),
		Renotify: true,
		Icon:     s.cfg.Icon,
		Badge:    s.cfg.Badge,
		Data: notification.Data{
			URL:        draftURL,
			LeagueURL:  leagueURL,
			DraftURL:   draftURL,
			LeagueID:   snap.LeagueID,
			DraftID:    snap.DraftID,
			PickNo:     decision.PickNo,
			Stage:      string(decision.Stage),
			TimeLeftMs: decision.TimeLeft.Milliseconds(),
		},
		Actions: []notification.Action{{Action: "open", Title: "Open draft"}},
	}
}

// summaryPayload collapses several simultaneous on-clock decisions into one
// notification so a subscriber drafting in many leagues at once is not
// flooded.
func (s *PollService) summaryPayload(batch []onclockItem) notification.Payload {
	lines := make([]string, 0, s.cfg.SummaryMaxLeagues)
	for i, item := range batch {
		if i >= s.cfg.SummaryMaxLeagues {
			break
		}
		lines = append(lines, fmt.Sprintf("%s — %s left", item.snap.LeagueName, FormatTimeLeft(item.decision.TimeLeft, item.decision.HasTimer)))
	}
	if extra := len(batch) - s.cfg.SummaryMaxLeagues; extra > 0 {
		lines = append(lines, fmt.Sprintf("+%d more", extra))
	}

	first := batch[0]
	draftURL := s.cfg.DraftURLBase + first.snap.DraftID
	return notification.Payload{
		Title:    fmt.Sprintf("You're on the clock in %d leagues!", len(batch)),
		Body:     strings.Join(lines, "\n"),
		URL:      draftURL,
		Tag:      "clock:summary",
		Renotify: true,
		Icon:     s.cfg.Icon,
		Badge:    s.cfg.Badge,
		Data: notification.Data{
			URL:        draftURL,
			DraftURL:   draftURL,
			DraftID:    first.snap.DraftID,
			PickNo:     first.decision.PickNo,
			Stage:      string(StageOnClock),
			TimeLeftMs: first.decision.TimeLeft.Milliseconds(),
		},
		Actions: []notification.Action{{Action: "open", Title: "Open draft"}},
	}
}
