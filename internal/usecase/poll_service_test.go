package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/onclock/draft-alerts/internal/domain/draft"
	"github.com/onclock/draft-alerts/internal/domain/notification"
	"github.com/onclock/draft-alerts/internal/domain/subscription"
	"github.com/onclock/draft-alerts/internal/infrastructure/repository/memory"
	"github.com/onclock/draft-alerts/internal/platform/cache"
	"github.com/onclock/draft-alerts/internal/platform/webpush"
)

type stubProvider struct {
	mu          sync.Mutex
	drafts      map[string]draft.Detail
	picks       map[string]int
	leagues     map[string]draft.LeagueInfo
	users       map[string]string
	draftCalls  int
	userCalls   int
	leagueCalls int
}

func (p *stubProvider) FetchDraft(_ context.Context, draftID string) (draft.Detail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draftCalls++
	detail, ok := p.drafts[draftID]
	if !ok {
		return draft.Detail{}, fmt.Errorf("unknown draft %s", draftID)
	}
	return detail, nil
}

func (p *stubProvider) FetchPickCount(_ context.Context, draftID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.picks[draftID], nil
}

func (p *stubProvider) FetchLeague(_ context.Context, leagueID string) (draft.LeagueInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leagueCalls++
	info, ok := p.leagues[leagueID]
	if !ok {
		return draft.LeagueInfo{}, fmt.Errorf("unknown league %s", leagueID)
	}
	return info, nil
}

func (p *stubProvider) FetchUserID(_ context.Context, username string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userCalls++
	id, ok := p.users[username]
	if !ok {
		return "", fmt.Errorf("unknown user %s", username)
	}
	return id, nil
}

// plainEncoder skips real crypto so tests can read the payload back.
type plainEncoder struct{}

func (plainEncoder) Encode(sub webpush.Subscriber, payload []byte) (webpush.Request, error) {
	return webpush.Request{URL: sub.Endpoint, Body: payload}, nil
}

type recordingSender struct {
	mu       sync.Mutex
	sent     []webpush.Request
	errByURL map[string]error
}

func (s *recordingSender) Send(_ context.Context, req webpush.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errByURL[req.URL]; ok {
		return err
	}
	s.sent = append(s.sent, req)
	return nil
}

func (s *recordingSender) payloads(t *testing.T) []notification.Payload {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notification.Payload, 0, len(s.sent))
	for _, req := range s.sent {
		var p notification.Payload
		if err := sonic.Unmarshal(req.Body, &p); err != nil {
			t.Fatalf("unmarshal sent payload: %v", err)
		}
		out = append(out, p)
	}
	return out
}

type pollFixture struct {
	service  *PollService
	subs     *memory.SubscriptionRepository
	states   *memory.ClockStateRepository
	provider *stubProvider
	sender   *recordingSender
	now      time.Time
}

func newPollFixture(t *testing.T, provider *stubProvider) *pollFixture {
	t.Helper()

	subs := memory.NewSubscriptionRepository()
	states := memory.NewClockStateRepository()
	sender := &recordingSender{errByURL: map[string]error{}}
	now := time.Date(2026, time.August, 27, 19, 0, 0, 0, time.UTC)

	service := NewPollService(
		subs,
		states,
		NewSnapshotFetcher(provider, nil),
		provider,
		NewReconciler(DefaultReconcilerConfig()),
		NewComposer(),
		plainEncoder{},
		sender,
		cache.NewStore(time.Minute),
		nil,
		DefaultPollConfig(),
	)
	service.now = func() time.Time { return now }

	return &pollFixture{
		service:  service,
		subs:     subs,
		states:   states,
		provider: provider,
		sender:   sender,
		now:      now,
	}
}

func onClockDraft(draftID, leagueID string) draft.Detail {
	return draft.Detail{
		DraftID:      draftID,
		LeagueID:     leagueID,
		Status:       draft.StatusDrafting,
		Teams:        10,
		PickTimerSec: 0,
		DraftOrder:   map[string]int{"user-7": 1},
	}
}

func TestRunPassSendsSingleOnClockNotification(t *testing.T) {
	provider := &stubProvider{
		drafts:  map[string]draft.Detail{"d1": onClockDraft("d1", "l1")},
		picks:   map[string]int{"d1": 0},
		leagues: map[string]draft.LeagueInfo{"l1": {LeagueID: "l1", Name: "Dynasty Degens"}},
	}
	f := newPollFixture(t, provider)

	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/a",
		UserID:   "user-7",
		DraftIDs: []string{"d1"},
	})

	report, err := f.service.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if report.NotificationsSent != 1 || report.DraftsChecked != 1 {
		t.Fatalf("report = %+v", report)
	}

	payloads := f.sender.payloads(t)
	if len(payloads) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(payloads))
	}
	got := payloads[0]
	if got.Tag != "clock:d1:pick:1" {
		t.Fatalf("tag = %q", got.Tag)
	}
	if !got.Renotify {
		t.Fatal("renotify must be set")
	}
	if got.Data.Stage != string(StageOnClock) || got.Data.PickNo != 1 || got.Data.DraftID != "d1" {
		t.Fatalf("data = %+v", got.Data)
	}
	if !strings.Contains(got.Body, "Dynasty Degens") {
		t.Fatalf("body %q missing league name", got.Body)
	}
}

func TestRunPassBatchesSimultaneousOnClocks(t *testing.T) {
	provider := &stubProvider{
		drafts: map[string]draft.Detail{
			"d1": onClockDraft("d1", "l1"),
			"d2": onClockDraft("d2", "l2"),
			"d3": onClockDraft("d3", "l3"),
		},
		picks: map[string]int{"d1": 0, "d2": 0, "d3": 0},
		leagues: map[string]draft.LeagueInfo{
			"l1": {LeagueID: "l1", Name: "Alpha"},
			"l2": {LeagueID: "l2", Name: "Beta"},
			"l3": {LeagueID: "l3", Name: "Gamma"},
		},
	}
	f := newPollFixture(t, provider)

	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/a",
		UserID:   "user-7",
		DraftIDs: []string{"d1", "d2", "d3"},
	})

	report, err := f.service.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if report.NotificationsSent != 1 {
		t.Fatalf("sent %d notifications, want exactly 1 summary", report.NotificationsSent)
	}

	payloads := f.sender.payloads(t)
	got := payloads[0]
	if got.Tag != "clock:summary" {
		t.Fatalf("tag = %q, want summary tag", got.Tag)
	}
	if !strings.Contains(got.Title, "3 leagues") {
		t.Fatalf("title = %q", got.Title)
	}
	for _, league := range []string{"Alpha", "Beta", "Gamma"} {
		if !strings.Contains(got.Body, league) {
			t.Fatalf("body %q missing league %s", got.Body, league)
		}
	}

	// All three drafts still got their state persisted.
	if f.states.Len() != 3 {
		t.Fatalf("state rows = %d, want 3", f.states.Len())
	}
}

func TestRunPassSummaryCapsListedLeagues(t *testing.T) {
	provider := &stubProvider{
		drafts:  map[string]draft.Detail{},
		picks:   map[string]int{},
		leagues: map[string]draft.LeagueInfo{},
	}
	var draftIDs []string
	for i := 1; i <= 8; i++ {
		draftID := fmt.Sprintf("d%d", i)
		leagueID := fmt.Sprintf("l%d", i)
		provider.drafts[draftID] = onClockDraft(draftID, leagueID)
		provider.picks[draftID] = 0
		provider.leagues[leagueID] = draft.LeagueInfo{LeagueID: leagueID, Name: fmt.Sprintf("League %d", i)}
		draftIDs = append(draftIDs, draftID)
	}
	f := newPollFixture(t, provider)

	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/a",
		UserID:   "user-7",
		DraftIDs: draftIDs,
	})

	if _, err := f.service.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	got := f.sender.payloads(t)[0]
	if !strings.Contains(got.Body, "+2 more") {
		t.Fatalf("body %q missing +2 more suffix", got.Body)
	}
	if strings.Count(got.Body, "\n") != 6 {
		t.Fatalf("body %q should list 6 leagues plus the suffix", got.Body)
	}
}

func TestRunPassCountsSkips(t *testing.T) {
	provider := &stubProvider{
		drafts: map[string]draft.Detail{},
		picks:  map[string]int{},
		users:  map[string]string{},
	}
	f := newPollFixture(t, provider)

	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/no-drafts",
		UserID:   "user-1",
	})
	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/no-user",
		Username: "ghost",
		DraftIDs: []string{"d1"},
	})

	report, err := f.service.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if report.SkippedNoDrafts != 1 {
		t.Fatalf("SkippedNoDrafts = %d", report.SkippedNoDrafts)
	}
	if report.SkippedNoUserID != 1 {
		t.Fatalf("SkippedNoUserID = %d", report.SkippedNoUserID)
	}
	if report.NotificationsSent != 0 {
		t.Fatalf("sent = %d", report.NotificationsSent)
	}
}

func TestRunPassMemoizesSharedDraft(t *testing.T) {
	provider := &stubProvider{
		drafts:  map[string]draft.Detail{"d1": onClockDraft("d1", "l1")},
		picks:   map[string]int{"d1": 0},
		leagues: map[string]draft.LeagueInfo{"l1": {LeagueID: "l1", Name: "Shared"}},
	}
	f := newPollFixture(t, provider)

	// Second subscriber is off the clock in the same draft.
	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/a",
		UserID:   "user-7",
		DraftIDs: []string{"d1"},
	})
	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/b",
		UserID:   "user-other",
		DraftIDs: []string{"d1"},
	})

	report, err := f.service.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if report.DraftsChecked != 2 {
		t.Fatalf("DraftsChecked = %d, want 2", report.DraftsChecked)
	}
	if provider.draftCalls != 1 {
		t.Fatalf("draft fetched %d times, want 1 (memoized)", provider.draftCalls)
	}
	if provider.leagueCalls != 1 {
		t.Fatalf("league fetched %d times, want 1 (memoized)", provider.leagueCalls)
	}
}

func TestRunPassResolvesUsernameThroughCrossPassCache(t *testing.T) {
	provider := &stubProvider{
		drafts:  map[string]draft.Detail{"d1": onClockDraft("d1", "l1")},
		picks:   map[string]int{"d1": 0},
		leagues: map[string]draft.LeagueInfo{"l1": {LeagueID: "l1", Name: "Alpha"}},
		users:   map[string]string{"bob": "user-7"},
	}
	f := newPollFixture(t, provider)

	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/a",
		Username: "bob",
		DraftIDs: []string{"d1"},
	})

	if _, err := f.service.RunPass(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if _, err := f.service.RunPass(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if provider.userCalls != 1 {
		t.Fatalf("username resolved %d times across passes, want 1", provider.userCalls)
	}
}

func TestRunPassIsIdempotentAcrossPasses(t *testing.T) {
	provider := &stubProvider{
		drafts:  map[string]draft.Detail{"d1": onClockDraft("d1", "l1")},
		picks:   map[string]int{"d1": 0},
		leagues: map[string]draft.LeagueInfo{"l1": {LeagueID: "l1", Name: "Alpha"}},
	}
	f := newPollFixture(t, provider)

	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/a",
		UserID:   "user-7",
		DraftIDs: []string{"d1"},
	})

	first, err := f.service.RunPass(context.Background())
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := f.service.RunPass(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if first.NotificationsSent != 1 || second.NotificationsSent != 0 {
		t.Fatalf("sent %d then %d, want 1 then 0", first.NotificationsSent, second.NotificationsSent)
	}
}

func TestRunPassClearsStateWhenOffClock(t *testing.T) {
	provider := &stubProvider{
		drafts:  map[string]draft.Detail{"d1": onClockDraft("d1", "l1")},
		picks:   map[string]int{"d1": 0},
		leagues: map[string]draft.LeagueInfo{"l1": {LeagueID: "l1", Name: "Alpha"}},
	}
	f := newPollFixture(t, provider)

	mustUpsert(t, f.subs, subscription.Subscription{
		Endpoint: "https://push.example.net/send/a",
		UserID:   "user-7",
		DraftIDs: []string{"d1"},
	})

	if _, err := f.service.RunPass(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if f.states.Len() != 1 {
		t.Fatalf("state rows after on-clock pass = %d", f.states.Len())
	}

	// Pick advances; slot 2 is now up, user-7 is off the clock.
	provider.mu.Lock()
	provider.picks["d1"] = 1
	provider.mu.Unlock()

	report, err := f.service.RunPass(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if report.StatesCleared != 1 {
		t.Fatalf("StatesCleared = %d", report.StatesCleared)
	}
	if f.states.Len() != 0 {
		t.Fatalf("state rows after off-clock pass = %d, want 0", f.states.Len())
	}
}

func mustUpsert(t *testing.T, repo *memory.SubscriptionRepository, sub subscription.Subscription) {
	t.Helper()
	if err := repo.Upsert(context.Background(), sub); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}
