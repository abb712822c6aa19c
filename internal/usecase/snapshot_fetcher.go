package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/onclock/draft-alerts/internal/domain/draft"
	"github.com/onclock/draft-alerts/internal/platform/logging"
)

const leagueNameFallback = "your league"

// DraftProvider is the read-only upstream draft API surface the poll
// pipeline consumes.
type DraftProvider interface {
	FetchDraft(ctx context.Context, draftID string) (draft.Detail, error)
	FetchPickCount(ctx context.Context, draftID string) (int, error)
	FetchLeague(ctx context.Context, leagueID string) (draft.LeagueInfo, error)
	FetchUserID(ctx context.Context, username string) (string, error)
}

type snapshotResult struct {
	snap draft.Snapshot
	err  error
}

// PassCache memoizes draft and league lookups for the duration of one
// orchestrator pass. Many subscribers watch the same draft; each id is
// fetched once per pass, errors included. It is explicitly constructed per
// pass and never shared across passes.
type PassCache struct {
	mu      sync.Mutex
	drafts  map[string]snapshotResult
	leagues map[string]draft.LeagueInfo
}

func NewPassCache() *PassCache {
	return &PassCache{
		drafts:  make(map[string]snapshotResult),
		leagues: make(map[string]draft.LeagueInfo),
	}
}

func (c *PassCache) draftResult(draftID string) (snapshotResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.drafts[draftID]
	return res, ok
}

func (c *PassCache) storeDraftResult(draftID string, res snapshotResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts[draftID] = res
}

func (c *PassCache) league(leagueID string) (draft.LeagueInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.leagues[leagueID]
	return info, ok
}

func (c *PassCache) storeLeague(leagueID string, info draft.LeagueInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leagues[leagueID] = info
}

// SnapshotFetcher assembles one poll's view of a draft: the draft object,
// the pick count, and league display metadata.
type SnapshotFetcher struct {
	provider DraftProvider
	logger   *logging.Logger
}

func NewSnapshotFetcher(provider DraftProvider, logger *logging.Logger) *SnapshotFetcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotFetcher{provider: provider, logger: logger}
}

// Snapshot returns the memoized snapshot for a draft, fetching it on first
// use within the pass. The draft object and the pick count are independent
// reads, so they are issued as a concurrent pair. A failed league lookup
// degrades to a fallback display name rather than failing the draft.
func (f *SnapshotFetcher) Snapshot(ctx context.Context, cache *PassCache, draftID string) (draft.Snapshot, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return draft.Snapshot{}, fmt.Errorf("%w: draft id is required", ErrInvalidInput)
	}

	if res, ok := cache.draftResult(draftID); ok {
		return res.snap, res.err
	}

	snap, err := f.fetch(ctx, cache, draftID)
	cache.storeDraftResult(draftID, snapshotResult{snap: snap, err: err})
	return snap, err
}

func (f *SnapshotFetcher) fetch(ctx context.Context, cache *PassCache, draftID string) (draft.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "SnapshotFetcher.fetch")
	defer span.End()

	var (
		detail    draft.Detail
		pickCount int
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		detail, err = f.provider.FetchDraft(ctx, draftID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		pickCount, err = f.provider.FetchPickCount(ctx, draftID)
		return err
	})
	if err := p.Wait(); err != nil {
		return draft.Snapshot{}, fmt.Errorf("fetch draft snapshot draft_id=%s: %w", draftID, err)
	}

	snap := draft.Snapshot{
		Detail:     detail,
		PickCount:  pickCount,
		LeagueName: leagueNameFallback,
	}
	if name := f.leagueName(ctx, cache, detail.LeagueID); name != "" {
		snap.LeagueName = name
	}
	return snap, nil
}

func (f *SnapshotFetcher) leagueName(ctx context.Context, cache *PassCache, leagueID string) string {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return ""
	}

	if info, ok := cache.league(leagueID); ok {
		return info.Name
	}

	info, err := f.provider.FetchLeague(ctx, leagueID)
	if err != nil {
		f.logger.WarnContext(ctx, "league lookup failed, using fallback name", "league_id", leagueID, "error", err)
		// Cache the miss too; one bad league id should not be re-fetched
		// for every subscriber in the pass.
		cache.storeLeague(leagueID, draft.LeagueInfo{LeagueID: leagueID})
		return ""
	}

	cache.storeLeague(leagueID, info)
	return info.Name
}
