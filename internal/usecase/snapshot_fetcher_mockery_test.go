package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/onclock/draft-alerts/internal/domain/draft"
	usecasemock "github.com/onclock/draft-alerts/internal/mocks/usecase"
)

func TestSnapshotFetcher_MemoizesWithinPassUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := usecasemock.NewDraftProvider(t)
	fetcher := NewSnapshotFetcher(provider, nil)
	cache := NewPassCache()

	provider.
		On("FetchDraft", mock.Anything, "draft-1").
		Return(draft.Detail{DraftID: "draft-1", LeagueID: "league-1", Status: draft.StatusDrafting, Teams: 10}, nil).
		Once()
	provider.
		On("FetchPickCount", mock.Anything, "draft-1").
		Return(7, nil).
		Once()
	provider.
		On("FetchLeague", mock.Anything, "league-1").
		Return(draft.LeagueInfo{LeagueID: "league-1", Name: "Dynasty Degens"}, nil).
		Once()

	first, err := fetcher.Snapshot(ctx, cache, "draft-1")
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	if first.PickCount != 7 || first.LeagueName != "Dynasty Degens" {
		t.Fatalf("unexpected snapshot: %+v", first)
	}

	// Second lookup within the same pass must come from the cache; the
	// Once() expectations above fail the test otherwise.
	second, err := fetcher.Snapshot(ctx, cache, "draft-1")
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if second.PickCount != first.PickCount {
		t.Fatalf("cached snapshot differs: %+v vs %+v", second, first)
	}
}

func TestSnapshotFetcher_LeagueFailureFallsBackUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := usecasemock.NewDraftProvider(t)
	fetcher := NewSnapshotFetcher(provider, nil)
	cache := NewPassCache()

	provider.
		On("FetchDraft", mock.Anything, "draft-1").
		Return(draft.Detail{DraftID: "draft-1", LeagueID: "league-1", Status: draft.StatusDrafting, Teams: 10}, nil).
		Once()
	provider.
		On("FetchPickCount", mock.Anything, "draft-1").
		Return(0, nil).
		Once()
	provider.
		On("FetchLeague", mock.Anything, "league-1").
		Return(draft.LeagueInfo{}, errors.New("league service down")).
		Once()

	snap, err := fetcher.Snapshot(ctx, cache, "draft-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.LeagueName != "your league" {
		t.Fatalf("league name = %q, want fallback", snap.LeagueName)
	}
}

func TestSnapshotFetcher_DraftFailureIsCachedUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := usecasemock.NewDraftProvider(t)
	fetcher := NewSnapshotFetcher(provider, nil)
	cache := NewPassCache()

	provider.
		On("FetchDraft", mock.Anything, "draft-bad").
		Return(draft.Detail{}, errors.New("upstream 500")).
		Once()
	provider.
		On("FetchPickCount", mock.Anything, "draft-bad").
		Return(0, nil).
		Maybe()

	if _, err := fetcher.Snapshot(ctx, cache, "draft-bad"); err == nil {
		t.Fatal("expected error for failing draft")
	}
	// Retry within the same pass must not hit the provider again.
	if _, err := fetcher.Snapshot(ctx, cache, "draft-bad"); err == nil {
		t.Fatal("expected cached error for failing draft")
	}
}
