package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/onclock/draft-alerts/internal/domain/clockstate"
	"github.com/onclock/draft-alerts/internal/domain/subscription"
	"github.com/onclock/draft-alerts/internal/platform/logging"
	"github.com/onclock/draft-alerts/internal/platform/webpush"
)

// SubscriptionService owns the opt-in lifecycle: subscribe, change the
// watched draft list, unsubscribe.
type SubscriptionService struct {
	subRepo   subscription.Repository
	stateRepo clockstate.Repository
	provider  DraftProvider
	logger    *logging.Logger
	now       func() time.Time
}

func NewSubscriptionService(
	subRepo subscription.Repository,
	stateRepo clockstate.Repository,
	provider DraftProvider,
	logger *logging.Logger,
) *SubscriptionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SubscriptionService{
		subRepo:   subRepo,
		stateRepo: stateRepo,
		provider:  provider,
		logger:    logger,
		now:       time.Now,
	}
}

// Subscribe upserts a browser subscription keyed by endpoint. Re-subscribing
// from the same browser replaces the stored keys. The username, when given,
// is resolved to a provider user id eagerly so poll passes don't have to.
func (s *SubscriptionService) Subscribe(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	ctx, span := startUsecaseSpan(ctx, "SubscriptionService.Subscribe")
	defer span.End()

	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	sub.Username = strings.TrimSpace(sub.Username)
	if sub.Endpoint == "" {
		return subscription.Subscription{}, fmt.Errorf("%w: endpoint is required", ErrInvalidInput)
	}
	if err := webpush.ValidateSubscriber(webpush.Subscriber{
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
	}); err != nil {
		return subscription.Subscription{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sub.DraftIDs = normalizeDraftIDs(sub.DraftIDs)

	if sub.UserID == "" && sub.Username != "" && s.provider != nil {
		userID, err := s.provider.FetchUserID(ctx, sub.Username)
		if err != nil {
			// Resolution also happens lazily during polls; opt-in should
			// not fail because the provider is down right now.
			s.logger.WarnContext(ctx, "resolve username at subscribe failed", "username", sub.Username, "error", err)
		} else {
			sub.UserID = userID
		}
	}

	now := s.now().UTC()
	existing, found, err := s.subRepo.GetByEndpoint(ctx, sub.Endpoint)
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	if found {
		sub.CreatedAt = existing.CreatedAt
		if len(sub.DraftIDs) == 0 {
			sub.DraftIDs = existing.DraftIDs
		}
	} else {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	if err := s.subRepo.Upsert(ctx, sub); err != nil {
		return subscription.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	return sub, nil
}

// SetDrafts replaces the watched draft list for an endpoint.
func (s *SubscriptionService) SetDrafts(ctx context.Context, endpoint string, draftIDs []string) (subscription.Subscription, error) {
	ctx, span := startUsecaseSpan(ctx, "SubscriptionService.SetDrafts")
	defer span.End()

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return subscription.Subscription{}, fmt.Errorf("%w: endpoint is required", ErrInvalidInput)
	}

	sub, found, err := s.subRepo.GetByEndpoint(ctx, endpoint)
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	if !found {
		return subscription.Subscription{}, fmt.Errorf("%w: endpoint is not subscribed", ErrNotFound)
	}

	sub.DraftIDs = normalizeDraftIDs(draftIDs)
	sub.UpdatedAt = s.now().UTC()

	if err := s.subRepo.Upsert(ctx, sub); err != nil {
		return subscription.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe removes a subscription and every clock-state row it owns.
// Removing an unknown endpoint is a no-op, not an error.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, endpoint string) error {
	ctx, span := startUsecaseSpan(ctx, "SubscriptionService.Unsubscribe")
	defer span.End()

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidInput)
	}

	if err := s.stateRepo.DeleteByEndpoint(ctx, endpoint); err != nil {
		return fmt.Errorf("delete clock states: %w", err)
	}
	if err := s.subRepo.Delete(ctx, endpoint); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func normalizeDraftIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
