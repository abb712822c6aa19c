package httpapi

import (
	"net/http"
	"time"

	"github.com/onclock/draft-alerts/internal/domain/subscription"
)

type subscribeRequest struct {
	Endpoint string               `json:"endpoint" validate:"required,url"`
	Keys     subscribeRequestKeys `json:"keys"`
	Username string               `json:"username"`
	DraftIDs []string             `json:"draft_ids"`
}

type subscribeRequestKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
}

type setDraftsRequest struct {
	Endpoint string   `json:"endpoint" validate:"required,url"`
	DraftIDs []string `json:"draft_ids"`
}

type subscriptionDTO struct {
	Endpoint  string    `json:"endpoint"`
	Username  string    `json:"username,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	DraftIDs  []string  `json:"draft_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type publicKeyDTO struct {
	PublicKey string `json:"public_key"`
}

func subscriptionToDTO(sub subscription.Subscription) subscriptionDTO {
	draftIDs := sub.DraftIDs
	if draftIDs == nil {
		draftIDs = []string{}
	}
	return subscriptionDTO{
		Endpoint:  sub.Endpoint,
		Username:  sub.Username,
		UserID:    sub.UserID,
		DraftIDs:  draftIDs,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}

// GetPublicKey serves the VAPID application server key browsers need for
// pushManager.subscribe.
func (h *Handler) GetPublicKey(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPublicKey")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, publicKeyDTO{PublicKey: h.vapidPublicKey})
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Subscribe")
	defer span.End()

	var req subscribeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	sub, err := h.subscriptionService.Subscribe(ctx, subscription.Subscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
		Username: req.Username,
		DraftIDs: req.DraftIDs,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "subscribe failed", "endpoint", req.Endpoint, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, subscriptionToDTO(sub))
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Unsubscribe")
	defer span.End()

	var req unsubscribeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.subscriptionService.Unsubscribe(ctx, req.Endpoint); err != nil {
		h.logger.WarnContext(ctx, "unsubscribe failed", "endpoint", req.Endpoint, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func (h *Handler) SetDrafts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetDrafts")
	defer span.End()

	var req setDraftsRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	sub, err := h.subscriptionService.SetDrafts(ctx, req.Endpoint, req.DraftIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "set drafts failed", "endpoint", req.Endpoint, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, subscriptionToDTO(sub))
}
