package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/linkgate/linkgate/internal/analytics"
	"github.com/linkgate/linkgate/internal/keys"
	"github.com/linkgate/linkgate/internal/messaging"
	"github.com/linkgate/linkgate/internal/shortener"
	"go.uber.org/zap"
)

// Placeholder owner scoping when the caller does not identify itself.
const (
	defaultOwnerID = "OWNER_ID"
	defaultGuestID = "GUEST_ID"
)

// cookieMaxAge matches the issued key's two minute expiry.
const cookieMaxAge = 120

// LinkHandler handles shorten and resolve operations.
type LinkHandler struct {
	store               shortener.Repository
	provider            keys.Provider
	baseURL             string
	publishLinkCreated  messaging.Publish[analytics.LinkCreatedEvent]
	publishLinkResolved messaging.Publish[analytics.LinkResolvedEvent]
	logger              *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	store shortener.Repository,
	provider keys.Provider,
	baseURL string,
	publishLinkCreated messaging.Publish[analytics.LinkCreatedEvent],
	publishLinkResolved messaging.Publish[analytics.LinkResolvedEvent],
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		store:               store,
		provider:            provider,
		baseURL:             baseURL,
		publishLinkCreated:  publishLinkCreated,
		publishLinkResolved: publishLinkResolved,
		logger:              logger,
	}
}

// Shorten validates the request, rotates the client's access key, creates
// the short link and hands both back. The namespace rate limit has already
// been checked by middleware before this runs.
func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	if req.Body.URL == "" {
		return nil, huma.Error400BadRequest("URL is required and must be a string")
	}

	if req.Body.Tier == "" {
		return nil, huma.Error400BadRequest("Tier is required and must be a string")
	}

	// Tier is parsed before any key is issued: an invalid tier must leave
	// no trace at the provider or in the store.
	tier, length, err := shortener.ParseTier(req.Body.Tier)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	ownerID := req.Body.OwnerID
	if ownerID == "" {
		ownerID = defaultOwnerID
	}

	guestID := req.Body.GuestID
	if guestID == "" {
		guestID = defaultGuestID
	}

	// Rotation: revoke whatever key the client still holds. Best effort,
	// a failed delete never blocks issuing the replacement.
	if req.OldKey != "" {
		if err := h.provider.DeleteKey(ctx, req.OldKey); err != nil {
			h.logger.Warn("failed to delete previous access key", zap.Error(err))
		}
	}

	key, err := h.provider.CreateKey(ctx, keys.CreateKeyParams{
		OwnerID: ownerID,
		GuestID: guestID,
	})
	if err != nil {
		var providerErr *keys.ProviderError
		if errors.As(err, &providerErr) {
			return nil, huma.Error400BadRequest(providerErr.Message)
		}

		h.logger.Error("key creation failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("Internal server error. Please try again later")
	}

	code, err := h.store.CreateLink(ctx, req.Body.URL, length)
	if err != nil {
		h.logger.Error("failed to save short link", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to save url")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		ID:          uuid.NewString(),
		Code:        code,
		OriginalURL: req.Body.URL,
		Tier:        string(tier),
		OwnerID:     ownerID,
		GuestID:     guestID,
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
		CreatedAt:   time.Now(),
	}

	if err := h.publishLinkCreated(event); err != nil {
		h.logger.Error("failed to publish link created event",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	resp := &ShortenResponse{}
	resp.Body.ShortURL = fmt.Sprintf("%s/api/%s", h.baseURL, code)
	resp.Body.Key = key.Value
	resp.Headers.SetCookie = []http.Cookie{{
		Name:     credentialCookie,
		Value:    key.Value,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
	}}

	return resp, nil
}
