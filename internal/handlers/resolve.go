package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/linkgate/linkgate/internal/analytics"
	"github.com/linkgate/linkgate/internal/keys"
	"github.com/linkgate/linkgate/internal/shortener"
	"go.uber.org/zap"
)

// noCache disables caching on redirect responses so an expired link is
// never served from a browser or proxy cache.
const noCache = "no-cache, no-store, must-revalidate"

// Resolve validates the client's access key, then redirects to the original
// URL. The validator's outcome set is matched exhaustively; an expired key
// additionally deletes the mapping and clears the credential.
func (h *LinkHandler) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	if req.Code == "" {
		return nil, huma.Error400BadRequest("Short code is required")
	}

	if req.Key == "" {
		return nil, huma.Error400BadRequest("API key is required")
	}

	outcome := keys.Validate(ctx, h.provider, req.Key)

	switch outcome.Status {
	case keys.StatusInvalid:
		return nil, huma.Error401Unauthorized("Invalid API key")

	case keys.StatusRateLimited:
		return nil, huma.Error429TooManyRequests("Too many requests. Please try again later")

	case keys.StatusProviderError:
		h.logger.Error("key validation provider error", zap.String("detail", outcome.Detail))

		return nil, huma.Error500InternalServerError("Internal server error. Please try again later")

	case keys.StatusUnknownError:
		h.logger.Error("key validation unknown error", zap.String("detail", outcome.Detail))

		return nil, huma.Error500InternalServerError("An unexpected error occurred")

	case keys.StatusExpired:
		return h.expireLink(ctx, req.Code)

	case keys.StatusValid:
		return h.redirect(ctx, req.Code)

	default:
		h.logger.Error("unhandled validation status", zap.Stringer("status", outcome.Status))

		return nil, huma.Error500InternalServerError("An unexpected error occurred")
	}
}

// expireLink is the cleanup path: the mapping goes away with the key that
// guarded it, and the client's credential cookie is cleared.
func (h *LinkHandler) expireLink(ctx context.Context, code string) (*ResolveResponse, error) {
	if err := h.store.DeleteLink(ctx, code); err != nil {
		h.logger.Error("failed to delete expired link",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	resp := &ResolveResponse{Status: http.StatusForbidden}
	resp.Body.Message = "The link has expired"
	resp.Headers.SetCookie = []http.Cookie{{
		Name:   credentialCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}}

	return resp, nil
}

func (h *LinkHandler) redirect(ctx context.Context, code string) (*ResolveResponse, error) {
	originalURL, err := h.store.GetOriginalURL(ctx, code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("Short URL not found")
		}

		h.logger.Error("failed to look up short link",
			zap.String("code", code),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to get url")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkResolvedEvent{
		ID:         uuid.NewString(),
		Code:       code,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		ResolvedAt: time.Now(),
	}

	if err := h.publishLinkResolved(event); err != nil {
		h.logger.Error("failed to publish link resolved event",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	resp := &ResolveResponse{Status: http.StatusMovedPermanently}
	resp.Headers.Location = originalURL
	resp.Headers.CacheControl = noCache

	return resp, nil
}
