package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"voicedrop/internal/domain/session"
)

type Auth struct {
	api     huma.API
	session session.Servicer
	cookie  Cookie
	log     *slog.Logger
}

func New(api huma.API, session session.Servicer, cookie Cookie, log *slog.Logger) *Auth {
	return &Auth{
		api:     api,
		session: session,
		cookie:  cookie,
		log:     log.With("component", "auth_middleware"),
	}
}

type contextKey string

const identityKey contextKey = "identity"

// Middleware admits only requests carrying a valid session cookie.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := a.cookie.Token(ctx.Header("Cookie"))

		id, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidSession) {
				_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized")
				return
			}
			a.log.Error("session lookup failed", "error", err)
			_ = huma.WriteErr(a.api, ctx, http.StatusInternalServerError, "session store unavailable")
			return
		}

		next(huma.WithContext(ctx, WithIdentity(ctx.Context(), id)))
	}
}

// Optional attaches the identity when the cookie is valid and lets every
// request through. Lookup failures are logged and treated as anonymous.
func (a *Auth) Optional() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := a.cookie.Token(ctx.Header("Cookie"))
		if token == "" {
			next(ctx)
			return
		}

		id, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrInvalidSession) {
				a.log.Error("session lookup failed", "error", err)
			}
			next(ctx)
			return
		}

		next(huma.WithContext(ctx, WithIdentity(ctx.Context(), id)))
	}
}

func WithIdentity(ctx context.Context, id session.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey).(session.Identity)
	return id, ok
}
