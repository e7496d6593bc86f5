package user

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/server/api/http/middleware/auth"
	"voicedrop/internal/domain/session"
	"voicedrop/internal/domain/user"
)

type Handler struct {
	service    user.Servicer
	session    session.Servicer
	cookie     auth.Cookie
	log        *slog.Logger
	middleware huma.Middlewares
	optional   huma.Middlewares
}

// NewHandler wires the account operations. middleware guards register and
// login; optional additionally resolves an existing session for logout and
// status.
func NewHandler(service user.Servicer, session session.Servicer, cookie auth.Cookie, log *slog.Logger,
	middleware, optional huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    session,
		cookie:     cookie,
		log:        log.With("component", "user_handler"),
		middleware: middleware,
		optional:   optional,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.logoutOp(), h.logout)
	huma.Register(api, h.logoutGetOp(), h.logout)
	huma.Register(api, h.statusOp(), h.status)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*userOutput, error) {
	u, err := h.service.Register(ctx, input.Body)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken), errors.Is(err, user.ErrUsernameTaken):
			return nil, huma.Error409Conflict(err.Error())
		case errors.Is(err, user.ErrInvalidInput):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		h.log.Error("register failed", "error", err)
		return nil, huma.Error500InternalServerError("registration failed")
	}

	return h.startSession(ctx, u)
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*userOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			return nil, huma.Error401Unauthorized("Invalid credentials")
		}
		h.log.Error("login failed", "error", err)
		return nil, huma.Error500InternalServerError("login failed")
	}

	return h.startSession(ctx, u)
}

func (h *Handler) startSession(ctx context.Context, u user.User) (*userOutput, error) {
	id, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("create session failed", "user_id", u.ID, "error", err)
		return nil, huma.Error500InternalServerError("could not start session")
	}

	return &userOutput{
		SetCookie: h.cookie.Issue(id.Token),
		Body:      u.Public(),
	}, nil
}

func (h *Handler) logout(ctx context.Context, _ *struct{}) (*logoutOutput, error) {
	if id, ok := auth.FromContext(ctx); ok {
		if err := h.session.Revoke(ctx, id.Token); err != nil {
			h.log.Error("revoke session failed", "user_id", id.UserID, "error", err)
			return nil, huma.Error500InternalServerError("logout failed")
		}
	}

	return &logoutOutput{
		SetCookie: h.cookie.Expire(),
		Body:      MessageResponse{Message: "Logged out successfully"},
	}, nil
}

// status never fails; anything short of a resolvable user reads as anonymous.
func (h *Handler) status(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return &statusOutput{}, nil
	}

	u, err := h.service.Find(ctx, id.UserID)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.Error("status lookup failed", "user_id", id.UserID, "error", err)
		}
		return &statusOutput{}, nil
	}

	pub := u.Public()
	return &statusOutput{
		Body: StatusResponse{Authenticated: true, User: &pub},
	}, nil
}
