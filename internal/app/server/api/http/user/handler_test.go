package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/jaswdr/faker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/server/api/http/middleware/auth"
	"voicedrop/internal/domain/session"
	"voicedrop/internal/domain/user"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUsers) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUsers) Find(ctx context.Context, id int) (user.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Error(1)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Create(ctx context.Context, userID int) (session.Identity, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(session.Identity), args.Error(1)
}

func (m *MockSessions) Validate(ctx context.Context, token string) (session.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(session.Identity), args.Error(1)
}

func (m *MockSessions) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

var testCookie = auth.Cookie{Name: "session", Secure: true, TTL: time.Hour}

func setup(t *testing.T) (humatest.TestAPI, *MockUsers, *MockSessions) {
	_, api := humatest.New(t)
	users := new(MockUsers)
	sessions := new(MockSessions)

	a := auth.New(api, sessions, testCookie, slog.Default())
	h := NewHandler(users, sessions, testCookie, slog.Default(),
		huma.Middlewares{}, huma.Middlewares{a.Optional()})
	h.SetupRoutes(api)

	return api, users, sessions
}

func TestHandler_Register(t *testing.T) {
	fake := faker.New()
	req := user.RegisterRequest{
		Username: "alice",
		Email:    fake.Internet().Email(),
		Password: fake.Internet().Password(),
	}

	t.Run("created with session cookie", func(t *testing.T) {
		api, users, sessions := setup(t)
		users.On("Register", mock.Anything, req).
			Return(user.User{ID: 1, Username: "alice", Email: req.Email}, nil)
		sessions.On("Create", mock.Anything, 1).
			Return(session.Identity{Token: "tok", UserID: 1}, nil)

		resp := api.Post("/register", req)

		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Contains(t, resp.Body.String(), `"username":"alice"`)
		assert.Contains(t, resp.Body.String(), fmt.Sprintf(`"email":%q`, req.Email))
		assert.NotContains(t, resp.Body.String(), "password")

		cookie := resp.Header().Get("Set-Cookie")
		assert.Contains(t, cookie, "session=tok")
		assert.Contains(t, cookie, "HttpOnly")
		assert.Contains(t, cookie, "Secure")
		assert.Contains(t, cookie, "SameSite=None")
		assert.Contains(t, cookie, "Max-Age=3600")
	})

	t.Run("conflicts", func(t *testing.T) {
		for _, e := range []error{user.ErrEmailTaken, user.ErrUsernameTaken} {
			api, users, _ := setup(t)
			users.On("Register", mock.Anything, req).Return(user.User{}, e)

			resp := api.Post("/register", req)
			assert.Equal(t, http.StatusConflict, resp.Code)
			assert.Contains(t, resp.Body.String(), e.Error())
			assert.Empty(t, resp.Header().Get("Set-Cookie"))
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		api, users, _ := setup(t)
		users.On("Register", mock.Anything, mock.Anything).
			Return(user.User{}, fmt.Errorf("%w: username must be at least 3 characters", user.ErrInvalidInput))

		resp := api.Post("/register", user.RegisterRequest{Username: "al", Email: req.Email, Password: "x"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "at least 3 characters")
	})

	t.Run("missing field rejected before the service", func(t *testing.T) {
		api, users, _ := setup(t)

		resp := api.Post("/register", map[string]string{"email": req.Email})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("session store failure", func(t *testing.T) {
		api, users, sessions := setup(t)
		users.On("Register", mock.Anything, req).Return(user.User{ID: 2}, nil)
		sessions.On("Create", mock.Anything, 2).Return(session.Identity{}, errors.New("db down"))

		resp := api.Post("/register", req)
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api, users, sessions := setup(t)
		users.On("Authenticate", mock.Anything, "a@example.com", "secret").
			Return(user.User{ID: 5, Username: "alice", Email: "a@example.com"}, nil)
		sessions.On("Create", mock.Anything, 5).Return(session.Identity{Token: "tok5", UserID: 5}, nil)

		resp := api.Post("/login", user.LoginRequest{Email: "a@example.com", Password: "secret"})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"id":5`)
		assert.Contains(t, resp.Header().Get("Set-Cookie"), "session=tok5")
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		api, users, _ := setup(t)
		users.On("Authenticate", mock.Anything, "unknown@example.com", "secret").
			Return(user.User{}, user.ErrInvalidCredentials)
		users.On("Authenticate", mock.Anything, "a@example.com", "wrong").
			Return(user.User{}, user.ErrInvalidCredentials)

		unknown := api.Post("/login", user.LoginRequest{Email: "unknown@example.com", Password: "secret"})
		wrong := api.Post("/login", user.LoginRequest{Email: "a@example.com", Password: "wrong"})

		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, unknown.Code, wrong.Code)
		assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		api, users, _ := setup(t)
		users.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
			Return(user.User{}, errors.New("db down"))

		resp := api.Post("/login", user.LoginRequest{Email: "a@example.com", Password: "x"})
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestHandler_Logout(t *testing.T) {
	t.Run("revokes the session", func(t *testing.T) {
		api, _, sessions := setup(t)
		sessions.On("Validate", mock.Anything, "tok").Return(session.Identity{Token: "tok", UserID: 1}, nil)
		sessions.On("Revoke", mock.Anything, "tok").Return(nil)

		resp := api.Post("/logout", "Cookie: session=tok")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "Logged out successfully")
		cookie := resp.Header().Get("Set-Cookie")
		assert.True(t, strings.HasPrefix(cookie, "session="))
		assert.Contains(t, cookie, "Max-Age=0")
		sessions.AssertExpectations(t)
	})

	t.Run("anonymous logout still clears the cookie", func(t *testing.T) {
		api, _, sessions := setup(t)

		resp := api.Get("/logout")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Header().Get("Set-Cookie"), "Max-Age=0")
		sessions.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})
}

func TestHandler_Status(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		api, _, _ := setup(t)

		resp := api.Get("/auth/status")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"authenticated":false`)
		assert.NotContains(t, resp.Body.String(), `"user"`)
	})

	t.Run("authenticated and idempotent", func(t *testing.T) {
		api, users, sessions := setup(t)
		sessions.On("Validate", mock.Anything, "tok").Return(session.Identity{Token: "tok", UserID: 9}, nil)
		users.On("Find", mock.Anything, 9).Return(user.User{ID: 9, Username: "bob", Email: "b@example.com"}, nil)

		first := api.Get("/auth/status", "Cookie: session=tok")
		second := api.Get("/auth/status", "Cookie: session=tok")

		require.Equal(t, http.StatusOK, first.Code)
		assert.Contains(t, first.Body.String(), `"authenticated":true`)
		assert.Contains(t, first.Body.String(), `"username":"bob"`)
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("store failure degrades to anonymous", func(t *testing.T) {
		api, users, sessions := setup(t)
		sessions.On("Validate", mock.Anything, "tok").Return(session.Identity{Token: "tok", UserID: 9}, nil)
		users.On("Find", mock.Anything, 9).Return(user.User{}, errors.New("db down"))

		resp := api.Get("/auth/status", "Cookie: session=tok")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"authenticated":false`)
	})
}
