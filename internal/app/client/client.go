package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/client/capture"
	"voicedrop/internal/app/client/config"
	"voicedrop/internal/app/client/playback"
	"voicedrop/internal/domain/user"
)

// ErrNotLoggedIn is returned by inbox operations without a session.
var ErrNotLoggedIn = errors.New("not logged in, run: voicedrop auth login")

// App wires configuration, the API client, the inbox cache and the two
// media controllers for the CLI.
type App struct {
	config     *config.Config
	log        *slog.Logger
	fs         afero.Fs
	httpClient *HTTPClient
	storage    Storage
	state      *AppState
	mu         sync.Mutex
}

// AppState is persisted between invocations.
type AppState struct {
	Username  string    `json:"username"`
	LastFetch time.Time `json:"last_fetch"`
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}

	var storage Storage
	sqliteStorage, err := NewSQLiteStorage(cfg.CachePath)
	if err != nil {
		log.Warn("inbox cache unavailable, using memory", "error", err)
		storage = NewMemoryStorage()
	} else {
		storage = sqliteStorage
	}

	fs := afero.NewOsFs()
	return newApp(cfg, fs, NewHTTPClient(cfg, fs, log), storage, log), nil
}

func newApp(cfg *config.Config, fs afero.Fs, httpClient *HTTPClient, storage Storage, log *slog.Logger) *App {
	app := &App{
		config:     cfg,
		log:        log,
		fs:         fs,
		httpClient: httpClient,
		storage:    storage,
	}

	state, err := app.loadState()
	if err != nil {
		log.Warn("failed to load client state", "error", err)
		state = &AppState{}
	}
	app.state = state
	return app
}

func (a *App) statePath() string {
	return filepath.Join(a.config.ConfigDir, "state.json")
}

func (a *App) loadState() (*AppState, error) {
	data, err := afero.ReadFile(a.fs, a.statePath())
	if errors.Is(err, os.ErrNotExist) {
		return &AppState{}, nil
	}
	if err != nil {
		return nil, err
	}

	var state AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (a *App) saveStateLocked() error {
	data, err := json.MarshalIndent(a.state, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(a.fs, a.statePath(), data, 0o600)
}

func (a *App) updateState(fn func(*AppState)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.state)
	if err := a.saveStateLocked(); err != nil {
		a.log.Warn("failed to save client state", "error", err)
	}
}

// Username of the last logged-in account, possibly stale.
func (a *App) Username() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Username
}

// LastFetch is when the inbox cache was last refreshed from the server.
func (a *App) LastFetch() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.LastFetch
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) CheckConnection(ctx context.Context) error {
	return a.httpClient.HealthCheck(ctx)
}

func (a *App) Register(ctx context.Context, req user.RegisterRequest) (user.Public, error) {
	u, err := a.httpClient.Register(ctx, req)
	if err != nil {
		return user.Public{}, err
	}
	a.updateState(func(s *AppState) { s.Username = u.Username })
	a.log.Info("registered", "username", u.Username)
	return u, nil
}

func (a *App) Login(ctx context.Context, email, password string) (user.Public, error) {
	u, err := a.httpClient.Login(ctx, email, password)
	if err != nil {
		return user.Public{}, err
	}
	a.updateState(func(s *AppState) { s.Username = u.Username })
	a.log.Info("logged in", "username", u.Username)
	return u, nil
}

// Logout ends the session. The cached inbox is kept for offline playback
// by the same account.
func (a *App) Logout(ctx context.Context) error {
	err := a.httpClient.Logout(ctx)
	a.updateState(func(s *AppState) { s.Username = "" })
	return err
}

func (a *App) Status(ctx context.Context) (AuthStatus, error) {
	return a.httpClient.Status(ctx)
}

// Inbox fetches the recordings addressed to the logged-in user and
// refreshes the cache. With offline set, or when the server cannot be
// reached, the cached copy is returned instead.
func (a *App) Inbox(ctx context.Context, offline bool) ([]playback.Item, bool, error) {
	if !offline {
		items, err := a.httpClient.ListRecordings(ctx)
		switch {
		case err == nil:
			a.cacheInbox(ctx, items)
			return items, false, nil
		case errors.Is(err, ErrNetwork):
			a.log.Warn("server unreachable, using cached inbox", "error", err)
		case StatusCode(err) == 401:
			return nil, false, ErrNotLoggedIn
		default:
			return nil, false, err
		}
	}

	owner := a.Username()
	if owner == "" {
		return nil, true, ErrNotLoggedIn
	}
	items, err := a.storage.LoadInbox(owner)
	if err != nil {
		return nil, true, fmt.Errorf("load cached inbox: %w", err)
	}
	return items, true, nil
}

func (a *App) cacheInbox(ctx context.Context, items []playback.Item) {
	owner := a.Username()
	if owner == "" {
		st, err := a.httpClient.Status(ctx)
		if err != nil || st.User == nil {
			return
		}
		owner = st.User.Username
		a.updateState(func(s *AppState) { s.Username = owner })
	}

	if err := a.storage.SaveInbox(owner, items); err != nil {
		a.log.Warn("failed to cache inbox", "error", err)
		return
	}
	a.updateState(func(s *AppState) { s.LastFetch = time.Now().UTC() })
}

// NewRecorder returns a capture controller bound to the configured device
// and uploading through the API client.
func (a *App) NewRecorder() *capture.Controller {
	device := capture.NewExecDevice(a.config.RecordCommand, a.config.RecordType)
	return capture.NewController(device, a.httpClient, a.fs, a.log)
}

// NewPlayer returns a playback controller for the configured player.
func (a *App) NewPlayer() *playback.Controller {
	return playback.NewController(playback.NewExecPlayer(a.config.PlayCommand), a.fs, a.log)
}

func (a *App) Close() error {
	return a.storage.Close()
}
