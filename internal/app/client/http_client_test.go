package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/client/capture"
	"voicedrop/internal/app/client/config"
	"voicedrop/internal/domain/user"
)

const tokenPath = "/cfg/session"

func newTestClient(t *testing.T, h http.Handler) (*HTTPClient, afero.Fs) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	fs := afero.NewMemMapFs()
	cfg := &config.Config{
		ServerURL:      srv.URL,
		TokenPath:      tokenPath,
		CookieName:     "session",
		RequestTimeout: 5 * time.Second,
	}
	return NewHTTPClient(cfg, fs, slog.Default()), fs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestHTTPClient_LoginStoresCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var req user.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ann@example.com", req.Email)
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok123", Path: "/"})
		writeJSON(w, http.StatusOK, user.Public{ID: 7, Email: req.Email, Username: "ann"})
	})
	mux.HandleFunc("GET /auth/status", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if err != nil {
			writeJSON(w, http.StatusOK, AuthStatus{})
			return
		}
		assert.Equal(t, "tok123", c.Value)
		writeJSON(w, http.StatusOK, AuthStatus{Authenticated: true, User: &user.Public{ID: 7, Username: "ann"}})
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	})

	c, fs := newTestClient(t, mux)
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Authenticated)

	u, err := c.Login(ctx, "ann@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)

	data, err := afero.ReadFile(fs, tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "tok123", string(data))

	st, err = c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, "ann", st.User.Username)

	require.NoError(t, c.Logout(ctx))
	exists, err := afero.Exists(fs, tokenPath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHTTPClient_ProblemErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"title":"Conflict","status":409,"detail":"email already registered"}`)
	})
	mux.HandleFunc("GET /recordings", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})

	c, _ := newTestClient(t, mux)

	_, err := c.Register(context.Background(), user.RegisterRequest{Username: "ann", Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, StatusCode(err))
	assert.Contains(t, err.Error(), "email already registered")

	_, err = c.ListRecordings(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestHTTPClient_Upload(t *testing.T) {
	recorded := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	audio := []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload-recording", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "bob", r.FormValue("targetUsername"))
		assert.Equal(t, "2.500", r.FormValue("duration"))
		assert.Equal(t, recorded.Format(time.RFC3339Nano), r.FormValue("timestamp"))

		files := r.MultipartForm.File["audio"]
		require.Len(t, files, 1)
		assert.Equal(t, "audio/webm", files[0].Header.Get("Content-Type"))
		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		got, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, audio, got)

		writeJSON(w, http.StatusOK, "Successfully Sent!")
	})

	c, _ := newTestClient(t, mux)

	var uploader capture.Uploader = c
	err := uploader.Upload(context.Background(), capture.Submission{
		Target:      "bob",
		Audio:       audio,
		ContentType: "audio/webm",
		Duration:    2500 * time.Millisecond,
		Timestamp:   recorded,
	})
	require.NoError(t, err)
}

func TestHTTPClient_ListRecordings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recordings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"$schema":"x","recordings":[`+
			`{"id":"b","audio":"AQI=","created_at":"2026-01-02T00:00:00Z","content_type":"audio/webm","duration":3},`+
			`{"id":"a","audio":"AwQ=","created_at":"2026-01-01T00:00:00Z","content_type":"audio/ogg","duration":1}]}`)
	})

	c, _ := newTestClient(t, mux)

	items, err := c.ListRecordings(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "AQI=", items[0].Audio)
	assert.Equal(t, 3.0, items[0].Duration)
	assert.Equal(t, "audio/ogg", items[1].ContentType)
}

func TestHTTPClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := &config.Config{ServerURL: url, TokenPath: tokenPath, CookieName: "session", RequestTimeout: time.Second}
	c := NewHTTPClient(cfg, afero.NewMemMapFs(), slog.Default())

	err := c.HealthCheck(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
	assert.Zero(t, StatusCode(err))
}

func TestFileExtension(t *testing.T) {
	assert.NotEmpty(t, FileExtension("audio/webm;codecs=opus"))
	assert.Equal(t, ".x-custom", FileExtension("audio/x-custom"))
	assert.Empty(t, FileExtension(""))
}
