package recording

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/server/api/http/middleware/auth"
	"voicedrop/internal/domain/recording"
	"voicedrop/internal/domain/session"
	"voicedrop/internal/domain/user"
	"voicedrop/internal/infrastructure/staging"
)

const (
	maxBytes   = 16
	stagingDir = "/staging"
)

type memRepository struct {
	mu   sync.Mutex
	recs []recording.Recording
	err  error
}

func (r *memRepository) Insert(_ context.Context, rec *recording.Recording) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.recs = append(r.recs, *rec)
	return nil
}

func (r *memRepository) ListByOwner(_ context.Context, owner string) ([]recording.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recording.Recording
	for _, rec := range r.recs {
		if rec.Owner == owner {
			out = append(out, rec)
		}
	}
	return out, r.err
}

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

// staticSessions accepts exactly one token.
type staticSessions struct {
	token  string
	userID int
}

func (s staticSessions) Create(context.Context, int) (session.Identity, error) {
	return session.Identity{}, errors.New("not supported")
}

func (s staticSessions) Validate(_ context.Context, token string) (session.Identity, error) {
	if token == "" || token != s.token {
		return session.Identity{}, session.ErrInvalidSession
	}
	return session.Identity{Token: token, UserID: s.userID}, nil
}

func (s staticSessions) Revoke(context.Context, string) error { return nil }

type fixture struct {
	api   humatest.TestAPI
	repo  *memRepository
	users *MockUsers
	fs    afero.Fs
}

func setup(t *testing.T) *fixture {
	_, api := humatest.New(t)

	fs := afero.NewMemMapFs()
	area, err := staging.New(fs, stagingDir)
	require.NoError(t, err)

	repo := &memRepository{}
	users := new(MockUsers)
	svc := recording.NewService(repo, area, maxBytes, slog.Default())

	a := auth.New(api, staticSessions{token: "tok", userID: 1},
		auth.Cookie{Name: "session", Secure: true, TTL: time.Hour}, slog.Default())
	NewHandler(svc, users, slog.Default(), huma.Middlewares{}, huma.Middlewares{a.Middleware()}).
		SetupRoutes(api)

	return &fixture{api: api, repo: repo, users: users, fs: fs}
}

type part struct {
	field       string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="recording.webm"`, p.field))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, "Content-Type: " + w.FormDataContentType()
}

func (f *fixture) upload(t *testing.T, fields map[string]string, parts ...part) int {
	body, ct := multipartBody(t, fields, parts...)
	resp := f.api.Post("/upload-recording", ct, body)
	return resp.Code
}

func (f *fixture) assertStagingEmpty(t *testing.T) {
	entries, err := afero.ReadDir(f.fs, stagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandler_Upload(t *testing.T) {
	audio := func(n int) part {
		return part{field: "audio", contentType: "audio/webm", data: bytes.Repeat([]byte{0xAB}, n)}
	}

	tests := []struct {
		name       string
		fields     map[string]string
		parts      []part
		wantStatus int
		wantStored int
	}{
		{
			name:       "exactly at the ceiling",
			fields:     map[string]string{"targetUsername": "Alice"},
			parts:      []part{audio(maxBytes)},
			wantStatus: http.StatusOK,
			wantStored: 1,
		},
		{
			name:       "one byte over the ceiling",
			fields:     map[string]string{"targetUsername": "alice"},
			parts:      []part{audio(maxBytes + 1)},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "username alias",
			fields:     map[string]string{"username": "alice"},
			parts:      []part{audio(4)},
			wantStatus: http.StatusOK,
			wantStored: 1,
		},
		{
			name:       "not audio",
			fields:     map[string]string{"targetUsername": "alice"},
			parts:      []part{{field: "audio", contentType: "image/png", data: []byte("png")}},
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "missing audio",
			fields:     map[string]string{"targetUsername": "alice"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "two audio parts",
			fields:     map[string]string{"targetUsername": "alice"},
			parts:      []part{audio(2), audio(3)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty target",
			fields:     map[string]string{"targetUsername": "  "},
			parts:      []part{audio(2)},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)

			status := f.upload(t, tt.fields, tt.parts...)

			assert.Equal(t, tt.wantStatus, status)
			assert.Len(t, f.repo.recs, tt.wantStored)
			f.assertStagingEmpty(t)
		})
	}
}

func TestHandler_Upload_StorageFailure(t *testing.T) {
	f := setup(t)
	f.repo.err = errors.New("db down")

	status := f.upload(t, map[string]string{"targetUsername": "alice"},
		part{field: "audio", contentType: "audio/webm", data: []byte("abc")})

	assert.Equal(t, http.StatusInternalServerError, status)
	f.assertStagingEmpty(t)
}

func TestHandler_Upload_ResponseBody(t *testing.T) {
	f := setup(t)
	body, ct := multipartBody(t, map[string]string{"targetUsername": "alice"},
		part{field: "audio", contentType: "audio/webm", data: []byte("abc")})

	resp := f.api.Post("/upload-recording", ct, body)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Successfully Sent!")
}

func TestHandler_List(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		f := setup(t)
		resp := f.api.Get("/recordings")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		resp = f.api.Get("/recordings", "Cookie: session=stale")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("round trips bytes newest first", func(t *testing.T) {
		f := setup(t)
		f.users.On("Find", mock.Anything, 1).Return(user.User{ID: 1, Username: "Alice"}, nil)

		older := []byte{0x00, 0x01, 0xFF, 0xFE}
		newer := []byte("ogg-bytes")
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		require.Equal(t, http.StatusOK, f.upload(t,
			map[string]string{"targetUsername": "alice", "timestamp": base.Format(time.RFC3339), "duration": "1.5"},
			part{field: "audio", contentType: "audio/webm", data: older}))
		require.Equal(t, http.StatusOK, f.upload(t,
			map[string]string{"targetUsername": "ALICE", "timestamp": fmt.Sprint(base.Add(time.Minute).UnixMilli())},
			part{field: "audio", contentType: "audio/ogg", data: newer}))
		require.Equal(t, http.StatusOK, f.upload(t,
			map[string]string{"targetUsername": "bob"},
			part{field: "audio", contentType: "audio/webm", data: []byte("x")}))

		resp := f.api.Get("/recordings", "Cookie: session=tok")
		require.Equal(t, http.StatusOK, resp.Code)

		var out ListResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		require.Len(t, out.Recordings, 2)

		got0, err := base64.StdEncoding.DecodeString(out.Recordings[0].Audio)
		require.NoError(t, err)
		got1, err := base64.StdEncoding.DecodeString(out.Recordings[1].Audio)
		require.NoError(t, err)

		assert.Equal(t, newer, got0)
		assert.Equal(t, "audio/ogg", out.Recordings[0].ContentType)
		assert.Equal(t, older, got1)
		assert.Equal(t, 1.5, out.Recordings[1].Duration)
		assert.True(t, out.Recordings[0].CreatedAt.After(out.Recordings[1].CreatedAt))
	})

	t.Run("vanished user", func(t *testing.T) {
		f := setup(t)
		f.users.On("Find", mock.Anything, 1).Return(user.User{}, user.ErrNotFound)

		resp := f.api.Get("/recordings", "Cookie: session=tok")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
