package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/exp/slog"

	"voicedrop/internal/app/client/capture"
	"voicedrop/internal/app/client/config"
	"voicedrop/internal/app/client/playback"
	"voicedrop/internal/domain/user"
)

// ErrNetwork wraps transport failures: the server was never reached or the
// connection broke before a response arrived.
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx answer decoded from the server's problem document.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, msg)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type AuthStatus struct {
	Authenticated bool         `json:"authenticated"`
	User          *user.Public `json:"user,omitempty"`
}

// HTTPClient talks to the voicedrop server and keeps the session cookie in
// a token file between invocations.
type HTTPClient struct {
	client    *http.Client
	fs        afero.Fs
	log       *slog.Logger
	baseURL   string
	cookie    string
	tokenPath string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, fs afero.Fs, log *slog.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	return &HTTPClient{
		client:    client,
		fs:        fs,
		log:       log.With("component", "http_client"),
		baseURL:   cfg.ServerURL,
		cookie:    cfg.CookieName,
		tokenPath: cfg.TokenPath,
		userAgent: "voicedrop-cli/1.0",
	}
}

func (h *HTTPClient) HealthCheck(ctx context.Context) error {
	resp, err := h.do(ctx, http.MethodGet, "/api/v1/health", nil, "")
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *HTTPClient) Register(ctx context.Context, req user.RegisterRequest) (user.Public, error) {
	var out user.Public
	err := h.doJSON(ctx, http.MethodPost, "/register", req, &out)
	return out, err
}

func (h *HTTPClient) Login(ctx context.Context, email, password string) (user.Public, error) {
	var out user.Public
	err := h.doJSON(ctx, http.MethodPost, "/login", user.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Logout ends the server session and forgets the local token. The token
// is dropped even when the server cannot be reached.
func (h *HTTPClient) Logout(ctx context.Context) error {
	err := h.doJSON(ctx, http.MethodPost, "/logout", nil, nil)
	if rmErr := h.clearToken(); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

func (h *HTTPClient) Status(ctx context.Context) (AuthStatus, error) {
	var out AuthStatus
	err := h.doJSON(ctx, http.MethodGet, "/auth/status", nil, &out)
	return out, err
}

// Upload sends a recording to s.Target. It implements capture.Uploader.
func (h *HTTPClient) Upload(ctx context.Context, s capture.Submission) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"targetUsername", s.Target},
		{"duration", strconv.FormatFloat(s.Duration.Seconds(), 'f', 3, 64)},
	}
	if !s.Timestamp.IsZero() {
		fields = append(fields, [2]string{"timestamp", s.Timestamp.UTC().Format(time.RFC3339Nano)})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, "recording"+FileExtension(s.ContentType)))
	header.Set("Content-Type", s.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(s.Audio); err != nil {
		return fmt.Errorf("write audio part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	resp, err := h.do(ctx, http.MethodPost, "/upload-recording", &body, mw.FormDataContentType())
	if err != nil {
		return err
	}

	var msg string
	if err := h.parseResponse(resp, &msg); err != nil {
		return err
	}
	h.log.Debug("recording sent", "target", s.Target, "bytes", len(s.Audio), "message", msg)
	return nil
}

// ListRecordings returns the caller's inbox, newest first.
func (h *HTTPClient) ListRecordings(ctx context.Context) ([]playback.Item, error) {
	var out struct {
		Recordings []playback.Item `json:"recordings"`
	}
	if err := h.doJSON(ctx, http.MethodGet, "/recordings", nil, &out); err != nil {
		return nil, err
	}
	return out.Recordings, nil
}

func (h *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := h.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, out)
}

func (h *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, err := h.loadToken(); err != nil {
		h.log.Warn("failed to read session token", "error", err)
	} else if token != "" {
		req.AddCookie(&http.Cookie{Name: h.cookie, Value: token})
	}

	h.log.Debug("sending request", "method", method, "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}

	if err := h.storeCookie(resp); err != nil {
		h.log.Warn("failed to persist session token", "error", err)
	}
	return resp, nil
}

func (h *HTTPClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	h.log.Debug("received response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode >= 400 {
		apiErr := &APIError{}
		if err := json.Unmarshal(body, apiErr); err != nil {
			apiErr.Detail = strings.TrimSpace(string(body))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (h *HTTPClient) storeCookie(resp *http.Response) error {
	for _, c := range resp.Cookies() {
		if c.Name != h.cookie {
			continue
		}
		if c.MaxAge < 0 || c.Value == "" {
			return h.clearToken()
		}
		return afero.WriteFile(h.fs, h.tokenPath, []byte(c.Value), 0o600)
	}
	return nil
}

func (h *HTTPClient) loadToken() (string, error) {
	data, err := afero.ReadFile(h.fs, h.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (h *HTTPClient) clearToken() error {
	if err := h.fs.Remove(h.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session token: %w", err)
	}
	return nil
}

// FileExtension guesses a file extension for an audio content type.
func FileExtension(contentType string) string {
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(base, "/"); ok && sub != "" {
		return "." + sub
	}
	return ""
}
