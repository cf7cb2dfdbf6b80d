package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crowdtune/crowdtune-server/internal/auth"
	"github.com/crowdtune/crowdtune-server/internal/config"
	"github.com/crowdtune/crowdtune-server/internal/service"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

// testEnvelope mirrors the response envelope with typed data.
type testEnvelope[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithRate(t, config.RateLimitConfig{
		WritesPerMinute: 600,
		WriteBurst:      100,
	})
}

func newTestServerWithRate(t *testing.T, rateCfg config.RateLimitConfig) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(filepath.Join(t.TempDir(), "db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewTokenService(
		[]byte("0123456789abcdef0123456789abcdef"),
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)

	authService := service.NewAuthService(st, tokens, logger)
	playlistService := service.NewPlaylistService(st, logger)
	tagService := service.NewTagService(st, logger)

	srv := NewServer(authService, playlistService, tagService, rateCfg, 30*time.Second, logger)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON performs a request against the server. An empty token sends no
// Authorization header; a nil body sends no payload.
func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

// registerUser creates an account and returns its auth response.
func registerUser(t *testing.T, srv *Server, username string) AuthResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": username,
		"password": "correct horse battery staple",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeEnvelope[AuthResponse](t, rec).Data
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope[map[string]string](t, rec)
	require.True(t, envelope.Success)
	require.Equal(t, "healthy", envelope.Data["status"])
}
