package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidnest/internal/config"
	"vidnest/internal/media"
	"vidnest/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:             testSecret,
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLHours:  24,
		Env:                   "test",
		AllowedOrigins:        "http://localhost:5173",
		MediaBackend:          config.MediaBackendLocal,
		MediaLocalDir:         t.TempDir(),
		MediaPublicBaseURL:    "/media",
		MediaMaxUploadMB:      5,
	}
}

// newTestEnv builds a full server over in-memory sqlite, miniredis and a temp media dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return newTestEnvWithRedis(t, rdb)
}

func newTestEnvWithRedis(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	db := testutil.NewTestDB(t)
	store, err := media.NewLocalStore(cfg.MediaLocalDir, cfg.MediaPublicBaseURL)
	require.NoError(t, err)

	s, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)
	return &testEnv{server: s, app: s.NewApp(), db: db}
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	raw, _, err := e.server.tokens.IssueAccess(userID)
	require.NoError(t, err)
	return raw
}

// do sends a JSON request and decodes the response envelope.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}
