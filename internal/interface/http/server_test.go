package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikichallenge/wikichallenge-server/internal/interface/http/handlers"
	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

type fakeRealtime struct {
	online   int64
	upgrades int
}

func (f *fakeRealtime) ServeWS(w http.ResponseWriter, _ *http.Request) {
	f.upgrades++
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (f *fakeRealtime) OnlineCount(context.Context) int64 { return f.online }

type fakeFeatures map[string]bool

func (f fakeFeatures) Snapshot() map[string]bool { return f }

type pingFunc func(ctx context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func newTestServer(t *testing.T, checks map[string]handlers.HealthCheckFunc) (*Server, *fakeRealtime) {
	t.Helper()
	rt := &fakeRealtime{online: 7}
	checker := handlers.NewCompositeHealthChecker("test")
	for name, fn := range checks {
		checker.AddCheck(name, fn)
	}
	s := NewServer(DefaultConfig(), Dependencies{
		Realtime:      rt,
		Features:      fakeFeatures{"login": true, "dailyChallenge": false},
		HealthChecker: checker,
		Logger:        logger.Nop(),
		AppName:       "wikichallenge",
		Version:       "1.2.3",
	})
	return s, rt
}

func do(t *testing.T, s *Server, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body RootResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "wikichallenge", body.Name)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, map[string]bool{"login": true, "dailyChallenge": false}, body.Features)
	assert.EqualValues(t, 7, body.Online)
	assert.NotEmpty(t, rec.Header().Get(handlers.HeaderRequestID))
}

func TestHealthIsAlwaysAlive(t *testing.T) {
	s, _ := newTestServer(t, map[string]handlers.HealthCheckFunc{
		"postgres": func(context.Context) error { return errors.New("down") },
	})

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alive"`)
}

func TestReady(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		s, _ := newTestServer(t, map[string]handlers.HealthCheckFunc{
			"postgres": handlers.NewPingCheck(pingFunc(func(context.Context) error { return nil })),
			"redis":    handlers.NewPingCheck(pingFunc(func(context.Context) error { return nil })),
		})

		rec := do(t, s, http.MethodGet, "/ready", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body ReadyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ready", body.Status)
		assert.EqualValues(t, 7, body.Online)
		assert.True(t, body.Health.Healthy)
		assert.Len(t, body.Health.Checks, 2)
	})

	t.Run("failing check", func(t *testing.T) {
		s, _ := newTestServer(t, map[string]handlers.HealthCheckFunc{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})

		rec := do(t, s, http.MethodGet, "/ready", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body ReadyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body.Status)
		assert.False(t, body.Health.Healthy)
		assert.Equal(t, "Some checks failed: redis", body.Health.Message)
		assert.Equal(t, "connection refused", body.Health.Checks["redis"].Message)
		assert.True(t, body.Health.Checks["postgres"].Healthy)
	})
}

func TestWebsocketRouteDelegatesToRealtime(t *testing.T) {
	s, rt := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/ws", nil)
	assert.Equal(t, http.StatusSwitchingProtocols, rec.Code)
	assert.Equal(t, 1, rt.upgrades)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/", http.Header{"Origin": {"https://example.org"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/nope", http.Header{handlers.HeaderRequestID: {"req-1"}})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Code)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestCompositeHealthCheckerWithoutChecks(t *testing.T) {
	status := handlers.NewCompositeHealthChecker("v").Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)
}
