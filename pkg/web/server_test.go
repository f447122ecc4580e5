package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopExecutor struct{}

func (noopExecutor) Mute(context.Context, moderation.MuteAction) error     { return nil }
func (noopExecutor) Unmute(context.Context, moderation.UnmuteAction) error { return nil }
func (noopExecutor) Kick(context.Context, string, string, string) error    { return nil }
func (noopExecutor) Ban(context.Context, string, string, string) error     { return nil }
func (noopExecutor) Unban(context.Context, string, string, string) error   { return nil }

type fakeAudit struct {
	entries []moderation.Entry
	limit   int
}

func (f *fakeAudit) Recent(_ context.Context, _ string, limit int) ([]moderation.Entry, error) {
	f.limit = limit
	return f.entries, nil
}

func newTestEngine(t *testing.T, now time.Time) *moderation.Engine {
	t.Helper()
	ctx := context.Background()
	engine := moderation.NewEngine(moderation.NewMemoryStore(), noopExecutor{},
		moderation.WithClock(func() time.Time { return now }))

	two, five := 2, 5
	perm := true
	_, err := engine.Warn(ctx, moderation.WarnRequest{GuildID: "g", UserID: "u", ModeratorID: "m", Reason: "spam", Points: &two, Duration: time.Hour})
	require.NoError(t, err)
	_, err = engine.Warn(ctx, moderation.WarnRequest{GuildID: "g", UserID: "u", ModeratorID: "m", Reason: "raid", Points: &five, Permanent: &perm})
	require.NoError(t, err)
	_, err = engine.SetPunishment(ctx, "g", 10, "ban", "")
	require.NoError(t, err)
	_, err = engine.SetReason(ctx, "g", "spam", 2, "1d", false)
	require.NoError(t, err)
	return engine
}

const testToken = "secret"

var bearer = []string{"Authorization", "Bearer " + testToken}

func do(s *Server, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthAndStatus(t *testing.T) {
	s := NewServer(Options{}, Deps{
		DatabaseStatus: func(context.Context) (string, bool) { return "🟢 | En linea", true },
	})

	w := do(s, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = do(s, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["database"].(map[string]any)["isOnline"])
	assert.Equal(t, false, body["bot"].(map[string]any)["isOnline"])
}

func TestBotInfo(t *testing.T) {
	var info *BotInfo
	s := NewServer(Options{}, Deps{Bot: func() *BotInfo { return info }})

	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodGet, "/api/bot").Code)

	info = &BotInfo{ID: "1", Username: "PancyMod", Guilds: 3, IsReady: true}
	w := do(s, http.MethodGet, "/api/bot")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PancyMod", decode(t, w)["username"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s := NewServer(Options{}, Deps{})
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodPost, "/api/health").Code)
}

func TestModerationRoutesRequireToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewServer(Options{APIToken: testToken}, Deps{Moderation: newTestEngine(t, now)})

	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/guilds/g/members/u/points").Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/guilds/g/members/u/points", "Authorization", "Bearer nope").Code)

	w := do(s, http.MethodGet, "/api/guilds/g/members/u/points", bearer...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 7, decode(t, w)["points"])
}

func TestWarningsRoute(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewServer(Options{APIToken: testToken}, Deps{Moderation: newTestEngine(t, now)})

	w := do(s, http.MethodGet, "/api/guilds/g/members/u/warnings", bearer...)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 7, body["points"])
	active := body["active"].([]any)
	require.Len(t, active, 2)
	first := active[0].(map[string]any)
	assert.Equal(t, "spam", first["reason"])
	assert.Equal(t, now.Add(time.Hour).UTC().Format(time.RFC3339), first["expiresAt"])
	_, hasExpiry := active[1].(map[string]any)["expiresAt"]
	assert.False(t, hasExpiry)
	assert.Empty(t, body["expired"])
}

func TestModerationRoutesNeedConfiguredToken(t *testing.T) {
	s := NewServer(Options{}, Deps{Moderation: newTestEngine(t, time.Unix(1_700_000_000, 0))})

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/guilds/g/members/u/warnings").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/guilds/g/members/u/points", "Authorization", "Bearer ").Code)
}

func TestWarningsRouteDoesNotPrune(t *testing.T) {
	ctx := context.Background()
	store := moderation.NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	engine := moderation.NewEngine(store, noopExecutor{}, moderation.WithClock(func() time.Time { return now }))

	_, err := engine.Warn(ctx, moderation.WarnRequest{GuildID: "g", UserID: "u", ModeratorID: "m", Duration: time.Hour})
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)

	s := NewServer(Options{APIToken: testToken}, Deps{Moderation: engine})
	w := do(s, http.MethodGet, "/api/guilds/g/members/u/warnings", bearer...)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 0, body["points"])
	assert.Len(t, body["expired"], 1)

	w = do(s, http.MethodGet, "/api/guilds/g/members/u/points", bearer...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["points"])

	stored, err := store.GetWarnings(ctx, "g", "u")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRulesAndReasonsRoutes(t *testing.T) {
	s := NewServer(Options{APIToken: testToken}, Deps{Moderation: newTestEngine(t, time.Unix(1_700_000_000, 0))})

	w := do(s, http.MethodGet, "/api/guilds/g/punishments", bearer...)
	require.Equal(t, http.StatusOK, w.Code)
	rules := decode(t, w)["punishments"].([]any)
	require.Len(t, rules, 1)
	assert.Equal(t, "ban", rules[0].(map[string]any)["action"])

	w = do(s, http.MethodGet, "/api/guilds/g/reasons", bearer...)
	require.Equal(t, http.StatusOK, w.Code)
	reasons := decode(t, w)["reasons"].([]any)
	require.Len(t, reasons, 1)
	assert.Equal(t, "spam", reasons[0].(map[string]any)["name"])
}

func TestModlogRoute(t *testing.T) {
	audit := &fakeAudit{entries: []moderation.Entry{{GuildID: "g", Action: moderation.ActionKick, UserID: "u"}}}
	s := NewServer(Options{APIToken: testToken}, Deps{Moderation: newTestEngine(t, time.Now()), AuditLog: audit})

	w := do(s, http.MethodGet, "/api/guilds/g/modlog", bearer...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultModlogLimit, audit.limit)
	assert.Len(t, decode(t, w)["entries"], 1)

	do(s, http.MethodGet, "/api/guilds/g/modlog?limit=500", bearer...)
	assert.Equal(t, maxModlogLimit, audit.limit)

	w = do(s, http.MethodGet, "/api/guilds/g/modlog?limit=abc", bearer...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit", decode(t, w)["field"])
}

func TestAllowedHosts(t *testing.T) {
	s := NewServer(Options{AllowedHosts: []string{"pancy.dev"}}, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "api.pancy.dev:8080"
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req.Host = "pancy.dev.evil.com"
	w = httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := NewServer(Options{RateLimit: 2}, Deps{})

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/health").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/api/health").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(Options{}, Deps{})
	do(s, http.MethodGet, "/api/health")

	w := do(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
