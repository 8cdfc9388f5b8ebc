package api

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilehue/profilehue-server/internal/cache"
	"github.com/profilehue/profilehue-server/internal/domain"
	"github.com/profilehue/profilehue-server/internal/palette"
	"github.com/profilehue/profilehue-server/internal/ratelimit"
	"github.com/profilehue/profilehue-server/internal/search"
	"github.com/profilehue/profilehue-server/internal/service"
	"github.com/profilehue/profilehue-server/internal/store/sqlstore"
	"github.com/profilehue/profilehue-server/internal/twitter"
)

type stubUsers struct {
	mu    sync.Mutex
	users map[string]*twitter.User
}

func (s *stubUsers) LookupUser(_ context.Context, handle string) (*twitter.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(handle)]
	if !ok {
		return nil, &twitter.Error{Op: "lookupUser", Handle: handle, Err: twitter.ErrNotFound}
	}
	cp := *u
	return &cp, nil
}

type stubImages struct {
	palettes map[string]palette.Palette
}

func (s *stubImages) Palette(_ context.Context, url string, _ *palette.Extractor) (palette.Palette, image.Image) {
	return s.palettes[url], nil
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlstore.Store
	index *search.Index
}

func setupTestServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()

	st, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: filepath.Join(t.TempDir(), "test.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	idx, err := search.NewIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	pc, err := cache.NewBadger("", "", 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	users := &stubUsers{users: map[string]*twitter.User{
		"jack": {Name: "jack", Username: "jack", ProfileImageURL: "https://pbs.example.com/jack.jpg"},
	}}
	images := &stubImages{palettes: map[string]palette.Palette{
		"https://pbs.example.com/jack.jpg": {palette.RGB(0, 0, 0), palette.RGB(255, 255, 255), palette.RGB(255, 0, 0)},
	}}

	analyses := service.NewAnalysisService(service.AnalysisDeps{
		Store:   st,
		Users:   users,
		Images:  images,
		Cache:   pc,
		Indexer: idx,
	})

	srv := NewServer(Options{
		Services: &Services{
			Analyses:    analyses,
			Leaderboard: service.NewLeaderboard(st, idx, nil),
		},
		Store:   st,
		Cache:   pc,
		Index:   idx,
		Limiter: limiter,
	})

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		store:  st,
		index:  idx,
	}
}

// envelope mirrors response.Envelope with a typed payload.
type envelope[T any] struct {
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func seed(t *testing.T, ts *testServer, handle string, score float64) {
	t.Helper()
	a := &domain.Analysis{Handle: handle, DisplayName: handle, HarmonyScore: score, ProfileColors: []string{"#112233"}}
	require.NoError(t, ts.store.SaveAnalysis(context.Background(), a))
	require.NoError(t, ts.index.IndexAnalysis(a))
}

func TestGetAnalysis(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/analyses/@Jack")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[domain.Analysis](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "jack", env.Data.Handle)
	assert.Equal(t, []string{"#000000", "#ffffff", "#ff0000"}, env.Data.ProfileColors)
	assert.Equal(t, 3, env.Data.ColorCount)
	assert.NotEmpty(t, env.Data.ID)
}

func TestGetAnalysis_UnknownUser(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/analyses/nobody")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Contains(t, env.Error, "@nobody")
}

func TestGetAnalysis_InvalidHandle(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/analyses/not-a-handle")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	env := decode[any](t, resp)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Contains(t, string(env.Details), "handle")
}

func TestRefreshAnalysis(t *testing.T) {
	ts := setupTestServer(t, nil)

	first := decode[domain.Analysis](t, ts.api.Get("/api/v1/analyses/jack"))
	resp := ts.api.Post("/api/v1/analyses/jack/refresh")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[domain.Analysis](t, resp)
	assert.Equal(t, first.Data.ID, env.Data.ID)
	assert.False(t, env.Data.AnalyzedAt.Before(first.Data.AnalyzedAt))
}

func TestRecentAnalyses(t *testing.T) {
	ts := setupTestServer(t, nil)
	seed(t, ts, "alpha", 1)
	seed(t, ts, "beta", 2)

	resp := ts.api.Get("/api/v1/analyses/recent?limit=1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[AnalysesResponse](t, resp)
	assert.Len(t, env.Data.Entries, 1)
}

func TestLeaderboard(t *testing.T) {
	ts := setupTestServer(t, nil)
	seed(t, ts, "low", 1.5)
	seed(t, ts, "high", 9.5)
	seed(t, ts, "mid", 5)

	resp := ts.api.Get("/api/v1/leaderboard?limit=2")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[service.TopResult](t, resp)
	assert.Equal(t, 3, env.Data.Total)
	require.Len(t, env.Data.Entries, 2)
	assert.Equal(t, "high", env.Data.Entries[0].Handle)
	assert.Equal(t, "mid", env.Data.Entries[1].Handle)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t, nil)
	seed(t, ts, "forest", 6)
	seed(t, ts, "ocean", 7)

	resp := ts.api.Get("/api/v1/search?q=forest")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[service.SearchResult](t, resp)
	require.Len(t, env.Data.Entries, 1)
	assert.Equal(t, "forest", env.Data.Entries[0].Handle)
}

func TestSearch_RequiresQuery(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/search")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION", env.Code)
}

func TestScorePalette(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/palettes/score", map[string]any{
		"colors": []string{"#000000", "#FFFFFF", "#000000"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[service.PaletteScore](t, resp)
	assert.Equal(t, []string{"#000000", "#ffffff"}, env.Data.Colors)
	assert.Equal(t, 2, env.Data.ColorCount)
	assert.Equal(t, "#000000,#ffffff", env.Data.Text)
}

func TestScorePalette_InvalidColor(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/palettes/score", map[string]any{
		"colors": []string{"#000000", "red"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	env := decode[any](t, resp)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Contains(t, string(env.Details), "colors[1]")
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	env := decode[any](t, resp)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
