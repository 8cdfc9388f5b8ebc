package sqlstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilehue/profilehue-server/internal/domain"
	"github.com/profilehue/profilehue-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(Config{Driver: DriverSQLite, DSN: filepath.Join(dir, "test.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeAnalysis(handle string, score float64, analyzedAt time.Time) *domain.Analysis {
	return &domain.Analysis{
		Handle:          handle,
		DisplayName:     "Name " + handle,
		ProfileImageURL: "https://pbs.example.com/" + handle + "_400x400.jpg",
		ProfileColors:   []string{"#102030", "#405060"},
		BannerColors:    []string{},
		HarmonyScore:    score,
		ColorCount:      2,
		CreatedAt:       analyzedAt,
		UpdatedAt:       analyzedAt,
		AnalyzedAt:      analyzedAt,
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='analyses'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, s.Driver())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Config{Driver: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)

	_, err = Open(Config{Driver: DriverSQLite}, nil)
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(Config{Driver: DriverSQLite, DSN: path}, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("jack", 7, time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(Config{Driver: DriverSQLite, DSN: path}, nil)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountAnalyses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveAndGetAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC)

	a := makeAnalysis("jack", 7.25, at)
	a.BannerImageURL = "https://pbs.example.com/banner"
	a.BannerColors = []string{"#ffffff"}
	a.Description = "Calm and cool."
	a.ProfileBlurhash = "LEHV6nWB2yk8pyo0adR*.7kCMdnj"
	require.NoError(t, s.SaveAnalysis(ctx, a))
	assert.NotEmpty(t, a.ID)

	got, err := s.GetAnalysisByHandle(ctx, "jack")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Name jack", got.DisplayName)
	assert.Equal(t, []string{"#102030", "#405060"}, got.ProfileColors)
	assert.Equal(t, []string{"#ffffff"}, got.BannerColors)
	assert.Equal(t, 7.25, got.HarmonyScore)
	assert.Equal(t, "Calm and cool.", got.Description)
	assert.Equal(t, a.ProfileBlurhash, got.ProfileBlurhash)
	assert.True(t, at.Equal(got.AnalyzedAt))
	assert.True(t, at.Equal(got.CreatedAt))
}

func TestSaveAnalysis_NilColors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := makeAnalysis("empty", 0, time.Now())
	a.ProfileColors = nil
	a.BannerColors = nil
	require.NoError(t, s.SaveAnalysis(ctx, a))

	got, err := s.GetAnalysisByHandle(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.ProfileColors)
	assert.Equal(t, []string{}, got.BannerColors)
}

func TestSaveAnalysis_UpsertKeepsIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	a := makeAnalysis("jack", 3, first)
	require.NoError(t, s.SaveAnalysis(ctx, a))
	originalID := a.ID

	b := makeAnalysis("jack", 9, second)
	b.CreatedAt = second
	require.NoError(t, s.SaveAnalysis(ctx, b))

	assert.Equal(t, originalID, b.ID)
	assert.True(t, first.Equal(b.CreatedAt))

	got, err := s.GetAnalysisByHandle(ctx, "jack")
	require.NoError(t, err)
	assert.Equal(t, originalID, got.ID)
	assert.Equal(t, 9.0, got.HarmonyScore)
	assert.True(t, second.Equal(got.AnalyzedAt))

	n, err := s.CountAnalyses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveAnalysis_RequiresHandle(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveAnalysis(context.Background(), &domain.Analysis{})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestGetAnalysisByHandle_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAnalysisByHandle(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetAnalysesByHandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	for _, h := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis(h, 5, now)))
	}

	got, err := s.GetAnalysesByHandles(ctx, []string{"c", "missing", "a", "c"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Handle)
	assert.Equal(t, "a", got[1].Handle)

	got, err = s.GetAnalysesByHandles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("gone", 5, time.Now())))

	require.NoError(t, s.DeleteAnalysis(ctx, "gone"))
	_, err := s.GetAnalysisByHandle(ctx, "gone")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteAnalysis(ctx, "gone"), store.ErrNotFound)
}

func TestTopAnalyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("low", 2.5, base)))
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("late", 8, base.Add(2*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("early", 8, base.Add(time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("over", 10.4, base)))

	top, err := s.TopAnalyses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 4)
	handles := []string{top[0].Handle, top[1].Handle, top[2].Handle, top[3].Handle}
	assert.Equal(t, []string{"over", "early", "late", "low"}, handles)

	top, err = s.TopAnalyses(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestRecentAnalyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// 9 vs 10 hours keeps the ordering honest for string comparison.
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("nine", 1, base.Add(9*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("ten", 1, base.Add(10*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("first", 1, base)))

	recent, err := s.RecentAnalyses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "ten", recent[0].Handle)
	assert.Equal(t, "nine", recent[1].Handle)
	assert.Equal(t, "first", recent[2].Handle)

	empty := newTestStore(t)
	recent, err = empty.RecentAnalyses(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, recent)
	assert.Empty(t, recent)
}

func TestStaleAnalyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("older", 1, now.Add(-72*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("old", 1, now.Add(-48*time.Hour))))
	require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis("fresh", 1, now.Add(-time.Hour))))

	stale, err := s.StaleAnalyses(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "older", stale[0].Handle)
	assert.Equal(t, "old", stale[1].Handle)

	stale, err = s.StaleAnalyses(ctx, now.Add(-24*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, stale, 1)
}

func TestTimeLayoutSortsChronologically(t *testing.T) {
	a := formatTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2024, 1, 1, 0, 0, 0, 500, time.UTC))
	c := formatTime(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC))
	assert.Less(t, a, b)
	assert.Less(t, b, c)
	assert.Len(t, a, len(c))

	parsed, err := parseTime(b)
	require.NoError(t, err)
	assert.Equal(t, 500, parsed.Nanosecond())
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT * FROM analyses WHERE handle = ? AND updated_at < ? LIMIT ?"
	assert.Equal(t, q, dialects[DriverSQLite].rebind(q))
	assert.Equal(t, q, dialects[DriverMySQL].rebind(q))
	assert.Equal(t,
		"SELECT * FROM analyses WHERE handle = $1 AND updated_at < $2 LIMIT $3",
		dialects[DriverPostgres].rebind(q))
}

func TestDialect_Upsert(t *testing.T) {
	cols := []string{"a", "b"}
	assert.Equal(t, "ON CONFLICT(handle) DO UPDATE SET a = excluded.a, b = excluded.b",
		dialects[DriverSQLite].upsert(cols))
	assert.Equal(t, "ON DUPLICATE KEY UPDATE a = VALUES(a), b = VALUES(b)",
		dialects[DriverMySQL].upsert(cols))
}

func TestSplitStatements(t *testing.T) {
	for name, d := range dialects {
		stmts := splitStatements(d.schema)
		assert.NotEmpty(t, stmts, name)
		for _, stmt := range stmts {
			assert.NotContains(t, stmt, ";", name)
		}
	}
	assert.Equal(t, []string{"A", "B"}, splitStatements(" A ;\n\n; B;"))
}

// TestExternalDatabases runs the core round trip against MySQL and PostgreSQL
// when PROFILEHUE_TEST_MYSQL_DSN or PROFILEHUE_TEST_POSTGRES_DSN is set.
func TestExternalDatabases(t *testing.T) {
	for driver, env := range map[string]string{
		DriverMySQL:    "PROFILEHUE_TEST_MYSQL_DSN",
		DriverPostgres: "PROFILEHUE_TEST_POSTGRES_DSN",
	} {
		t.Run(driver, func(t *testing.T) {
			dsn := os.Getenv(env)
			if dsn == "" {
				t.Skipf("%s not set", env)
			}
			s, err := Open(Config{Driver: driver, DSN: dsn}, nil)
			require.NoError(t, err)
			defer s.Close()

			ctx := context.Background()
			handle := "it_" + driver
			t.Cleanup(func() { _ = s.DeleteAnalysis(ctx, handle) })

			require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis(handle, 4, time.Now())))
			require.NoError(t, s.SaveAnalysis(ctx, makeAnalysis(handle, 6, time.Now())))

			got, err := s.GetAnalysisByHandle(ctx, handle)
			require.NoError(t, err)
			assert.Equal(t, 6.0, got.HarmonyScore)
		})
	}
}
