package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilehue/profilehue-server/internal/domain"
)

// setupTestIndex creates an on-disk search index in a temp dir.
func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	index, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func sampleAnalyses() []*domain.Analysis {
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return []*domain.Analysis{
		{
			Handle:        "jack",
			DisplayName:   "Jack Dorsey",
			Description:   "A restrained, monochrome palette with quiet blues.",
			ProfileColors: []string{"#000000", "#1d9bf0"},
			HarmonyScore:  4.2,
			AnalyzedAt:    base,
		},
		{
			Handle:        "jack_sunset",
			DisplayName:   "Sunset Jack",
			Description:   "Warm oranges melting into purple.",
			ProfileColors: []string{"#ff6600"},
			BannerColors:  []string{"#6600cc", "#FF6600"},
			HarmonyScore:  8.9,
			AnalyzedAt:    base.Add(time.Hour),
		},
		{
			Handle:        "forest",
			DisplayName:   "Forest Walker",
			Description:   "Earthy greens and browns.",
			ProfileColors: []string{"#228b22", "#8b4513"},
			HarmonyScore:  6.1,
			AnalyzedAt:    base.Add(2 * time.Hour),
		},
	}
}

func populated(t *testing.T) *Index {
	t.Helper()
	index := setupTestIndex(t)
	require.NoError(t, index.IndexAnalyses(sampleAnalyses()))
	return index
}

func handles(r *Result) []string {
	out := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		out[i] = h.Handle
	}
	return out
}

func TestNewIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewIndex_InMemory(t *testing.T) {
	index, err := NewIndex(Options{})
	require.NoError(t, err)
	defer index.Close()

	require.NoError(t, index.IndexAnalysis(sampleAnalyses()[0]))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestFromAnalysis_MergesColors(t *testing.T) {
	doc := FromAnalysis(sampleAnalyses()[1])
	assert.Equal(t, "jack_sunset", doc.Handle)
	assert.Equal(t, []string{"#ff6600", "#6600cc"}, doc.Colors)

	m := doc.ToMap()
	assert.Equal(t, "Sunset Jack", m["display_name"])
	assert.Contains(t, m, "colors")
}

func TestIndex_IndexAnalysis_Replaces(t *testing.T) {
	index := setupTestIndex(t)
	a := sampleAnalyses()[0]

	require.NoError(t, index.IndexAnalysis(a))
	a.DisplayName = "Renamed"
	require.NoError(t, index.IndexAnalysis(a))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	res, err := index.Search(context.Background(), Params{Query: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jack"}, handles(res))
}

func TestIndex_DeleteAnalysis(t *testing.T) {
	index := populated(t)

	require.NoError(t, index.DeleteAnalysis("forest"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestIndex_Search_Handle(t *testing.T) {
	index := populated(t)

	res, err := index.Search(context.Background(), Params{Query: "@jack"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "jack", res.Hits[0].Handle)
	assert.ElementsMatch(t, []string{"jack", "jack_sunset"}, handles(res))
}

func TestIndex_Search_Description(t *testing.T) {
	index := populated(t)

	res, err := index.Search(context.Background(), Params{Query: "greens"})
	require.NoError(t, err)
	assert.Equal(t, []string{"forest"}, handles(res))
	assert.Equal(t, "Forest Walker", res.Hits[0].DisplayName)
	assert.InDelta(t, 6.1, res.Hits[0].HarmonyScore, 1e-9)
}

func TestIndex_Search_Color(t *testing.T) {
	index := populated(t)

	res, err := index.Search(context.Background(), Params{Query: "#FF6600"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jack_sunset"}, handles(res))

	res, err = index.Search(context.Background(), Params{Query: "#ff6600 forest"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestIndex_Search_SortByScore(t *testing.T) {
	index := populated(t)

	res, err := index.Search(context.Background(), Params{SortBy: "score"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Total)
	assert.Equal(t, []string{"jack_sunset", "forest", "jack"}, handles(res))

	res, err = index.Search(context.Background(), Params{SortBy: "recent", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"forest", "jack_sunset"}, handles(res))
}

func TestIndex_Rebuild(t *testing.T) {
	index := populated(t)

	require.NoError(t, index.Rebuild(sampleAnalyses()[:1]))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndex_Persistence(t *testing.T) {
	dir := t.TempDir()

	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexAnalyses(sampleAnalyses()))
	require.NoError(t, index.Close())

	index, err = NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestIndex_MappingVersionChangeRebuilds(t *testing.T) {
	dir := t.TempDir()

	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexAnalyses(sampleAnalyses()))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "analyses.version"), []byte("0"), 0o644))

	index, err = NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	version, err := os.ReadFile(filepath.Join(dir, "analyses.version"))
	require.NoError(t, err)
	assert.Equal(t, mappingVersion, string(version))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, 5, clampLimit(5))
	assert.Equal(t, MaxLimit, clampLimit(1000))
}
