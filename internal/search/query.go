package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/profilehue/profilehue-server/internal/palette"
)

// Limits for Params.Limit.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params configures a search query.
type Params struct {
	Query  string // Words, a handle prefix, or "#rrggbb" colors separated by spaces
	Limit  int
	Offset int
	// SortBy is "relevance" (default), "score" or "recent".
	SortBy string
}

// Hit is a single search result.
type Hit struct {
	Handle       string            `json:"handle"`
	DisplayName  string            `json:"display_name"`
	HarmonyScore float64           `json:"harmony_score"`
	Relevance    float64           `json:"relevance"`
	Highlights   map[string]string `json:"highlights,omitempty"`
}

// Result is a page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Search executes a search query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	params.Limit = clampLimit(params.Limit)
	if params.Offset < 0 {
		params.Offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params.Query), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("display_name")
	req.Fields = []string{"handle", "display_name", "harmony_score"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := Hit{Handle: hit.ID, Relevance: hit.Score}
		if n, ok := hit.Fields["display_name"].(string); ok {
			h.DisplayName = n
		}
		if sc, ok := hit.Fields["harmony_score"].(float64); ok {
			h.HarmonyScore = sc
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// buildSearchQuery splits the input into color terms and text. Colors must
// all match; text matches any of handle, display name or description.
func buildSearchQuery(input string) query.Query {
	var colors []query.Query
	var words []string
	for _, tok := range strings.Fields(input) {
		if _, err := palette.ParseHex(tok); err == nil {
			tq := bleve.NewTermQuery(strings.ToLower(tok))
			tq.SetField("colors")
			colors = append(colors, tq)
			continue
		}
		words = append(words, tok)
	}

	var queries []query.Query
	queries = append(queries, colors...)

	if text := strings.Join(words, " "); text != "" {
		textQueries := []query.Query{}

		handle := strings.ToLower(strings.TrimPrefix(text, "@"))

		handleTerm := bleve.NewTermQuery(handle)
		handleTerm.SetField("handle")
		handleTerm.SetBoost(5.0)
		textQueries = append(textQueries, handleTerm)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(handle) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(handle)
			prefixQuery.SetField("handle")
			prefixQuery.SetBoost(2.0)
			textQueries = append(textQueries, prefixQuery)
		}

		nameMatch := bleve.NewMatchQuery(text)
		nameMatch.SetField("display_name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(text))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("display_name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		descMatch := bleve.NewMatchQuery(text)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case "score":
		req.SortBy([]string{"-harmony_score", "analyzed_at"})
	case "recent":
		req.SortBy([]string{"-analyzed_at"})
	default:
		req.SortBy([]string{"-_score"})
	}
}
