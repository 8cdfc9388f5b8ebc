package service

import (
	"context"
	"log/slog"

	"github.com/profilehue/profilehue-server/internal/domain"
	domainerrors "github.com/profilehue/profilehue-server/internal/errors"
	"github.com/profilehue/profilehue-server/internal/search"
	"github.com/profilehue/profilehue-server/internal/store"
)

// Leaderboard limits.
const (
	DefaultTopLimit    = 100
	MaxTopLimit        = 100
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

// Searcher queries the analysis index.
type Searcher interface {
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// TopResult is a page of the harmony leaderboard.
type TopResult struct {
	Entries []*domain.Analysis `json:"entries"`
	// Total is the number of analyzed profiles, not the page size.
	Total int `json:"total"`
}

// SearchResult pairs index hits with their stored records.
type SearchResult struct {
	Query   string             `json:"query"`
	Total   uint64             `json:"total"`
	Entries []*domain.Analysis `json:"entries"`
}

// Leaderboard serves rankings and search over stored analyses.
type Leaderboard struct {
	store  store.Store
	search Searcher
	logger *slog.Logger
}

// NewLeaderboard creates a leaderboard service. searcher may be nil, in
// which case Search reports the feature as unavailable.
func NewLeaderboard(s store.Store, searcher Searcher, logger *slog.Logger) *Leaderboard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Leaderboard{store: s, search: searcher, logger: logger}
}

// Top returns the highest-scoring analyses and the total analysis count.
func (l *Leaderboard) Top(ctx context.Context, limit int) (*TopResult, error) {
	limit = clamp(limit, DefaultTopLimit, MaxTopLimit)

	entries, err := l.store.TopAnalyses(ctx, limit)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to load leaderboard")
	}
	total, err := l.store.CountAnalyses(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to count analyses")
	}

	return &TopResult{Entries: entries, Total: total}, nil
}

// Recent returns the most recently analyzed profiles.
func (l *Leaderboard) Recent(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	limit = clamp(limit, DefaultRecentLimit, MaxRecentLimit)

	entries, err := l.store.RecentAnalyses(ctx, limit)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to load recent analyses")
	}
	return entries, nil
}

// Search finds analyses by handle, name, description or "#rrggbb" color.
// Records are returned in relevance order.
func (l *Leaderboard) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if l.search == nil {
		return nil, domainerrors.Unavailable("search is not enabled")
	}

	res, err := l.search.Search(ctx, search.Params{Query: query, Limit: limit})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}

	handles := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		handles[i] = h.Handle
	}
	entries, err := l.store.GetAnalysesByHandles(ctx, handles)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to load search results")
	}
	if len(entries) != len(handles) {
		l.logger.Debug("search index references missing analyses",
			"hits", len(handles),
			"found", len(entries),
		)
	}

	return &SearchResult{Query: query, Total: res.Total, Entries: entries}, nil
}

func clamp(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
