package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/profilehue/profilehue-server/internal/service"
)

func (s *Server) registerLeaderboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLeaderboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/leaderboard",
		Summary:     "Harmony leaderboard",
		Description: "Returns the highest-scoring profiles and the number of analyzed profiles",
		Tags:        []string{"Leaderboard"},
	}, s.handleLeaderboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchAnalyses",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search analyses",
		Description: "Searches analyses by handle, display name, description or #rrggbb color",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// LeaderboardInput contains pagination for the leaderboard.
type LeaderboardInput struct {
	Limit int `query:"limit" doc:"Max results (default 100, max 100)"`
}

// LeaderboardOutput wraps the leaderboard for Huma.
type LeaderboardOutput struct {
	Body *service.TopResult
}

// SearchInput contains parameters for searching analyses.
type SearchInput struct {
	Query string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search query"`
	Limit int    `query:"limit" doc:"Max results (default 20, max 100)"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body *service.SearchResult
}

// === Handlers ===

func (s *Server) handleLeaderboard(ctx context.Context, input *LeaderboardInput) (*LeaderboardOutput, error) {
	top, err := s.services.Leaderboard.Top(ctx, input.Limit)
	if err != nil {
		return nil, s.apiError(err, "Failed to load leaderboard")
	}
	return &LeaderboardOutput{Body: top}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	res, err := s.services.Leaderboard.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, s.apiError(err, "Search failed", "query", input.Query)
	}
	return &SearchOutput{Body: res}, nil
}
