package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/profilehue/profilehue-server/internal/domain"
	"github.com/profilehue/profilehue-server/internal/service"
)

func (s *Server) registerAnalysisRoutes() {
	// Registered before {handle} so "recent" is not read as a handle.
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecentAnalyses",
		Method:      http.MethodGet,
		Path:        "/api/v1/analyses/recent",
		Summary:     "Recent analyses",
		Description: "Returns the most recently analyzed profiles, newest first",
		Tags:        []string{"Analyses"},
	}, s.handleRecentAnalyses)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAnalysis",
		Method:      http.MethodGet,
		Path:        "/api/v1/analyses/{handle}",
		Summary:     "Analyze profile",
		Description: "Returns the stored analysis for a handle, analyzing the profile first when it is missing or stale",
		Tags:        []string{"Analyses"},
		Middlewares: huma.Middlewares{s.rateLimit},
	}, s.handleGetAnalysis)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshAnalysis",
		Method:      http.MethodPost,
		Path:        "/api/v1/analyses/{handle}/refresh",
		Summary:     "Refresh analysis",
		Description: "Re-analyzes a profile, bypassing the stored record and the palette cache",
		Tags:        []string{"Analyses"},
		Middlewares: huma.Middlewares{s.rateLimit},
	}, s.handleRefreshAnalysis)
}

// === DTOs ===

// AnalysisInput identifies a profile.
type AnalysisInput struct {
	Handle string `path:"handle" maxLength:"16" doc:"Profile handle, with or without a leading @"`
}

// AnalysisOutput wraps a single analysis for Huma.
type AnalysisOutput struct {
	Body *domain.Analysis
}

// RecentInput contains pagination for the recent list.
type RecentInput struct {
	Limit int `query:"limit" doc:"Max results (default 10, max 50)"`
}

// AnalysesResponse is a list of analyses.
type AnalysesResponse struct {
	Entries []*domain.Analysis `json:"entries" doc:"Analyses"`
}

// AnalysesOutput wraps a list of analyses for Huma.
type AnalysesOutput struct {
	Body AnalysesResponse
}

// === Handlers ===

func (s *Server) handleGetAnalysis(ctx context.Context, input *AnalysisInput) (*AnalysisOutput, error) {
	return s.analyze(ctx, input.Handle, service.AnalyzeOptions{})
}

func (s *Server) handleRefreshAnalysis(ctx context.Context, input *AnalysisInput) (*AnalysisOutput, error) {
	return s.analyze(ctx, input.Handle, service.AnalyzeOptions{Force: true})
}

func (s *Server) analyze(ctx context.Context, handle string, opts service.AnalyzeOptions) (*AnalysisOutput, error) {
	a, err := s.services.Analyses.Analyze(ctx, handle, opts)
	if err != nil {
		return nil, s.apiError(err, "Failed to analyze profile", "handle", handle, "force", opts.Force)
	}
	return &AnalysisOutput{Body: a}, nil
}

func (s *Server) handleRecentAnalyses(ctx context.Context, input *RecentInput) (*AnalysesOutput, error) {
	entries, err := s.services.Leaderboard.Recent(ctx, input.Limit)
	if err != nil {
		return nil, s.apiError(err, "Failed to list recent analyses")
	}
	return &AnalysesOutput{Body: AnalysesResponse{Entries: entries}}, nil
}
