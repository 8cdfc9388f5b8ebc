package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/profilehue/profilehue-server/internal/service"
)

func (s *Server) registerPaletteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "scorePalette",
		Method:      http.MethodPost,
		Path:        "/api/v1/palettes/score",
		Summary:     "Score palette",
		Description: "Scores an ad-hoc list of colors without fetching any images",
		Tags:        []string{"Palettes"},
	}, s.handleScorePalette)
}

// ScorePaletteRequest is the body of a score request.
type ScorePaletteRequest struct {
	Colors []string `json:"colors" minItems:"1" maxItems:"64" doc:"Colors as #rrggbb"`
}

// ScorePaletteInput wraps the score request for Huma.
type ScorePaletteInput struct {
	Body ScorePaletteRequest
}

// ScorePaletteOutput wraps the harmony breakdown for Huma.
type ScorePaletteOutput struct {
	Body *service.PaletteScore
}

func (s *Server) handleScorePalette(_ context.Context, input *ScorePaletteInput) (*ScorePaletteOutput, error) {
	score, err := service.ScorePalette(input.Body.Colors)
	if err != nil {
		return nil, s.apiError(err, "Failed to score palette")
	}
	return &ScorePaletteOutput{Body: score}, nil
}
