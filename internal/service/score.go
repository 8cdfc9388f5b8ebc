package service

import (
	"fmt"

	domainerrors "github.com/profilehue/profilehue-server/internal/errors"
	"github.com/profilehue/profilehue-server/internal/harmony"
	"github.com/profilehue/profilehue-server/internal/palette"
)

// PaletteScore is the harmony breakdown for an ad-hoc color list.
type PaletteScore struct {
	// Colors is the scored set: the input with exact duplicates removed.
	Colors []string `json:"colors"`
	harmony.Result
	// Text is the comma-joined form fed to the description prompt.
	Text string `json:"text"`
}

// ScorePalette scores a list of "#rrggbb" colors directly, without images.
func ScorePalette(hexes []string) (*PaletteScore, error) {
	details := map[string]string{}
	colors := make(palette.Palette, 0, len(hexes))
	for i, h := range hexes {
		c, err := palette.ParseHex(h)
		if err != nil {
			details[fmt.Sprintf("colors[%d]", i)] = "must be a #rrggbb color"
			continue
		}
		colors = append(colors, c)
	}
	if len(details) > 0 {
		return nil, domainerrors.ValidationWithDetails("invalid colors", details)
	}

	merged := palette.Merge(colors)
	result, err := harmony.Score(merged)
	if err != nil {
		return nil, domainerrors.Validationf("at least two distinct colors are required, got %d", len(merged))
	}

	return &PaletteScore{
		Colors: merged.Hex(),
		Result: result,
		Text:   palette.JoinHex(merged),
	}, nil
}
