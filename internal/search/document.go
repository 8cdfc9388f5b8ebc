// Package search provides full-text search over analyses using Bleve.
// Profiles are findable by handle, display name, description words and
// exact palette colors.
package search

import (
	"strings"

	"github.com/profilehue/profilehue-server/internal/domain"
)

// Document is the indexed form of an analysis. The document ID is the handle.
type Document struct {
	Handle       string   `json:"handle"`
	DisplayName  string   `json:"display_name"`
	Description  string   `json:"description,omitempty"`
	Colors       []string `json:"colors,omitempty"` // Merged profile and banner colors
	HarmonyScore float64  `json:"harmony_score"`
	AnalyzedAt   int64    `json:"analyzed_at"` // Unix millis
}

// ToMap converts the document to a map with field names matching the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"handle":        d.Handle,
		"display_name":  d.DisplayName,
		"harmony_score": d.HarmonyScore,
		"analyzed_at":   d.AnalyzedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Colors) > 0 {
		m["colors"] = d.Colors
	}
	return m
}

// FromAnalysis builds the search document for an analysis.
func FromAnalysis(a *domain.Analysis) *Document {
	seen := make(map[string]bool, len(a.ProfileColors)+len(a.BannerColors))
	colors := make([]string, 0, len(a.ProfileColors)+len(a.BannerColors))
	for _, list := range [][]string{a.ProfileColors, a.BannerColors} {
		for _, c := range list {
			c = strings.ToLower(c)
			if !seen[c] {
				seen[c] = true
				colors = append(colors, c)
			}
		}
	}

	return &Document{
		Handle:       a.Handle,
		DisplayName:  a.DisplayName,
		Description:  a.Description,
		Colors:       colors,
		HarmonyScore: a.HarmonyScore,
		AnalyzedAt:   a.AnalyzedAt.UnixMilli(),
	}
}
