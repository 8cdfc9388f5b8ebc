// Package domain holds the records persisted by profilehue.
package domain

import (
	"time"

	"github.com/profilehue/profilehue-server/internal/palette"
)

// Analysis is the stored result of analyzing one profile.
type Analysis struct {
	ID              string   `json:"id"`
	Handle          string   `json:"handle"` // Case-folded, no leading "@"
	DisplayName     string   `json:"display_name"`
	ProfileImageURL string   `json:"profile_image_url"`
	BannerImageURL  string   `json:"banner_image_url,omitempty"`
	ProfileColors   []string `json:"profile_colors"` // #rrggbb, extraction order
	BannerColors    []string `json:"banner_colors"`

	HarmonyScore    float64 `json:"harmony_score"`
	CountScore      float64 `json:"count_score"`
	DistanceScore   float64 `json:"distance_score"`
	AverageDistance float64 `json:"average_distance"`
	ColorCount      int     `json:"color_count"`

	Description     string `json:"description"`
	ProfileBlurhash string `json:"profile_blurhash,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AnalyzedAt time.Time `json:"analyzed_at"` // Last time colors were recomputed
}

// MergedColors returns the de-duplicated union of profile and banner colors.
func (a *Analysis) MergedColors() (palette.Palette, error) {
	profile, err := palette.FromHex(a.ProfileColors)
	if err != nil {
		return nil, err
	}
	banner, err := palette.FromHex(a.BannerColors)
	if err != nil {
		return nil, err
	}
	return palette.Merge(profile, banner), nil
}

// SameImages reports whether the record was computed from these image URLs.
func (a *Analysis) SameImages(profileURL, bannerURL string) bool {
	return a.ProfileImageURL == profileURL && a.BannerImageURL == bannerURL
}

// IsStale reports whether the record is older than maxAge at now.
// A zero maxAge means records never go stale.
func (a *Analysis) IsStale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(a.UpdatedAt) > maxAge
}

// Touch moves UpdatedAt to now without recomputing anything.
func (a *Analysis) Touch(now time.Time) {
	a.UpdatedAt = now
}
