package palette

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const achromaticChroma = 1e-3

// Swatch is a display view of a color.
type Swatch struct {
	Hex       string  `json:"hex"`
	R         uint8   `json:"r"`
	G         uint8   `json:"g"`
	B         uint8   `json:"b"`
	Lightness float64 `json:"lightness"`
	Chroma    float64 `json:"chroma"`
	Hue       float64 `json:"hue"`
}

// Swatch computes the CIE LCh components of c (D65).
func (c Color) Swatch() Swatch {
	h, ch, l := c.toColorful().Hcl()
	// Hue is noise for achromatic colors.
	if ch < achromaticChroma || math.IsNaN(h) {
		h = 0
	}
	return Swatch{
		Hex:       c.Hex(),
		R:         c.R,
		G:         c.G,
		B:         c.B,
		Lightness: round3(l),
		Chroma:    round3(ch),
		Hue:       round3(h),
	}
}

// Swatches converts every color in p.
func (p Palette) Swatches() []Swatch {
	out := make([]Swatch, len(p))
	for i, c := range p {
		out[i] = c.Swatch()
	}
	return out
}

func (c Color) toColorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
