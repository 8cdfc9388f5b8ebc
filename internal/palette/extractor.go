package palette

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// DefaultK is the number of clusters requested from the quantizer.
const DefaultK = 10

// Quantizer names accepted by QuantizerByName.
const (
	QuantizerKMeans    = "kmeans"
	QuantizerMedianCut = "mediancut"
)

// QuantizerByName resolves a configured quantizer name.
func QuantizerByName(name string) (Quantizer, error) {
	switch strings.ToLower(name) {
	case QuantizerKMeans:
		return KMeans{}, nil
	case QuantizerMedianCut, "":
		return MedianCut{}, nil
	default:
		return nil, fmt.Errorf("unknown quantizer %q (must be %s or %s)", name, QuantizerKMeans, QuantizerMedianCut)
	}
}

// Extractor turns a decoded, pre-resized image into a Palette.
type Extractor struct {
	Quantizer Quantizer
	K         int
	Threshold float64
}

// NewExtractor returns an extractor with the default k and threshold.
func NewExtractor(q Quantizer) *Extractor {
	if q == nil {
		q = MedianCut{}
	}
	return &Extractor{Quantizer: q, K: DefaultK, Threshold: DefaultThreshold}
}

// Fingerprint identifies the settings that shape extracted palettes, so
// caches can keep palettes from different settings apart.
func (e *Extractor) Fingerprint() string {
	return fmt.Sprintf("%s-k%d-t%s", e.Quantizer.Name(), e.K, strconv.FormatFloat(e.Threshold, 'g', -1, 64))
}

// Extract quantizes img and drops near-duplicate colors.
// Any failure yields an empty palette.
func (e *Extractor) Extract(img image.Image) Palette {
	if img == nil {
		return Palette{}
	}
	colors, err := e.Quantizer.Quantize(img, e.K)
	if err != nil {
		return Palette{}
	}
	return FilterSimilar(colors, e.Threshold)
}
