// Package harmony scores how pleasing a set of colors is by combining how
// many colors there are with how far apart they sit in RGB space.
package harmony

import (
	"errors"
	"fmt"

	"github.com/profilehue/profilehue-server/internal/palette"
)

// ErrTooFewColors is returned when pairwise distance is undefined.
var ErrTooFewColors = errors.New("harmony: at least two colors are required")

// Band is an ideal value range. Values inside it score between 5 and 10.
type Band struct {
	Min float64
	Max float64
}

var (
	// CountBand is the ideal number of distinct colors.
	CountBand = Band{Min: 12, Max: 16}
	// DistanceBand is the ideal mean pairwise RGB distance.
	DistanceBand = Band{Min: 70, Max: 180}
)

// Score applies BandScore with the band's bounds.
func (b Band) Score(v float64) float64 {
	return BandScore(v, b.Min, b.Max)
}

// BandScore maps v onto a piecewise-linear scale:
//
//	v < min:         5 * v/min
//	min <= v <= max: 5 + 5 * (v-min)/(max-min)
//	v > max:         10 - 5 * (v-max)/max
//
// The result is not clamped, so large values go negative.
func BandScore(v, min, max float64) float64 {
	switch {
	case v < min:
		return 5 * v / min
	case v > max:
		return 10 - 5*(v-max)/max
	default:
		return 5 + 5*(v-min)/(max-min)
	}
}

// AverageDistance is the mean Euclidean distance over all unordered pairs.
func AverageDistance(colors []palette.Color) (float64, error) {
	n := len(colors)
	if n < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrTooFewColors, n)
	}

	var total float64
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += palette.Distance(colors[i], colors[j])
			pairs++
		}
	}
	return total / float64(pairs), nil
}

// Result is a harmony score with the parts it was built from.
type Result struct {
	Score           float64 `json:"score"`
	CountScore      float64 `json:"count_score"`
	DistanceScore   float64 `json:"distance_score"`
	AverageDistance float64 `json:"average_distance"`
	ColorCount      int     `json:"color_count"`
}

// Score rates a merged color set. Callers are expected to pass colors that
// are already unique; use palette.Merge to build the set.
func Score(colors []palette.Color) (Result, error) {
	avg, err := AverageDistance(colors)
	if err != nil {
		return Result{ColorCount: len(colors)}, err
	}

	countScore := CountBand.Score(float64(len(colors)))
	distanceScore := DistanceBand.Score(avg)

	return Result{
		Score:           (countScore + distanceScore) / 2,
		CountScore:      countScore,
		DistanceScore:   distanceScore,
		AverageDistance: avg,
		ColorCount:      len(colors),
	}, nil
}
