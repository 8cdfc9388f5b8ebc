package harmony

import (
	"testing"

	"github.com/profilehue/profilehue-server/internal/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandScore(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		min, max float64
		want     float64
	}{
		{"zero", 0, 12, 16, 0},
		{"below band", 6, 12, 16, 2.5},
		{"band minimum", 12, 12, 16, 5},
		{"band midpoint", 14, 12, 16, 7.5},
		{"band maximum", 16, 12, 16, 10},
		{"above band", 24, 12, 16, 7.5},
		{"far above band goes negative", 64, 12, 16, -5},
		{"distance band minimum", 70, 70, 180, 5},
		{"distance band maximum", 180, 70, 180, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BandScore(tt.v, tt.min, tt.max), 1e-9)
		})
	}
}

func TestAverageDistance(t *testing.T) {
	t.Run("two colors", func(t *testing.T) {
		avg, err := AverageDistance([]palette.Color{palette.RGB(0, 0, 0), palette.RGB(0, 0, 30)})
		require.NoError(t, err)
		assert.Equal(t, 30.0, avg)
	})

	t.Run("three colors average all pairs", func(t *testing.T) {
		avg, err := AverageDistance([]palette.Color{
			palette.RGB(0, 0, 0), palette.RGB(30, 0, 0), palette.RGB(60, 0, 0),
		})
		require.NoError(t, err)
		assert.InDelta(t, 40.0, avg, 1e-9) // (30 + 60 + 30) / 3
	})

	t.Run("fewer than two colors", func(t *testing.T) {
		_, err := AverageDistance([]palette.Color{palette.RGB(1, 1, 1)})
		assert.ErrorIs(t, err, ErrTooFewColors)

		_, err = AverageDistance(nil)
		assert.ErrorIs(t, err, ErrTooFewColors)
	})
}

func TestScore(t *testing.T) {
	t.Run("black and white", func(t *testing.T) {
		res, err := Score([]palette.Color{palette.RGB(0, 0, 0), palette.RGB(255, 255, 255)})
		require.NoError(t, err)

		assert.Equal(t, 2, res.ColorCount)
		assert.InDelta(t, 441.673, res.AverageDistance, 0.001)
		assert.InDelta(t, 0.8333, res.CountScore, 0.0001)
		assert.InDelta(t, 2.731, res.DistanceScore, 0.001)
		assert.InDelta(t, 1.78, res.Score, 0.005)
	})

	t.Run("ideal palette lands inside both bands", func(t *testing.T) {
		var colors []palette.Color
		for i := range 14 {
			v := uint8(i * 18)
			colors = append(colors, palette.RGB(v, 255-v, uint8(i*9)))
		}
		res, err := Score(colors)
		require.NoError(t, err)
		assert.InDelta(t, 7.5, res.CountScore, 1e-9)
		assert.GreaterOrEqual(t, res.Score, 5.0)
	})

	t.Run("single color", func(t *testing.T) {
		res, err := Score([]palette.Color{palette.RGB(10, 10, 10)})
		assert.ErrorIs(t, err, ErrTooFewColors)
		assert.Equal(t, 1, res.ColorCount)
	})
}
