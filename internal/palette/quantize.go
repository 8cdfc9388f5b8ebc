package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/EdlinOrg/prominentcolor"
)

// ErrNoPixels is returned when an image has nothing to quantize.
var ErrNoPixels = errors.New("image has no opaque pixels")

// Quantizer reduces an image to at most k representative colors.
// Results are ordered most prominent first.
type Quantizer interface {
	Quantize(img image.Image, k int) ([]Color, error)
	// Name identifies the quantizer in configuration and cache keys.
	Name() string
}

// KMeans clusters pixels with k-means (prominentcolor, k-means++ seeding).
//
// prominentcolor seeds from the global math/rand source on every call, so
// an image with more than k distinct colors may cluster differently from
// run to run. Images with at most k distinct colors always return exactly
// those colors.
type KMeans struct{}

// Name implements Quantizer.
func (KMeans) Name() string { return QuantizerKMeans }

// Quantize implements Quantizer. Pixels are filtered and un-premultiplied
// the same way MedianCut reads them before clustering.
func (KMeans) Quantize(img image.Image, k int) ([]Color, error) {
	if k <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	flat, n := flattenAlpha(img)
	if n == 0 {
		return nil, ErrNoPixels
	}

	// Inputs are already at working resolution, so no resize or background crop.
	items, err := prominentcolor.KmeansWithAll(k, flat, prominentcolor.ArgumentNoCropping, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}

	// Most prominent first, ties in ascending hex order.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Cnt != items[j].Cnt {
			return items[i].Cnt > items[j].Cnt
		}
		return items[i].AsString() < items[j].AsString()
	})

	out := make([]Color, 0, len(items))
	for _, item := range items {
		// A cluster that lost all its pixels comes back as black with no count.
		if item.Cnt == 0 {
			continue
		}
		out = append(out, Color{
			R: uint8(item.Color.R),
			G: uint8(item.Color.G),
			B: uint8(item.Color.B),
		})
	}
	return out, nil
}

// flattenAlpha copies img into an NRGBA where every kept pixel is opaque and
// every dropped pixel is fully transparent, which prominentcolor skips.
// It returns the number of kept pixels.
func flattenAlpha(img image.Image) (*image.NRGBA, int) {
	if img == nil {
		return nil, 0
	}
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := opaqueAt(img, x, y)
			if !ok {
				continue
			}
			out.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
			n++
		}
	}
	return out, n
}

// MedianCut splits the color space into boxes along the widest channel at
// the median pixel until k boxes exist. Each box contributes its mean color.
// It is fully deterministic.
type MedianCut struct{}

// Name implements Quantizer.
func (MedianCut) Name() string { return QuantizerMedianCut }

type colorBox struct {
	pixels []Color
	order  int
}

// Quantize implements Quantizer.
func (MedianCut) Quantize(img image.Image, k int) ([]Color, error) {
	if k <= 0 {
		return nil, fmt.Errorf("median cut: k must be positive, got %d", k)
	}
	pixels := opaquePixels(img)
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}

	boxes := []colorBox{{pixels: pixels}}
	next := 1
	for len(boxes) < k {
		idx := widestBox(boxes)
		if idx < 0 {
			break
		}
		lo, hi := splitBox(boxes[idx].pixels)
		boxes[idx] = colorBox{pixels: lo, order: boxes[idx].order}
		boxes = append(boxes, colorBox{pixels: hi, order: next})
		next++
	}

	sort.SliceStable(boxes, func(i, j int) bool {
		if len(boxes[i].pixels) != len(boxes[j].pixels) {
			return len(boxes[i].pixels) > len(boxes[j].pixels)
		}
		return boxes[i].order < boxes[j].order
	})

	out := make([]Color, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, meanColor(b.pixels))
	}
	return out, nil
}

func opaquePixels(img image.Image) []Color {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	pixels := make([]Color, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if c, ok := opaqueAt(img, x, y); ok {
				pixels = append(pixels, c)
			}
		}
	}
	return pixels
}

// opaqueAt reads the pixel at (x, y), dropping pixels below half alpha.
func opaqueAt(img image.Image, x, y int) (Color, bool) {
	r, g, b, a := img.At(x, y).RGBA()
	if a < 0x8000 {
		return Color{}, false
	}
	// Un-premultiply so translucent edges keep their hue.
	r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}, true
}

// widestBox returns the index of the splittable box with the largest
// channel range, or -1 when every box holds a single distinct color.
func widestBox(boxes []colorBox) int {
	best, bestRange := -1, 0
	for i, b := range boxes {
		if len(b.pixels) < 2 {
			continue
		}
		_, r := widestChannel(b.pixels)
		if r > bestRange {
			best, bestRange = i, r
		}
	}
	return best
}

func widestChannel(pixels []Color) (channel int, span int) {
	minC := [3]int{255, 255, 255}
	maxC := [3]int{0, 0, 0}
	for _, p := range pixels {
		v := [3]int{int(p.R), int(p.G), int(p.B)}
		for i := range v {
			minC[i] = min(minC[i], v[i])
			maxC[i] = max(maxC[i], v[i])
		}
	}
	for i := range 3 {
		if d := maxC[i] - minC[i]; d > span {
			channel, span = i, d
		}
	}
	return channel, span
}

func splitBox(pixels []Color) (lo, hi []Color) {
	channel, _ := widestChannel(pixels)
	sorted := make([]Color, len(pixels))
	copy(sorted, pixels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return component(sorted[i], channel) < component(sorted[j], channel)
	})

	mid := len(sorted) / 2
	// Keep equal values on one side so both halves differ in color.
	pivot := component(sorted[mid], channel)
	for mid > 0 && component(sorted[mid-1], channel) == pivot {
		mid--
	}
	if mid == 0 {
		for mid < len(sorted) && component(sorted[mid], channel) == pivot {
			mid++
		}
	}
	return sorted[:mid], sorted[mid:]
}

func component(c Color, channel int) uint8 {
	switch channel {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

func meanColor(pixels []Color) Color {
	var r, g, b int
	for _, p := range pixels {
		r += int(p.R)
		g += int(p.G)
		b += int(p.B)
	}
	n := len(pixels)
	return Color{
		R: uint8((r + n/2) / n),
		G: uint8((g + n/2) / n),
		B: uint8((b + n/2) / n),
	}
}
