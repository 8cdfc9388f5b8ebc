package palette

import "strings"

// DefaultThreshold is the minimum RGB distance between two accepted colors.
const DefaultThreshold = 30.0

// Palette is an ordered, duplicate-free sequence of colors from one image.
type Palette []Color

// Hex returns the hex form of every color, in order.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// FromHex parses a list of hex strings into a palette.
// Order and duplicates are preserved as given.
func FromHex(values []string) (Palette, error) {
	out := make(Palette, 0, len(values))
	for _, v := range values {
		c, err := ParseHex(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// FilterSimilar walks colors in order and keeps a color only if it is at
// least tau away from every color kept so far. The first color seen in a
// group of near-duplicates wins.
func FilterSimilar(colors []Color, tau float64) Palette {
	out := make(Palette, 0, len(colors))
	for _, c := range colors {
		accepted := true
		for _, kept := range out {
			if Distance(c, kept) < tau {
				accepted = false
				break
			}
		}
		if accepted {
			out = append(out, c)
		}
	}
	return out
}

// Merge returns the union of the given palettes, unique by exact value.
// Colors keep first-occurrence order, so profile colors precede banner colors
// when called as Merge(profile, banner).
func Merge(palettes ...Palette) Palette {
	seen := make(map[Color]struct{})
	var out Palette
	for _, p := range palettes {
		for _, c := range p {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// JoinHex joins the hex form of colors with a single comma.
func JoinHex(colors []Color) string {
	return strings.Join(Palette(colors).Hex(), ",")
}
