package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
)

// blurHashSize is the target size for BlurHash computation.
// A small thumbnail produces nearly identical hashes at a fraction of the cost.
const blurHashSize = 32

// BlurHash encodes img as a 4x3 component BlurHash placeholder.
func BlurHash(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("encode blurhash: empty image")
	}

	thumb := imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)

	hash, err := blurhash.Encode(4, 3, thumb)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}
