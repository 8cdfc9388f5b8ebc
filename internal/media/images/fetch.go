// Package images downloads, decodes, and downscales profile images so the
// palette extractor always sees a small working copy.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/profilehue/profilehue-server/internal/palette"
)

const (
	// MaxImageBytes limits download size to prevent memory exhaustion.
	MaxImageBytes = 10 * 1024 * 1024

	// WorkingSize is the long-edge size images are reduced to before extraction.
	WorkingSize = 100

	// maxPixels rejects decompression bombs before the full decode.
	maxPixels = 40_000_000

	downloadTimeout = 30 * time.Second
)

// Errors returned by Fetch.
var (
	ErrEmptyURL    = errors.New("empty image URL")
	ErrTooLarge    = errors.New("image exceeds size limit")
	ErrNotAnImage  = errors.New("response is not an image")
	ErrBadStatus   = errors.New("unexpected response status")
	ErrUnsupported = errors.New("unsupported image format")
)

// Fetcher downloads images over HTTP.
type Fetcher struct {
	http        *http.Client
	logger      *slog.Logger
	userAgent   string
	workingSize int
}

// NewFetcher creates a Fetcher with the default timeout and working size.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		http:        &http.Client{Timeout: downloadTimeout},
		logger:      logger,
		userAgent:   "profilehue/1.0 (+https://github.com/profilehue/profilehue-server)",
		workingSize: WorkingSize,
	}
}

// Fetch downloads url and returns it decoded, EXIF-oriented, and scaled to
// fit within the working size.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/webp,image/png,image/jpeg,image/*;q=0.8")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !isImageContentType(ct) {
		return nil, fmt.Errorf("%w: content type %q", ErrNotAnImage, ct)
	}

	// Read one byte past the limit so oversize bodies are detected, not truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, ErrTooLarge
	}

	return Decode(data, f.workingSize)
}

// Decode decodes raw image bytes and scales the result to fit size x size.
// Smaller images are returned at their original size.
func Decode(data []byte, size int) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d %s", ErrTooLarge, cfg.Width, cfg.Height, format)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	return imaging.Fit(img, size, size, imaging.Lanczos), nil
}

// Open loads a local image file at working size.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return imaging.Fit(img, WorkingSize, WorkingSize, imaging.Lanczos), nil
}

// Palette fetches url and extracts its palette. It never fails: any fetch
// or decode error is logged and an empty palette is returned, so one bad
// image does not sink an analysis that has a second one.
func (f *Fetcher) Palette(ctx context.Context, url string, ex *palette.Extractor) (palette.Palette, image.Image) {
	img, err := f.Fetch(ctx, url)
	if err != nil {
		if !errors.Is(err, ErrEmptyURL) {
			f.logger.Warn("image fetch failed, using empty palette",
				"url", url,
				"error", err,
			)
		}
		return palette.Palette{}, nil
	}
	return ex.Extract(img), img
}

func isImageContentType(ct string) bool {
	if ct == "" {
		return true // let the decoder decide
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") || mediaType == "application/octet-stream"
}
