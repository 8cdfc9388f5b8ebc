// Package cache stores extracted palettes keyed by image URL so repeated
// analyses of an unchanged image skip the download and quantization.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/profilehue/profilehue-server/internal/palette"
)

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// ErrMiss is returned by Get when no palette is cached for the URL.
var ErrMiss = errors.New("cache: miss")

// PaletteCache stores palettes by image URL.
type PaletteCache interface {
	Get(ctx context.Context, imageURL string) (palette.Palette, error)
	// Set caches p for imageURL. Empty palettes are not stored.
	Set(ctx context.Context, imageURL string, p palette.Palette) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Namespace separates palettes built with different extractor settings;
	// see palette.Extractor.Fingerprint.
	Namespace string
	Path      string // badger directory; empty runs badger in memory
	RedisAddr string
	RedisDB   int
	TTL       time.Duration // zero keeps entries forever
}

// Open returns the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (PaletteCache, error) {
	switch cfg.Backend {
	case BackendBadger:
		return NewBadger(cfg.Path, cfg.Namespace, cfg.TTL, logger)
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.Namespace, cfg.TTL, logger)
	case BackendNone, "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key derives the storage key for an image URL within namespace.
func Key(namespace, imageURL string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(imageURL)).String()
	if namespace == "" {
		return "palette:" + id
	}
	return "palette:" + namespace + ":" + id
}

func encode(p palette.Palette) ([]byte, error) {
	return json.Marshal(p.Hex())
}

func decode(data []byte) (palette.Palette, error) {
	var hexes []string
	if err := json.Unmarshal(data, &hexes); err != nil {
		return nil, fmt.Errorf("decode cached palette: %w", err)
	}
	return palette.FromHex(hexes)
}

// Noop never stores anything.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) (palette.Palette, error) { return nil, ErrMiss }

// Set discards p.
func (Noop) Set(context.Context, string, palette.Palette) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }
