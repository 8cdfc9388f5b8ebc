package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/profilehue/profilehue-server/internal/palette"
)

// Badger is an embedded on-disk cache.
type Badger struct {
	db        *badger.DB
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewBadger opens a badger cache at path, or in memory when path is empty.
// Keys are scoped to namespace.
func NewBadger(path, namespace string, ttl time.Duration, logger *slog.Logger) (*Badger, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Disable Badger's internal logging
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}

	if logger != nil {
		logger.Info("palette cache opened", "backend", BackendBadger, "path", path, "namespace", namespace)
	}
	return &Badger{db: db, namespace: namespace, ttl: ttl, logger: logger}, nil
}

// Get returns the cached palette for imageURL, or ErrMiss.
func (b *Badger) Get(_ context.Context, imageURL string) (palette.Palette, error) {
	var p palette.Palette
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(b.namespace, imageURL)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			p, err = decode(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Set caches p for imageURL with the configured TTL. Empty palettes are skipped.
func (b *Badger) Set(_ context.Context, imageURL string, p palette.Palette) error {
	if len(p) == 0 {
		return nil
	}
	data, err := encode(p)
	if err != nil {
		return fmt.Errorf("failed to marshal palette: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(Key(b.namespace, imageURL)), data)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Close flushes and closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
