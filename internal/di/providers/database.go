package providers

import (
	"context"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/profilehue/profilehue-server/internal/cache"
	"github.com/profilehue/profilehue-server/internal/config"
	"github.com/profilehue/profilehue-server/internal/logger"
	"github.com/profilehue/profilehue-server/internal/palette"
	"github.com/profilehue/profilehue-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the analyses store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Database.Driver == sqlstore.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sqlstore.Open(sqlstore.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", db.Driver())

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the palette cache with shutdown capability.
type CacheHandle struct {
	cache.PaletteCache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the palette cache for the configured backend.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	extractor, err := do.Invoke[*palette.Extractor](i)
	if err != nil {
		return nil, err
	}

	pc, err := cache.Open(context.Background(), cache.Config{
		Backend:   cfg.Cache.Backend,
		Namespace: extractor.Fingerprint(),
		Path:      cfg.Cache.Path,
		RedisAddr: cfg.Cache.RedisAddr,
		RedisDB:   cfg.Cache.RedisDB,
		TTL:       cfg.Cache.TTL,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Palette cache initialized",
		"backend", cfg.Cache.Backend,
		"namespace", extractor.Fingerprint(),
		"ttl", cfg.Cache.TTL,
	)

	return &CacheHandle{PaletteCache: pc}, nil
}
