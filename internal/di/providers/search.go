package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/profilehue/profilehue-server/internal/config"
	"github.com/profilehue/profilehue-server/internal/logger"
	"github.com/profilehue/profilehue-server/internal/search"
)

// reindexBatch bounds how many records are loaded for the initial reindex.
const reindexBatch = 100_000

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Search.Path,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the store.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	total, err := storeHandle.CountAnalyses(ctx)
	if err != nil || total == 0 {
		return
	}

	log.Info("Search index is empty but analyses exist, triggering initial reindex",
		"analysis_count", total,
	)

	go func() {
		analyses, err := storeHandle.RecentAnalyses(context.Background(), reindexBatch)
		if err != nil {
			log.WithError(err).Error("Initial search reindex failed")
			return
		}
		if err := indexHandle.Rebuild(analyses); err != nil {
			log.WithError(err).Error("Initial search reindex failed")
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
