package providers

import (
	"github.com/samber/do/v2"

	"github.com/profilehue/profilehue-server/internal/config"
	"github.com/profilehue/profilehue-server/internal/logger"
	"github.com/profilehue/profilehue-server/internal/media/images"
	"github.com/profilehue/profilehue-server/internal/palette"
	"github.com/profilehue/profilehue-server/internal/service"
	"github.com/profilehue/profilehue-server/internal/validation"
)

// ProvideAnalysisService provides the analysis service.
func ProvideAnalysisService(i do.Injector) (*service.AnalysisService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	twitterHandle := do.MustInvoke[*TwitterClientHandle](i)
	geminiHandle := do.MustInvoke[*GeminiClientHandle](i)
	fetcher := do.MustInvoke[*images.Fetcher](i)
	extractor := do.MustInvoke[*palette.Extractor](i)
	validator := do.MustInvoke[*validation.Validator](i)

	// A nil *gemini.Client must not become a non-nil interface.
	var text service.TextGenerator
	if geminiHandle.Client != nil {
		text = geminiHandle.Client
	}

	return service.NewAnalysisService(service.AnalysisDeps{
		Store:     storeHandle.Store,
		Users:     twitterHandle.Client,
		Images:    fetcher,
		Text:      text,
		Cache:     cacheHandle.PaletteCache,
		Indexer:   indexHandle.Index,
		Extractor: extractor,
		Validator: validator,
		Logger:    log.WithComponent("analysis").Logger,
		MaxAge:    cfg.Analysis.MaxAge,
	}), nil
}

// ProvideLeaderboard provides the leaderboard and search service.
func ProvideLeaderboard(i do.Injector) (*service.Leaderboard, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	return service.NewLeaderboard(storeHandle.Store, indexHandle.Index, log.WithComponent("leaderboard").Logger), nil
}
