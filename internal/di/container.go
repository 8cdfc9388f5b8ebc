// Package di provides dependency injection configuration for the profilehue server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/profilehue/profilehue-server/internal/config"
	"github.com/profilehue/profilehue-server/internal/di/providers"
	"github.com/profilehue/profilehue-server/internal/logger"
	"github.com/profilehue/profilehue-server/internal/media/images"
	"github.com/profilehue/profilehue-server/internal/palette"
	"github.com/profilehue/profilehue-server/internal/service"
	"github.com/profilehue/profilehue-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Collaborators
	do.Provide(injector, providers.ProvideTwitterClient)
	do.Provide(injector, providers.ProvideGeminiClient)
	do.Provide(injector, providers.ProvideImageFetcher)
	do.Provide(injector, providers.ProvideExtractor)

	// Business services
	do.Provide(injector, providers.ProvideAnalysisService)
	do.Provide(injector, providers.ProvideLeaderboard)

	// Workers
	do.Provide(injector, providers.ProvideRefresher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.TwitterClientHandle](injector)
	_ = do.MustInvoke[*providers.GeminiClientHandle](injector)
	_ = do.MustInvoke[*images.Fetcher](injector)
	if _, err := do.Invoke[*palette.Extractor](injector); err != nil {
		return err
	}

	// Business services
	_ = do.MustInvoke[*service.AnalysisService](injector)
	_ = do.MustInvoke[*service.Leaderboard](injector)

	// Workers
	if _, err := do.Invoke[*providers.RefresherHandle](injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
