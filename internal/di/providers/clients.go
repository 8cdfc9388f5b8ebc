package providers

import (
	"github.com/samber/do/v2"

	"github.com/profilehue/profilehue-server/internal/config"
	"github.com/profilehue/profilehue-server/internal/gemini"
	"github.com/profilehue/profilehue-server/internal/logger"
	"github.com/profilehue/profilehue-server/internal/media/images"
	"github.com/profilehue/profilehue-server/internal/palette"
	"github.com/profilehue/profilehue-server/internal/twitter"
)

// TwitterClientHandle wraps the Twitter client with shutdown capability.
type TwitterClientHandle struct {
	*twitter.Client
}

// Shutdown implements do.Shutdownable.
func (h *TwitterClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideTwitterClient provides the profile lookup client.
func ProvideTwitterClient(i do.Injector) (*TwitterClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Twitter.BearerToken == "" {
		log.Warn("TWITTER_API_TOKEN not set, profile lookups will fail")
	}

	client := twitter.New(twitter.Config{
		BaseURL:     cfg.Twitter.BaseURL,
		BearerToken: cfg.Twitter.BearerToken,
		RPS:         cfg.Twitter.RPS,
	}, log.WithComponent("twitter").Logger)

	return &TwitterClientHandle{Client: client}, nil
}

// GeminiClientHandle holds the text-generation client, which is nil when no
// API key is configured.
type GeminiClientHandle struct {
	*gemini.Client
}

// ProvideGeminiClient provides the description generator.
func ProvideGeminiClient(i do.Injector) (*GeminiClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Gemini.APIKey == "" {
		log.Info("GEMINI_API_KEY not set, descriptions disabled")
		return &GeminiClientHandle{}, nil
	}

	client := gemini.New(gemini.Config{
		BaseURL: cfg.Gemini.BaseURL,
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
	}, log.WithComponent("gemini").Logger)

	log.Info("Description generator ready", "model", client.Model())

	return &GeminiClientHandle{Client: client}, nil
}

// ProvideImageFetcher provides the image downloader.
func ProvideImageFetcher(i do.Injector) (*images.Fetcher, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return images.NewFetcher(log.WithComponent("images").Logger), nil
}

// ProvideExtractor provides the palette extractor for the configured quantizer.
func ProvideExtractor(i do.Injector) (*palette.Extractor, error) {
	cfg := do.MustInvoke[*config.Config](i)

	q, err := palette.QuantizerByName(cfg.Palette.Quantizer)
	if err != nil {
		return nil, err
	}

	ex := palette.NewExtractor(q)
	ex.K = cfg.Palette.K
	ex.Threshold = cfg.Palette.Threshold
	return ex, nil
}
