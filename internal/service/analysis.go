// Package service composes the palette core with its collaborators:
// profile lookup, image download, text generation, persistence and search.
package service

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/profilehue/profilehue-server/internal/cache"
	"github.com/profilehue/profilehue-server/internal/domain"
	domainerrors "github.com/profilehue/profilehue-server/internal/errors"
	"github.com/profilehue/profilehue-server/internal/gemini"
	"github.com/profilehue/profilehue-server/internal/harmony"
	"github.com/profilehue/profilehue-server/internal/media/images"
	"github.com/profilehue/profilehue-server/internal/palette"
	"github.com/profilehue/profilehue-server/internal/store"
	"github.com/profilehue/profilehue-server/internal/twitter"
	"github.com/profilehue/profilehue-server/internal/validation"
)

// UserLookup resolves a handle to its profile and banner images.
type UserLookup interface {
	LookupUser(ctx context.Context, handle string) (*twitter.User, error)
}

// TextGenerator turns a prompt into a short description.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PaletteSource downloads an image and extracts its palette, failing soft.
// The decoded image is nil when the download failed.
type PaletteSource interface {
	Palette(ctx context.Context, url string, ex *palette.Extractor) (palette.Palette, image.Image)
}

// Indexer keeps the search index in step with the store.
type Indexer interface {
	IndexAnalysis(a *domain.Analysis) error
	DeleteAnalysis(handle string) error
}

// AnalyzeOptions tunes a single analysis.
type AnalyzeOptions struct {
	// Force skips the freshness check and the palette cache.
	Force bool
}

// AnalysisDeps are the collaborators of AnalysisService. Cache and Indexer
// may be nil.
type AnalysisDeps struct {
	Store     store.Store
	Users     UserLookup
	Images    PaletteSource
	Text      TextGenerator
	Cache     cache.PaletteCache
	Indexer   Indexer
	Extractor *palette.Extractor
	Validator *validation.Validator
	Logger    *slog.Logger
	// MaxAge is how long a stored record is served without a new lookup.
	MaxAge time.Duration
}

// AnalysisService analyzes profiles and persists the results.
type AnalysisService struct {
	store     store.Store
	users     UserLookup
	images    PaletteSource
	text      TextGenerator
	cache     cache.PaletteCache
	indexer   Indexer
	extractor *palette.Extractor
	validator *validation.Validator
	logger    *slog.Logger
	maxAge    time.Duration
	now       func() time.Time
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(deps AnalysisDeps) *AnalysisService {
	s := &AnalysisService{
		store:     deps.Store,
		users:     deps.Users,
		images:    deps.Images,
		text:      deps.Text,
		cache:     deps.Cache,
		indexer:   deps.Indexer,
		extractor: deps.Extractor,
		validator: deps.Validator,
		logger:    deps.Logger,
		maxAge:    deps.MaxAge,
		now:       time.Now,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.extractor == nil {
		s.extractor = palette.NewExtractor(nil)
	}
	if s.validator == nil {
		s.validator = validation.New()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// NormalizeHandle strips whitespace and a leading "@", then validates the
// handle. It returns the handle as typed and its case-folded storage key.
func (s *AnalysisService) NormalizeHandle(raw string) (handle, key string, err error) {
	handle = strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if err := s.validator.Var("handle", handle, "required,handle"); err != nil {
		return "", "", err
	}
	// Casers are stateful, so build one per call.
	return handle, cases.Fold().String(handle), nil
}

// Analyze returns a fresh analysis for handle, computing it when the stored
// record is missing, stale or forced. Colors are recomputed only when the
// profile or banner image changed, or when forced.
func (s *AnalysisService) Analyze(ctx context.Context, raw string, opts AnalyzeOptions) (*domain.Analysis, error) {
	handle, key, err := s.NormalizeHandle(raw)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("handle", key)

	existing, err := s.store.GetAnalysisByHandle(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to load analysis")
	}

	now := s.now()
	if existing != nil && !opts.Force && !existing.IsStale(now, s.maxAge) {
		logger.Debug("serving stored analysis")
		return existing, nil
	}

	user, err := s.users.LookupUser(ctx, handle)
	if err != nil {
		return nil, lookupError(err, key)
	}

	if existing != nil && !opts.Force && existing.SameImages(user.ProfileImageURL, user.ProfileBannerURL) {
		existing.DisplayName = user.Name
		existing.Touch(now)
		// A blank description means generation failed last time; retry it.
		if existing.Description == "" {
			if merged, err := existing.MergedColors(); err == nil {
				existing.Description = s.describe(ctx, logger, merged)
			}
		}
		if err := s.save(ctx, existing); err != nil {
			return nil, err
		}
		logger.Debug("images unchanged, kept stored colors")
		return existing, nil
	}

	a := &domain.Analysis{
		Handle:          key,
		DisplayName:     user.Name,
		ProfileImageURL: user.ProfileImageURL,
		BannerImageURL:  user.ProfileBannerURL,
		CreatedAt:       now,
		UpdatedAt:       now,
		AnalyzedAt:      now,
	}
	if existing != nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	}

	var (
		profile, banner palette.Palette
		profileImg      image.Image
		wg              sync.WaitGroup
	)
	wg.Go(func() {
		profile, profileImg = s.paletteFor(ctx, a.ProfileImageURL, opts.Force)
	})
	wg.Go(func() {
		banner, _ = s.paletteFor(ctx, a.BannerImageURL, opts.Force)
	})
	wg.Wait()

	a.ProfileColors = profile.Hex()
	a.BannerColors = banner.Hex()

	merged := palette.Merge(profile, banner)
	a.ColorCount = len(merged)
	result, err := harmony.Score(merged)
	switch {
	case errors.Is(err, harmony.ErrTooFewColors):
		logger.Warn("too few colors to score, recording zero",
			"colors", len(merged),
		)
	case err != nil:
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to score palette")
	default:
		a.HarmonyScore = result.Score
		a.CountScore = result.CountScore
		a.DistanceScore = result.DistanceScore
		a.AverageDistance = result.AverageDistance
	}

	a.Description = s.describe(ctx, logger, merged)
	a.ProfileBlurhash = s.blurhash(logger, profileImg, existing, a.ProfileImageURL)

	if err := s.save(ctx, a); err != nil {
		return nil, err
	}

	logger.Info("profile analyzed",
		"score", a.HarmonyScore,
		"colors", a.ColorCount,
		"forced", opts.Force,
	)
	return a, nil
}

// Delete removes the stored analysis for handle and its search document.
func (s *AnalysisService) Delete(ctx context.Context, raw string) error {
	_, key, err := s.NormalizeHandle(raw)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAnalysis(ctx, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("no analysis for @%s", key)
		}
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to delete analysis")
	}
	if s.indexer != nil {
		if err := s.indexer.DeleteAnalysis(key); err != nil {
			s.logger.Warn("failed to remove analysis from index", "handle", key, "error", err)
		}
	}
	return nil
}

// postpone marks a record as checked at the current time so a failing
// refresh does not keep it at the head of the stale list.
func (s *AnalysisService) postpone(ctx context.Context, a *domain.Analysis) error {
	a.Touch(s.now())
	if err := s.store.SaveAnalysis(ctx, a); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to save analysis")
	}
	return nil
}

// paletteFor returns the palette for url, going through the cache unless
// forced. Only non-empty palettes are cached so failed downloads are retried.
func (s *AnalysisService) paletteFor(ctx context.Context, url string, force bool) (palette.Palette, image.Image) {
	if url == "" {
		return palette.Palette{}, nil
	}

	if !force {
		cached, err := s.cache.Get(ctx, url)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("palette cache read failed", "url", url, "error", err)
		}
	}

	p, img := s.images.Palette(ctx, url, s.extractor)
	if len(p) > 0 {
		if err := s.cache.Set(ctx, url, p); err != nil {
			s.logger.Warn("palette cache write failed", "url", url, "error", err)
		}
	}
	return p, img
}

// describe asks the text generator for a description. Failures yield "".
func (s *AnalysisService) describe(ctx context.Context, logger *slog.Logger, merged palette.Palette) string {
	if s.text == nil || len(merged) == 0 {
		return ""
	}
	text, err := s.text.Generate(ctx, gemini.PalettePrompt(merged))
	if err != nil {
		logger.Warn("description generation failed", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// blurhash encodes the profile image. On a cache hit there is no image, so
// the previous hash is kept when the profile image is the same.
func (s *AnalysisService) blurhash(logger *slog.Logger, img image.Image, existing *domain.Analysis, profileURL string) string {
	if img == nil {
		if existing != nil && existing.ProfileImageURL == profileURL {
			return existing.ProfileBlurhash
		}
		return ""
	}
	hash, err := images.BlurHash(img)
	if err != nil {
		logger.Warn("blurhash failed", "error", err)
		return ""
	}
	return hash
}

func (s *AnalysisService) save(ctx context.Context, a *domain.Analysis) error {
	if err := s.store.SaveAnalysis(ctx, a); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to save analysis")
	}
	if s.indexer != nil {
		if err := s.indexer.IndexAnalysis(a); err != nil {
			s.logger.Warn("failed to index analysis", "handle", a.Handle, "error", err)
		}
	}
	return nil
}

// lookupError maps profile lookup failures to domain errors.
func lookupError(err error, handle string) error {
	switch {
	case errors.Is(err, twitter.ErrNotFound):
		return domainerrors.Wrapf(err, domainerrors.CodeNotFound, "user @%s does not exist", handle)
	case errors.Is(err, twitter.ErrRateLimited):
		return domainerrors.Wrap(err, domainerrors.CodeRateLimited, "profile lookups are rate limited, try again later")
	case errors.Is(err, twitter.ErrNoToken):
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "profile lookups are not configured")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "profile lookup timed out")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeUpstream, "profile lookup failed")
	}
}
