package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/profilehue/profilehue-server/internal/domain"
	"github.com/profilehue/profilehue-server/internal/id"
	"github.com/profilehue/profilehue-server/internal/store"
)

// analysisColumns is the ordered list of columns selected in analysis queries.
// Must match the scan order in scanAnalysis.
const analysisColumns = `id, handle, display_name, profile_image, banner_image,
	profile_colors, banner_colors, harmony_score, count_score, distance_score,
	average_distance, color_count, description, profile_blurhash,
	created_at, updated_at, analyzed_at`

// updatableColumns are overwritten when a handle is saved again. id and
// created_at belong to the first save.
var updatableColumns = []string{
	"display_name", "profile_image", "banner_image",
	"profile_colors", "banner_colors", "harmony_score", "count_score",
	"distance_score", "average_distance", "color_count", "description",
	"profile_blurhash", "updated_at", "analyzed_at",
}

func scanAnalysis(scanner interface{ Scan(dest ...any) error }) (*domain.Analysis, error) {
	var (
		a             domain.Analysis
		profileColors string
		bannerColors  string
		createdAt     string
		updatedAt     string
		analyzedAt    string
	)

	err := scanner.Scan(
		&a.ID,
		&a.Handle,
		&a.DisplayName,
		&a.ProfileImageURL,
		&a.BannerImageURL,
		&profileColors,
		&bannerColors,
		&a.HarmonyScore,
		&a.CountScore,
		&a.DistanceScore,
		&a.AverageDistance,
		&a.ColorCount,
		&a.Description,
		&a.ProfileBlurhash,
		&createdAt,
		&updatedAt,
		&analyzedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.ProfileColors, err = decodeColors(profileColors); err != nil {
		return nil, fmt.Errorf("decode profile_colors for %s: %w", a.Handle, err)
	}
	if a.BannerColors, err = decodeColors(bannerColors); err != nil {
		return nil, fmt.Errorf("decode banner_colors for %s: %w", a.Handle, err)
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if a.AnalyzedAt, err = parseTime(analyzedAt); err != nil {
		return nil, err
	}

	return &a, nil
}

func encodeColors(colors []string) (string, error) {
	if colors == nil {
		colors = []string{}
	}
	data, err := json.Marshal(colors)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeColors(s string) ([]string, error) {
	colors := []string{}
	if s == "" {
		return colors, nil
	}
	if err := json.Unmarshal([]byte(s), &colors); err != nil {
		return nil, err
	}
	return colors, nil
}

// SaveAnalysis inserts or replaces the record for a.Handle.
// Zero timestamps are filled with the current time; an empty ID gets a new one.
func (s *Store) SaveAnalysis(ctx context.Context, a *domain.Analysis) error {
	if a == nil || a.Handle == "" {
		return store.ErrInvalidInput.WithMessage("analysis handle is required")
	}

	now := time.Now().UTC()
	if a.ID == "" {
		newID, err := id.Generate(id.PrefixAnalysis)
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		a.ID = newID
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = now
	}

	profileColors, err := encodeColors(a.ProfileColors)
	if err != nil {
		return fmt.Errorf("encode profile colors: %w", err)
	}
	bannerColors, err := encodeColors(a.BannerColors)
	if err != nil {
		return fmt.Errorf("encode banner colors: %w", err)
	}

	query := `INSERT INTO analyses (` + analysisColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ` +
		s.dialect.upsert(updatableColumns)

	_, err = s.db.ExecContext(ctx, s.dialect.rebind(query),
		a.ID,
		a.Handle,
		a.DisplayName,
		a.ProfileImageURL,
		a.BannerImageURL,
		profileColors,
		bannerColors,
		a.HarmonyScore,
		a.CountScore,
		a.DistanceScore,
		a.AverageDistance,
		a.ColorCount,
		a.Description,
		a.ProfileBlurhash,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
		formatTime(a.AnalyzedAt),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.Handle, err)
	}

	// An existing row keeps its id and created_at.
	var createdAt string
	err = s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT id, created_at FROM analyses WHERE handle = ?`),
		a.Handle,
	).Scan(&a.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("reload analysis %s: %w", a.Handle, err)
	}
	a.CreatedAt, err = parseTime(createdAt)
	return err
}

// GetAnalysisByHandle returns the record for handle or store.ErrNotFound.
func (s *Store) GetAnalysisByHandle(ctx context.Context, handle string) (*domain.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT `+analysisColumns+` FROM analyses WHERE handle = ?`),
		handle,
	)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAnalysesByHandles returns records in the order of handles, skipping misses.
func (s *Store) GetAnalysesByHandles(ctx context.Context, handles []string) ([]*domain.Analysis, error) {
	if len(handles) == 0 {
		return []*domain.Analysis{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(handles)), ", ")
	args := make([]any, len(handles))
	for i, h := range handles {
		args[i] = h
	}

	found, err := s.queryAnalyses(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE handle IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, err
	}

	byHandle := make(map[string]*domain.Analysis, len(found))
	for _, a := range found {
		byHandle[a.Handle] = a
	}
	result := make([]*domain.Analysis, 0, len(found))
	for _, h := range handles {
		if a, ok := byHandle[h]; ok {
			result = append(result, a)
			delete(byHandle, h)
		}
	}
	return result, nil
}

// DeleteAnalysis removes the record for handle or returns store.ErrNotFound.
func (s *Store) DeleteAnalysis(ctx context.Context, handle string) error {
	res, err := s.db.ExecContext(ctx,
		s.dialect.rebind(`DELETE FROM analyses WHERE handle = ?`), handle)
	if err != nil {
		return fmt.Errorf("delete analysis %s: %w", handle, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// TopAnalyses returns up to limit records by harmony score, highest first.
// Ties go to the profile analyzed earliest.
func (s *Store) TopAnalyses(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	return s.queryAnalyses(ctx,
		`SELECT `+analysisColumns+` FROM analyses
		ORDER BY harmony_score DESC, analyzed_at ASC, handle ASC
		LIMIT ?`, limit)
}

// RecentAnalyses returns up to limit records, most recently analyzed first.
func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	return s.queryAnalyses(ctx,
		`SELECT `+analysisColumns+` FROM analyses
		ORDER BY analyzed_at DESC, handle ASC
		LIMIT ?`, limit)
}

// StaleAnalyses returns up to limit records last updated before cutoff, oldest first.
func (s *Store) StaleAnalyses(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Analysis, error) {
	return s.queryAnalyses(ctx,
		`SELECT `+analysisColumns+` FROM analyses
		WHERE updated_at < ?
		ORDER BY updated_at ASC, handle ASC
		LIMIT ?`, formatTime(cutoff), limit)
}

// CountAnalyses returns the number of stored records.
func (s *Store) CountAnalyses(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) queryAnalyses(ctx context.Context, query string, args ...any) ([]*domain.Analysis, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
