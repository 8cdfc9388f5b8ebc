// Package store defines persistence for analyses and the errors shared by
// its implementations.
package store

import (
	"context"
	"time"

	"github.com/profilehue/profilehue-server/internal/domain"
)

// Store persists analyses keyed by handle.
type Store interface {
	// SaveAnalysis inserts or replaces the record for a.Handle. On replace the
	// existing ID and CreatedAt are kept and written back into a.
	SaveAnalysis(ctx context.Context, a *domain.Analysis) error
	GetAnalysisByHandle(ctx context.Context, handle string) (*domain.Analysis, error)
	// GetAnalysesByHandles returns records in the order of handles, skipping misses.
	GetAnalysesByHandles(ctx context.Context, handles []string) ([]*domain.Analysis, error)
	DeleteAnalysis(ctx context.Context, handle string) error

	// TopAnalyses orders by harmony score descending, earliest analysis first on ties.
	TopAnalyses(ctx context.Context, limit int) ([]*domain.Analysis, error)
	// RecentAnalyses orders by analysis time, newest first.
	RecentAnalyses(ctx context.Context, limit int) ([]*domain.Analysis, error)
	// StaleAnalyses returns records last updated before cutoff, oldest first.
	StaleAnalyses(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Analysis, error)
	CountAnalyses(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
