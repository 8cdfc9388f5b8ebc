package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/profilehue/profilehue-server/internal/config"
	"github.com/profilehue/profilehue-server/internal/logger"
	"github.com/profilehue/profilehue-server/internal/service"
)

// RefresherHandle wraps the background refresher with shutdown capability.
type RefresherHandle struct {
	*service.Refresher
}

// Shutdown implements do.Shutdownable.
func (h *RefresherHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.Stop(ctx)
	return nil
}

// ProvideRefresher provides and starts the stale-record refresher.
func ProvideRefresher(i do.Injector) (*RefresherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	analyses := do.MustInvoke[*service.AnalysisService](i)

	r := service.NewRefresher(analyses, storeHandle.Store, service.RefresherConfig{
		Schedule: cfg.Analysis.RefreshSchedule,
		Batch:    cfg.Analysis.RefreshBatch,
		MaxAge:   cfg.Analysis.MaxAge,
	}, log.Logger)

	if err := r.Start(); err != nil {
		return nil, err
	}

	return &RefresherHandle{Refresher: r}, nil
}
