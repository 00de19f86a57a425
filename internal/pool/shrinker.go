package pool

import (
	"context"
	"log/slog"

	"github.com/emberfall/go-forge-perf/config"
	"github.com/emberfall/go-forge-perf/internal/shared/rate"
)

type Shrinker interface {
	Close() error
}

// ShrinkWorker periodically trims under-utilized pools so a burst does not
// hold memory for the rest of the session. It calls the supplied shrink
// closure rather than the registry directly, so the owner can wrap the call
// in whatever guard the registry needs.
type ShrinkWorker struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.ShrinkerCfg
	logger *slog.Logger
	jitter *rate.Jitter
	shrink func() int
}

func NewShrinker(ctx context.Context, cfg *config.ShrinkerCfg, logger *slog.Logger, shrink func() int) Shrinker {
	if !cfg.Enabled() {
		return &NoOpShrinker{}
	}

	ctx, cancel := context.WithCancel(ctx)
	return (&ShrinkWorker{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger,
		jitter: rate.NewJitter(ctx, cfg.CallsPerSec),
		shrink: shrink,
	}).run()
}

func (w *ShrinkWorker) Close() error {
	w.cancel()
	return nil
}

func (w *ShrinkWorker) run() *ShrinkWorker {
	w.logger.Info("pool shrinker is running", "calls_per_sec", w.cfg.CallsPerSec)

	go func() {
		defer w.logger.Info("pool shrinker is stopped")
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-w.jitter.Chan():
				w.shrink()
			}
		}
	}()

	return w
}
