package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/emberfall/go-forge-perf/config"
	"github.com/emberfall/go-forge-perf/internal/monitor"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Logs periodically writes per-interval component stats. Counters are
// cumulative at the sources; the sampler converts them to deltas.
type Logs struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.TelemetryCfg
	logger    *slog.Logger
	cache     CacheStats
	pool      PoolStats
	scheduler SchedulerStats
	mon       *monitor.Monitor
	interval  time.Duration
}

func New(
	ctx context.Context,
	cfg *config.TelemetryCfg,
	logger *slog.Logger,
	cache CacheStats,
	pool PoolStats,
	scheduler SchedulerStats,
	mon *monitor.Monitor,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	l := &Logs{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		logger:    logger,
		cache:     cache,
		pool:      pool,
		scheduler: scheduler,
		mon:       mon,
	}
	if cfg.Enabled() {
		l.interval = cfg.Interval
		go l.loop()
	}
	return l
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	s := newSampler(l.cache, l.pool, l.scheduler)
	prev := s.snapshot()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			l.logger.Info("cache_store",
				append(common,
					"hits", int64(d.cacheHits),
					"misses", int64(d.cacheMisses),
					"sets", int64(d.cacheSets),
					"evicted", int64(d.cacheEvictions),
					"expired", int64(d.cacheExpirations),
					"hit_rate", l.cache.HitRate(),
					"entries", l.cache.Len(),
				)...,
			)

			l.logger.Info("object_pools",
				append(common,
					"acquires", int64(d.poolAcquires),
					"releases", int64(d.poolReleases),
					"created", int64(d.poolCreated),
					"dropped", int64(d.poolDropped),
					"trimmed", int64(d.poolTrimmed),
					"utilization", l.pool.GlobalUtilization(),
				)...,
			)

			l.logger.Info("update_scheduler",
				append(common,
					"executed", int64(d.updatesExecuted),
					"merged", int64(d.updatesMerged),
					"skipped", int64(d.updatesSkipped),
					"batches", int64(d.batches),
					"frame_drops", int64(d.frameDrops),
					"pending", l.scheduler.PendingLen(),
					"throughput", l.scheduler.Throughput(),
				)...,
			)

			if l.mon != nil {
				if sample, ok := l.mon.LastSample(); ok {
					l.logger.Info("memory_monitor",
						append(common,
							"used_bytes", sample.UsedBytes,
							"total_bytes", sample.TotalBytes,
							"usage", sample.UsagePercentage,
							"trend", string(l.mon.UsageTrend()),
							"tracked_refs", l.mon.TrackedCount(),
						)...,
					)
				}
			}
		}
	}
}
