package forgeperf

import "time"

// Metrics is the unified health snapshot across all four leaf components.
type Metrics struct {
	CacheHitRate     float64
	CacheEntries     int
	CacheHits        int64
	CacheMisses      int64
	CacheEvictions   int64
	CacheExpirations int64
	AvgComputeTime   time.Duration

	PoolUtilization float64
	PoolAcquires    int64
	PoolReleases    int64
	PoolCreated     int64
	PoolDropped     int64

	UpdatesExecuted  int64
	UpdatesMerged    int64
	UpdatesSkipped   int64
	UpdateThroughput float64
	FrameDrops       int64
	PendingUpdates   int

	MemoryUsedBytes  uint64
	MemoryTotalBytes uint64
	MemoryUsage      float64
	MemoryTrend      string
	TrackedRefs      int
	SampleCount      int
}

func (p *Perf) Metrics() Metrics {
	p.mu.Lock()
	hits, misses, _, evictions, expirations, _ := p.store.Metrics()
	_, executed, _, merged, skipped, _, frameDrops, _, _, _ := p.sched.Metrics()
	acquires, releases, created, dropped, _, _ := p.pools.Metrics()

	m := Metrics{
		CacheHitRate:     p.store.HitRate(),
		CacheEntries:     p.store.Len(),
		CacheHits:        hits,
		CacheMisses:      misses,
		CacheEvictions:   evictions,
		CacheExpirations: expirations,
		AvgComputeTime:   p.avgComputeTime(),

		PoolUtilization: p.pools.GlobalUtilization(),
		PoolAcquires:    acquires,
		PoolReleases:    releases,
		PoolCreated:     created,
		PoolDropped:     dropped,

		UpdatesExecuted:  executed,
		UpdatesMerged:    merged,
		UpdatesSkipped:   skipped,
		UpdateThroughput: p.sched.Throughput(),
		FrameDrops:       frameDrops,
		PendingUpdates:   p.sched.PendingLen(),

		MemoryTrend: "stable",
	}
	p.mu.Unlock()

	if p.mon != nil {
		if sample, ok := p.mon.LastSample(); ok {
			m.MemoryUsedBytes = sample.UsedBytes
			m.MemoryTotalBytes = sample.TotalBytes
			m.MemoryUsage = sample.UsagePercentage
		}
		m.MemoryTrend = string(p.mon.UsageTrend())
		m.TrackedRefs = p.mon.TrackedCount()
		m.SampleCount = p.mon.SampleCount()
	}
	return m
}
