package telemetry

// CacheStats, PoolStats and SchedulerStats are the cumulative counter
// sources the sampler reads; the facade's leaf components satisfy them.
type CacheStats interface {
	Metrics() (hits, misses, sets, evictions, expirations, computeErrors int64)
	HitRate() float64
	Len() int
}

type PoolStats interface {
	Metrics() (acquires, releases, created, dropped, unpooled, trimmed int64)
	GlobalUtilization() float64
}

type SchedulerStats interface {
	Metrics() (requested, executed, immediate, merged, skipped, overflowDrops, frameDrops, batches, cycleFlushes, faults int64)
	Throughput() float64
	PendingLen() int
}

type sampler struct {
	cache     CacheStats
	pool      PoolStats
	scheduler SchedulerStats
}

func newSampler(c CacheStats, p PoolStats, s SchedulerStats) sampler {
	return sampler{cache: c, pool: p, scheduler: s}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	cacheHits        uint64
	cacheMisses      uint64
	cacheSets        uint64
	cacheEvictions   uint64
	cacheExpirations uint64

	poolAcquires uint64
	poolReleases uint64
	poolCreated  uint64
	poolDropped  uint64
	poolTrimmed  uint64

	updatesExecuted uint64
	updatesMerged   uint64
	updatesSkipped  uint64
	frameDrops      uint64
	batches         uint64
}

func (s sampler) snapshot() snapshot {
	hits, misses, sets, evictions, expirations, _ := s.cache.Metrics()
	acquires, releases, created, dropped, _, trimmed := s.pool.Metrics()
	_, executed, _, merged, skipped, _, frameDrops, batches, _, _ := s.scheduler.Metrics()

	return snapshot{
		cacheHits:        uint64(max(hits, 0)),
		cacheMisses:      uint64(max(misses, 0)),
		cacheSets:        uint64(max(sets, 0)),
		cacheEvictions:   uint64(max(evictions, 0)),
		cacheExpirations: uint64(max(expirations, 0)),

		poolAcquires: uint64(max(acquires, 0)),
		poolReleases: uint64(max(releases, 0)),
		poolCreated:  uint64(max(created, 0)),
		poolDropped:  uint64(max(dropped, 0)),
		poolTrimmed:  uint64(max(trimmed, 0)),

		updatesExecuted: uint64(max(executed, 0)),
		updatesMerged:   uint64(max(merged, 0)),
		updatesSkipped:  uint64(max(skipped, 0)),
		frameDrops:      uint64(max(frameDrops, 0)),
		batches:         uint64(max(batches, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		cacheHits:        delta(prev.cacheHits, cur.cacheHits),
		cacheMisses:      delta(prev.cacheMisses, cur.cacheMisses),
		cacheSets:        delta(prev.cacheSets, cur.cacheSets),
		cacheEvictions:   delta(prev.cacheEvictions, cur.cacheEvictions),
		cacheExpirations: delta(prev.cacheExpirations, cur.cacheExpirations),

		poolAcquires: delta(prev.poolAcquires, cur.poolAcquires),
		poolReleases: delta(prev.poolReleases, cur.poolReleases),
		poolCreated:  delta(prev.poolCreated, cur.poolCreated),
		poolDropped:  delta(prev.poolDropped, cur.poolDropped),
		poolTrimmed:  delta(prev.poolTrimmed, cur.poolTrimmed),

		updatesExecuted: delta(prev.updatesExecuted, cur.updatesExecuted),
		updatesMerged:   delta(prev.updatesMerged, cur.updatesMerged),
		updatesSkipped:  delta(prev.updatesSkipped, cur.updatesSkipped),
		frameDrops:      delta(prev.frameDrops, cur.frameDrops),
		batches:         delta(prev.batches, cur.batches),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
