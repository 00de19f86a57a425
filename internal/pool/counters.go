package pool

import "sync/atomic"

type counters struct {
	acquires         atomic.Int64
	releases         atomic.Int64
	created          atomic.Int64
	droppedReleases  atomic.Int64
	unpooledAcquires atomic.Int64
	trimmed          atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (acquires, releases, created, dropped, unpooled, trimmed int64) {
	return c.acquires.Load(), c.releases.Load(), c.created.Load(),
		c.droppedReleases.Load(), c.unpooledAcquires.Load(), c.trimmed.Load()
}
