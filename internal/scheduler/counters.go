package scheduler

import (
	"math"
	"sync/atomic"
)

// throughputAlpha weights the per-tick executed-count EWMA.
const throughputAlpha = 0.1

type counters struct {
	requested      atomic.Int64
	executed       atomic.Int64
	immediate      atomic.Int64
	merged         atomic.Int64
	skipped        atomic.Int64
	overflowDrops  atomic.Int64
	frameDrops     atomic.Int64
	batches        atomic.Int64
	cycleFlushes   atomic.Int64
	faults         atomic.Int64
	throughputBits atomic.Uint64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) observeTick(executed int) {
	for {
		old := c.throughputBits.Load()
		ewma := math.Float64frombits(old)
		next := ewma*(1-throughputAlpha) + float64(executed)*throughputAlpha
		if c.throughputBits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

func (c *counters) throughput() float64 {
	return math.Float64frombits(c.throughputBits.Load())
}

func (c *counters) snapshot() (requested, executed, immediate, merged, skipped, overflowDrops, frameDrops, batches, cycleFlushes, faults int64) {
	return c.requested.Load(), c.executed.Load(), c.immediate.Load(),
		c.merged.Load(), c.skipped.Load(), c.overflowDrops.Load(),
		c.frameDrops.Load(), c.batches.Load(), c.cycleFlushes.Load(), c.faults.Load()
}
