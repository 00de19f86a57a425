package cachestore

import (
	"math"
	"sync/atomic"
)

// hitRateAlpha is the EWMA weight: recent gets dominate, old history decays.
const hitRateAlpha = 0.1

type counters struct {
	hits          atomic.Int64
	misses        atomic.Int64
	sets          atomic.Int64
	evictions     atomic.Int64
	expirations   atomic.Int64
	computeErrors atomic.Int64
	hitRateBits   atomic.Uint64 // float64 EWMA, observability only
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) observeGet(hit bool) {
	var sample float64
	if hit {
		c.hits.Add(1)
		sample = 1
	} else {
		c.misses.Add(1)
	}
	for {
		old := c.hitRateBits.Load()
		rate := math.Float64frombits(old)
		next := rate*(1-hitRateAlpha) + sample*hitRateAlpha
		if c.hitRateBits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

func (c *counters) hitRate() float64 {
	return math.Float64frombits(c.hitRateBits.Load())
}

func (c *counters) snapshot() (hits, misses, sets, evictions, expirations, computeErrors int64) {
	return c.hits.Load(), c.misses.Load(), c.sets.Load(),
		c.evictions.Load(), c.expirations.Load(), c.computeErrors.Load()
}
