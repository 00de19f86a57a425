package cachestore

import (
	"math"
	"sort"
	"time"

	"github.com/emberfall/go-forge-perf/config"
)

// category is an independent key->Entry map with its own size cap and TTL.
// Eviction in one category never touches another.
type category struct {
	name  string
	items map[uint64]*Entry
	cfg   *config.CacheCfg
}

func newCategory(name string, cfg *config.CacheCfg) *category {
	return &category{
		name:  name,
		cfg:   cfg,
		items: make(map[uint64]*Entry, cfg.MaxSize),
	}
}

// get enforces TTL lazily: an expired entry is deleted first, then the read
// is treated as a miss.
func (c *category) get(k Key, now time.Time) (*Entry, bool) {
	entry, found := c.items[k.Value()]
	if !found || !entry.key.IsTheSame(k) {
		return nil, false
	}
	if entry.isExpired(c.cfg.TTL, now) {
		delete(c.items, k.Value())
		return nil, false
	}
	entry.touch(now)
	return entry, true
}

// set inserts or replaces. At capacity it evicts a batch of the least
// recently touched entries first; batching amortizes the sort over many
// inserts instead of paying it per key.
func (c *category) set(k Key, value any, now time.Time) (evicted int, ok bool) {
	if existing, found := c.items[k.Value()]; found && existing.key.IsTheSame(k) {
		existing.data = value
		existing.touch(now)
		return 0, true
	}

	if len(c.items) >= c.cfg.MaxSize {
		if !c.cfg.EnableLRU {
			return 0, false
		}
		evicted = c.evictOldest()
	}

	c.items[k.Value()] = newEntry(k, value, now)
	return evicted, true
}

func (c *category) evictOldest() int {
	victims := make([]*Entry, 0, len(c.items))
	for _, e := range c.items {
		victims = append(victims, e)
	}
	sort.Slice(victims, func(i, j int) bool {
		return victims[i].touchedAt < victims[j].touchedAt
	})

	n := int(math.Ceil(float64(len(victims)) * c.cfg.EvictionFraction))
	if n < 1 {
		n = 1
	}
	for _, e := range victims[:n] {
		delete(c.items, e.key.Value())
	}
	return n
}

func (c *category) evictExpired(now time.Time) int {
	removed := 0
	for k, e := range c.items {
		if e.isExpired(c.cfg.TTL, now) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

func (c *category) clear() {
	c.items = make(map[uint64]*Entry, c.cfg.MaxSize)
}

func (c *category) len() int { return len(c.items) }
