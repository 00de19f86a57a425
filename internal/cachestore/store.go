package cachestore

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/emberfall/go-forge-perf/config"
)

type Storer interface {
	Get(category, key string, compute func() (any, error)) (any, error)
	Set(category, key string, value any)
	Clear(category string)
	ClearAll()
	EvictExpired() int
	Len() int
	HitRate() float64
	Metrics() (hits, misses, sets, evictions, expirations, computeErrors int64)
}

// Store holds one independent cache per data category. It is not safe for
// concurrent use: the facade guards it, keeping the hot path lock-free.
type Store struct {
	cfg        *config.CacheCfg
	logger     *slog.Logger
	clk        clock.Clock
	categories map[string]*category
	counters   *counters
}

func New(cfg *config.CacheCfg, logger *slog.Logger, clk clock.Clock) *Store {
	s := &Store{
		cfg:        cfg,
		logger:     logger,
		clk:        clk,
		counters:   newCounters(),
		categories: make(map[string]*category, len(cfg.Categories)),
	}
	for _, name := range cfg.Categories {
		s.categories[name] = newCategory(name, cfg)
	}
	return s
}

// Get returns the cached value, or computes and stores it when a compute
// callback is supplied. A miss without a callback returns (nil, nil).
// Unknown categories behave as permanent misses rather than errors.
func (s *Store) Get(category, key string, compute func() (any, error)) (any, error) {
	cat, found := s.categories[category]
	if !found {
		s.counters.observeGet(false)
		if compute == nil {
			return nil, nil
		}
		return compute()
	}

	k := NewKey(key)
	now := s.clk.Now()

	if entry, ok := cat.get(k, now); ok {
		s.counters.observeGet(true)
		return entry.Data(), nil
	}
	s.counters.observeGet(false)

	if compute == nil {
		return nil, nil
	}

	value, err := compute()
	if err != nil {
		s.counters.computeErrors.Add(1)
		return nil, err
	}
	s.set(cat, k, value)
	return value, nil
}

// Set stores the value as-is; a malformed value is the caller's problem.
func (s *Store) Set(category, key string, value any) {
	cat, found := s.categories[category]
	if !found {
		return
	}
	s.set(cat, NewKey(key), value)
}

func (s *Store) set(cat *category, k Key, value any) {
	evicted, ok := cat.set(k, value, s.clk.Now())
	s.counters.sets.Add(1)
	if evicted > 0 {
		s.counters.evictions.Add(int64(evicted))
		s.logger.Debug("cache batch eviction",
			"category", cat.name, "evicted", evicted, "size", cat.len())
	}
	if !ok {
		s.logger.Debug("cache insert rejected, category full and lru disabled",
			"category", cat.name)
	}
}

func (s *Store) Clear(category string) {
	if cat, found := s.categories[category]; found {
		cat.clear()
	}
}

func (s *Store) ClearAll() {
	for _, cat := range s.categories {
		cat.clear()
	}
}

// EvictExpired sweeps every category. The store never runs this on its own
// timer; the monitor's cleanup drives it.
func (s *Store) EvictExpired() int {
	now := s.clk.Now()
	removed := 0
	for _, cat := range s.categories {
		removed += cat.evictExpired(now)
	}
	if removed > 0 {
		s.counters.expirations.Add(int64(removed))
	}
	return removed
}

func (s *Store) Len() int {
	total := 0
	for _, cat := range s.categories {
		total += cat.len()
	}
	return total
}

func (s *Store) HitRate() float64 { return s.counters.hitRate() }

func (s *Store) Metrics() (hits, misses, sets, evictions, expirations, computeErrors int64) {
	return s.counters.snapshot()
}
