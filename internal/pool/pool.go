package pool

import (
	"log/slog"
	"math"

	"github.com/emberfall/go-forge-perf/config"
)

// FactoryFunc constructs a fresh zero-value instance of a pooled type.
type FactoryFunc func() any

// ResetFunc restores an instance to its zero-value shape before it goes back
// on the free list: numeric fields to 0, collections cleared. Supplying it at
// registration removes any need for runtime type inspection on release.
type ResetFunc func(obj any)

type Pooler interface {
	RegisterType(tag string, factory FactoryFunc, reset ResetFunc)
	Acquire(tag string) any
	Release(tag string, obj any)
	Utilization(tag string) float64
	GlobalUtilization() float64
	ShrinkIdle() int
	Metrics() (acquires, releases, created, dropped, unpooled, trimmed int64)
}

// Registry keeps one free list per registered type. It is not safe for
// concurrent use; the facade guards it.
type Registry struct {
	cfg      *config.PoolCfg
	logger   *slog.Logger
	pools    map[string]*typedPool
	counters *counters
}

type typedPool struct {
	tag     string
	factory FactoryFunc
	reset   ResetFunc
	free    []any
	// target is the current grow target: it starts at InitialSize, rises
	// with each growth burst and falls back when the shrinker trims.
	target int
}

func New(cfg *config.PoolCfg, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		counters: newCounters(),
		pools:    make(map[string]*typedPool),
	}
}

// RegisterType makes a tag poolable. Instances are constructed lazily on
// first exhaustion, not up front.
func (r *Registry) RegisterType(tag string, factory FactoryFunc, reset ResetFunc) {
	if _, exists := r.pools[tag]; exists {
		return
	}
	r.pools[tag] = &typedPool{
		tag:     tag,
		factory: factory,
		reset:   reset,
		target:  r.cfg.InitialSize,
	}
}

// Acquire pops a resident instance, growing the free list first when empty.
// An unregistered tag yields the zero value of any and is counted; with no
// registered factory there is no shape to construct.
func (r *Registry) Acquire(tag string) any {
	p, found := r.pools[tag]
	if !found {
		r.counters.unpooledAcquires.Add(1)
		return nil
	}
	if len(p.free) == 0 {
		r.grow(p)
	}
	obj := p.free[len(p.free)-1]
	p.free[len(p.free)-1] = nil
	p.free = p.free[:len(p.free)-1]
	r.counters.acquires.Add(1)
	return obj
}

// Release resets the object and returns it to its pool. At MaxSize resident
// instances the object is dropped instead, bounding memory under bursts.
// Releasing to an unregistered tag is a no-op.
func (r *Registry) Release(tag string, obj any) {
	p, found := r.pools[tag]
	if !found || obj == nil {
		return
	}
	if len(p.free) >= r.cfg.MaxSize {
		r.counters.droppedReleases.Add(1)
		return
	}
	p.reset(obj)
	p.free = append(p.free, obj)
	r.counters.releases.Add(1)
}

func (r *Registry) grow(p *typedPool) {
	n := int(math.Ceil(float64(p.target) * r.cfg.GrowthFactor))
	if p.target+n > r.cfg.MaxSize {
		n = r.cfg.MaxSize - p.target
	}
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		p.free = append(p.free, p.factory())
	}
	p.target += n
	if p.target > r.cfg.MaxSize {
		p.target = r.cfg.MaxSize
	}
	r.counters.created.Add(int64(n))
	r.logger.Debug("pool grown", "type", p.tag, "created", n, "target", p.target)
}

// Utilization reports how much of a type's capacity is checked out.
func (r *Registry) Utilization(tag string) float64 {
	p, found := r.pools[tag]
	if !found {
		return 0
	}
	return float64(r.cfg.MaxSize-len(p.free)) / float64(r.cfg.MaxSize)
}

func (r *Registry) GlobalUtilization() float64 {
	if len(r.pools) == 0 {
		return 0
	}
	sum := 0.0
	for tag := range r.pools {
		sum += r.Utilization(tag)
	}
	return sum / float64(len(r.pools))
}

// ShrinkIdle trims free lists of under-utilized types down toward, never
// below, the initial size, releasing memory pools grabbed during a burst.
func (r *Registry) ShrinkIdle() int {
	trimmed := 0
	for _, p := range r.pools {
		if r.Utilization(p.tag) >= r.cfg.ShrinkThreshold {
			continue
		}
		for len(p.free) > r.cfg.InitialSize {
			p.free[len(p.free)-1] = nil
			p.free = p.free[:len(p.free)-1]
			trimmed++
		}
		if p.target > r.cfg.InitialSize && len(p.free) <= r.cfg.InitialSize {
			p.target = r.cfg.InitialSize
		}
	}
	if trimmed > 0 {
		r.counters.trimmed.Add(int64(trimmed))
		r.logger.Debug("pools trimmed", "instances", trimmed)
	}
	return trimmed
}

// FreeCount is exposed for tests and telemetry.
func (r *Registry) FreeCount(tag string) int {
	if p, found := r.pools[tag]; found {
		return len(p.free)
	}
	return 0
}

func (r *Registry) Metrics() (acquires, releases, created, dropped, unpooled, trimmed int64) {
	return r.counters.snapshot()
}
