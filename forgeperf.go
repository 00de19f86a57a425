package forgeperf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/emberfall/go-forge-perf/config"
	"github.com/emberfall/go-forge-perf/internal/cachestore"
	"github.com/emberfall/go-forge-perf/internal/monitor"
	"github.com/emberfall/go-forge-perf/internal/pool"
	"github.com/emberfall/go-forge-perf/internal/scheduler"
	"github.com/emberfall/go-forge-perf/internal/telemetry"
	"golang.org/x/sync/singleflight"
)

// computeAlpha weights the average-compute-time EWMA.
const computeAlpha = 0.1

// Dispatcher is re-exported so callers wire UI callbacks without importing
// internal packages; the same goes for the other aliases below.
type Dispatcher = scheduler.Dispatcher

type (
	Kind       = scheduler.Kind
	Priority   = scheduler.Priority
	TickResult = scheduler.TickResult

	FactoryFunc = pool.FactoryFunc
	ResetFunc   = pool.ResetFunc

	Capability        = monitor.Capability
	RuntimeCapability = monitor.RuntimeCapability
	NoOpCapability    = monitor.NoOpCapability
	WarningEvent      = monitor.WarningEvent
	WarningCallback   = monitor.WarningCallback
	LeakReport        = monitor.LeakReport
	LeakCallback      = monitor.LeakCallback
)

const (
	KindStats      = scheduler.KindStats
	KindSkills     = scheduler.KindSkills
	KindResource   = scheduler.KindResource
	KindAppearance = scheduler.KindAppearance
	KindAnimation  = scheduler.KindAnimation
	KindFull       = scheduler.KindFull

	PriorityImmediate = scheduler.PriorityImmediate
	PriorityHigh      = scheduler.PriorityHigh
	PriorityNormal    = scheduler.PriorityNormal
	PriorityLow       = scheduler.PriorityLow
)

// UpdateSpec is one entry of a BatchUpdate call.
type UpdateSpec struct {
	Kind     Kind
	Priority Priority
	Payload  any
}

// Perf is the composition root of the progression performance engine: one
// instance owns the cache store, the object pools, the update scheduler and
// the memory monitor for a game session. The store, pools and scheduler are
// single-threaded by design; Perf guards them with one mutex at this
// boundary so their hot paths stay lock-free.
type Perf struct {
	mu     sync.Mutex
	cfg    *config.Perf
	logger *slog.Logger
	clk    clock.Clock

	store     *cachestore.Store
	pools     *pool.Registry
	sched     *scheduler.Scheduler
	mon       *monitor.Monitor
	telemetry *telemetry.Logs
	shrinker  pool.Shrinker

	group       singleflight.Group
	computeBits atomic.Uint64 // float64 EWMA of compute durations, nanoseconds
	closed      atomic.Bool
	cls         context.CancelFunc
}

type Option func(*options)

type options struct {
	dispatch   Dispatcher
	capability Capability
	clk        clock.Clock
}

// WithDispatcher wires the UI callback updates are delivered to.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) { o.dispatch = d }
}

// WithCapability injects the host memory introspection/reclaim hooks.
// Default is the Go runtime; use NoOpCapability for none at all.
func WithCapability(c Capability) Option {
	return func(o *options) { o.capability = c }
}

// WithClock injects a clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clk = c }
}

func New(ctx context.Context, cfg *config.Perf, logger *slog.Logger, opts ...Option) (*Perf, error) {
	cfg.AdjustConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("performance engine config: %w", err)
	}

	o := &options{
		capability: monitor.RuntimeCapability{},
		clk:        clock.New(),
		dispatch:   func(target string, kind Kind, payload any) error { return nil },
	}
	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Perf{
		cfg:    cfg,
		logger: logger,
		clk:    o.clk,
		cls:    cancel,
	}

	p.store = cachestore.New(&cfg.Cache, logger, o.clk)
	p.pools = pool.New(&cfg.Pool, logger)
	p.sched = scheduler.New(&cfg.Scheduler, logger, o.clk, o.dispatch)

	if cfg.Monitor.Enabled() {
		p.mon = monitor.New(cfg.Monitor, logger, o.clk, o.capability, facadeCleaner{p})
		p.mon.Start()
	}
	p.telemetry = telemetry.New(ctx, cfg.Telemetry, logger, p.store, p.pools, p.sched, p.mon)
	p.shrinker = pool.NewShrinker(ctx, cfg.Pool.Shrinker, logger, func() int {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.pools.ShrinkIdle()
	})

	return p, nil
}

// facadeCleaner routes the monitor's threshold cleanups through the facade
// mutex, since the monitor's timers run on their own goroutine.
type facadeCleaner struct{ p *Perf }

func (c facadeCleaner) EvictExpired() int {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	return c.p.store.EvictExpired()
}

func (c facadeCleaner) ShrinkPools() int {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	return c.p.pools.ShrinkIdle()
}

// GetOrCompute answers "the derived data for this key, cached or computed".
// The compute callback runs outside the engine mutex and concurrent callers
// for one key are collapsed into a single computation.
func (p *Perf) GetOrCompute(category, key string, compute func() (any, error)) (any, error) {
	p.mu.Lock()
	value, err := p.store.Get(category, key, nil)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}
	if compute == nil {
		return nil, nil
	}

	value, err, _ = p.group.Do(category+"\x1f"+key, func() (any, error) {
		began := p.clk.Now()
		computed, computeErr := compute()
		p.observeCompute(p.clk.Now().Sub(began))
		if computeErr != nil {
			return nil, computeErr
		}
		p.mu.Lock()
		p.store.Set(category, key, computed)
		p.mu.Unlock()
		return computed, nil
	})
	return value, err
}

// Get reads the cache without computing.
func (p *Perf) Get(category, key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	value, _ := p.store.Get(category, key, nil)
	return value, value != nil
}

func (p *Perf) Set(category, key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.Set(category, key, value)
}

func (p *Perf) ClearCache(category string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.Clear(category)
}

// RequestUpdate enqueues one UI update; the returned id can be passed as a
// dependency of later requests.
func (p *Perf) RequestUpdate(target string, kind Kind, priority Priority, payload any, deps []uint64) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched.Request(target, kind, priority, payload, deps)
}

// BatchUpdate enqueues several updates for one target; entries are chained
// so they execute in slice order within the tick.
func (p *Perf) BatchUpdate(target string, updates []UpdateSpec) []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]uint64, 0, len(updates))
	var deps []uint64
	for _, u := range updates {
		id := p.sched.Request(target, u.Kind, u.Priority, u.Payload, deps)
		ids = append(ids, id)
		deps = []uint64{id}
	}
	return ids
}

func (p *Perf) SetVisibility(target string, kind Kind, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sched.SetVisibility(target, kind, visible)
}

func (p *Perf) MarkDirty(target string, kind Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sched.MarkDirty(target, kind)
}

// Tick runs one scheduling pass; the host frame callback drives it.
func (p *Perf) Tick() TickResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched.Tick()
}

// RegisterPoolType registers a reusable result-object type with its factory
// and explicit reset function.
func (p *Perf) RegisterPoolType(tag string, factory FactoryFunc, reset ResetFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools.RegisterType(tag, factory, reset)
}

func (p *Perf) Acquire(tag string) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pools.Acquire(tag)
}

func (p *Perf) Release(tag string, obj any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools.Release(tag, obj)
}

// Track registers a long-lived object for leak detection. No-op when the
// monitor is disabled.
func (p *Perf) Track(id, typeTag string, approxSize int64) {
	if p.mon != nil {
		p.mon.Track(id, typeTag, approxSize)
	}
}

func (p *Perf) Untrack(id string) {
	if p.mon != nil {
		p.mon.Untrack(id)
	}
}

func (p *Perf) TouchRef(id string) {
	if p.mon != nil {
		p.mon.Touch(id)
	}
}

func (p *Perf) AddRef(id string) {
	if p.mon != nil {
		p.mon.AddRef(id)
	}
}

func (p *Perf) DecRef(id string) {
	if p.mon != nil {
		p.mon.DecRef(id)
	}
}

func (p *Perf) OnWarning(cb WarningCallback) {
	if p.mon != nil {
		p.mon.OnWarning(cb)
	}
}

func (p *Perf) OnLeak(cb LeakCallback) {
	if p.mon != nil {
		p.mon.OnLeak(cb)
	}
}

// ForceCleanup sweeps expired cache entries, trims idle pools and, when the
// monitor is running, takes an immediate sample so thresholds re-evaluate.
func (p *Perf) ForceCleanup() (evicted, trimmed int) {
	p.mu.Lock()
	evicted = p.store.EvictExpired()
	trimmed = p.pools.ShrinkIdle()
	p.mu.Unlock()

	if p.mon != nil {
		p.mon.CollectNow()
	}
	return evicted, trimmed
}

func (p *Perf) observeCompute(d time.Duration) {
	for {
		old := p.computeBits.Load()
		ewma := math.Float64frombits(old)
		next := ewma*(1-computeAlpha) + float64(d.Nanoseconds())*computeAlpha
		if p.computeBits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

func (p *Perf) avgComputeTime() time.Duration {
	return time.Duration(math.Float64frombits(p.computeBits.Load()))
}

// Close disposes every leaf component. Teardown errors are logged and
// swallowed so one component's failure never keeps another from releasing
// its resources. Safe to call repeatedly.
func (p *Perf) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.cls()

	if err := p.telemetry.Close(); err != nil {
		p.logger.Error("telemetry teardown failed", "err", err)
	}
	if err := p.shrinker.Close(); err != nil {
		p.logger.Error("shrinker teardown failed", "err", err)
	}
	if p.mon != nil {
		if err := p.mon.Close(); err != nil {
			p.logger.Error("monitor teardown failed", "err", err)
		}
	}

	p.mu.Lock()
	p.sched.Reset()
	p.store.ClearAll()
	p.mu.Unlock()
	return nil
}
