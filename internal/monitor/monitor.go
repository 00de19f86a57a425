package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/emberfall/go-forge-perf/config"
)

// Cleaner is what threshold handling acts through: the facade wires it to
// the cache's expired sweep and the pools' trim.
type Cleaner interface {
	EvictExpired() int
	ShrinkPools() int
}

// WarningLevel distinguishes the two usage thresholds.
type WarningLevel string

const (
	LevelWarning  WarningLevel = "warning"
	LevelCritical WarningLevel = "critical"
)

type WarningEvent struct {
	Level           WarningLevel
	UsagePercentage float64
	Sample          Sample
}

type WarningCallback func(WarningEvent)
type LeakCallback func(LeakReport)

// idleRefCleanup is how long a tracked reference may go untouched before a
// warning-level cleanup drops it.
const idleRefCleanup = 5 * time.Minute

type Watcher interface {
	Start()
	Stop()
	Close() error
	CollectNow() Sample
	AnalyzeNow() []LeakReport
	UsageTrend() Trend
	LastSample() (Sample, bool)
	SampleCount() int
	Track(id, typeTag string, approxSize int64)
	Untrack(id string)
	AddRef(id string)
	DecRef(id string)
	Touch(id string)
	TrackedCount() int
	OnWarning(cb WarningCallback)
	OnLeak(cb LeakCallback)
}

// Monitor samples memory on one timer and, when leak detection is on, runs
// leak analysis on a second, slower one. Its state is mutex-guarded because
// the timers fire on their own goroutine while the facade calls in from the
// game loop.
type Monitor struct {
	mu         sync.Mutex
	cfg        *config.MonitorCfg
	logger     *slog.Logger
	clk        clock.Clock
	capability Capability
	cleaner    Cleaner

	history   []Sample
	refs      *trackedRegistry
	onWarning []WarningCallback
	onLeak    []LeakCallback
	reclaims  int64

	done    chan struct{}
	running bool
}

func New(cfg *config.MonitorCfg, logger *slog.Logger, clk clock.Clock, capability Capability, cleaner Cleaner) *Monitor {
	if capability == nil {
		capability = NoOpCapability{}
	}
	return &Monitor{
		cfg:        cfg,
		logger:     logger,
		clk:        clk,
		capability: capability,
		cleaner:    cleaner,
		refs:       newTrackedRegistry(),
	}
}

// Start launches the sampling loop. Calling it twice is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.done = make(chan struct{})
	go m.loop(m.done)
	m.logger.Info("memory monitor is running",
		"sampling_interval", m.cfg.SamplingInterval.String(),
		"leak_detection", m.cfg.LeakDetection)
}

func (m *Monitor) loop(done chan struct{}) {
	metrics := m.clk.Ticker(m.cfg.SamplingInterval)
	defer metrics.Stop()

	var leakCh <-chan time.Time
	if m.cfg.LeakDetection {
		leak := m.clk.Ticker(m.cfg.LeakAnalysisInterval)
		defer leak.Stop()
		leakCh = leak.C
	}

	for {
		select {
		case <-done:
			return
		case <-metrics.C:
			m.CollectNow()
		case <-leakCh:
			m.AnalyzeNow()
		}
	}
}

// Stop cancels both timers and clears all history and registries. Safe to
// call repeatedly, before Start, or after Close.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.running {
		m.running = false
		close(m.done)
	}
	m.history = nil
	m.refs.clear()
}

func (m *Monitor) Close() error {
	m.Stop()
	return nil
}

// CollectNow takes one sample, trims history and applies threshold handling.
// The timer calls it; tests and ForceCleanup call it directly.
func (m *Monitor) CollectNow() Sample {
	m.mu.Lock()

	used, total, ok := m.capability.MemoryUsage()
	var usage float64
	if ok && total > 0 {
		usage = float64(used) / float64(total)
	}

	sample := Sample{
		Timestamp:       m.clk.Now(),
		UsedBytes:       used,
		TotalBytes:      total,
		TrackedObjects:  m.refs.len(),
		ReclaimEvents:   m.reclaims,
		UsagePercentage: usage,
	}
	m.history = append(m.history, sample)
	if over := len(m.history) - m.cfg.HistoryCap; over > 0 {
		m.history = m.history[over:]
	}

	level, fire := m.thresholdLevel(usage)
	callbacks := append([]WarningCallback(nil), m.onWarning...)
	m.mu.Unlock()

	if fire {
		event := WarningEvent{Level: level, UsagePercentage: usage, Sample: sample}
		for _, cb := range callbacks {
			m.safeWarn(cb, event)
		}
		m.cleanup(level)
	}
	return sample
}

func (m *Monitor) thresholdLevel(usage float64) (WarningLevel, bool) {
	switch {
	case usage >= m.cfg.CriticalThreshold:
		return LevelCritical, true
	case usage >= m.cfg.WarningThreshold:
		return LevelWarning, true
	default:
		return "", false
	}
}

func (m *Monitor) cleanup(level WarningLevel) {
	if !m.cfg.AutoCleanup {
		return
	}
	now := m.clk.Now()

	if level == LevelCritical {
		evicted, shrunk := 0, 0
		if m.cleaner != nil {
			evicted = m.cleaner.EvictExpired()
			shrunk = m.cleaner.ShrinkPools()
		}
		m.mu.Lock()
		dropped := m.refs.dropZeroRef()
		if m.capability.ForceReclaim() {
			m.reclaims++
		}
		m.mu.Unlock()
		m.logger.Warn("aggressive memory cleanup",
			"evicted", evicted, "shrunk", shrunk, "dropped_refs", dropped)
		return
	}

	m.mu.Lock()
	dropped := m.refs.dropIdle(idleRefCleanup, now)
	m.mu.Unlock()
	if dropped > 0 {
		m.logger.Info("light memory cleanup", "dropped_idle_refs", dropped)
	}
}

// AnalyzeNow runs the leak heuristics and delivers reports to callbacks.
func (m *Monitor) AnalyzeNow() []LeakReport {
	m.mu.Lock()
	reports := m.analyzeLeaks(m.clk.Now())
	callbacks := append([]LeakCallback(nil), m.onLeak...)
	m.mu.Unlock()

	for _, report := range reports {
		m.logger.Warn("leak candidate",
			"kind", report.Kind, "severity", string(report.Severity),
			"id", report.ID, "detail", report.Detail)
		for _, cb := range callbacks {
			m.safeLeak(cb, report)
		}
	}
	return reports
}

func (m *Monitor) safeWarn(cb WarningCallback, event WarningEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("warning callback panicked", "err", fmt.Sprintf("%v", r))
		}
	}()
	cb(event)
}

func (m *Monitor) safeLeak(cb LeakCallback, report LeakReport) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("leak callback panicked", "err", fmt.Sprintf("%v", r))
		}
	}()
	cb(report)
}

func (m *Monitor) OnWarning(cb WarningCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWarning = append(m.onWarning, cb)
}

func (m *Monitor) OnLeak(cb LeakCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLeak = append(m.onLeak, cb)
}

func (m *Monitor) Track(id, typeTag string, approxSize int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs.track(id, typeTag, approxSize, m.clk.Now())
}

func (m *Monitor) Untrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs.untrack(id)
}

func (m *Monitor) AddRef(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs.addRef(id, m.clk.Now())
}

func (m *Monitor) DecRef(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs.decRef(id, m.clk.Now())
}

func (m *Monitor) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs.touch(id, m.clk.Now())
}

func (m *Monitor) TrackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs.len()
}

func (m *Monitor) UsageTrend() Trend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return computeTrend(m.history)
}

func (m *Monitor) LastSample() (Sample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Sample{}, false
	}
	return m.history[len(m.history)-1], true
}

func (m *Monitor) SampleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}
