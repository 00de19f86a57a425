package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/emberfall/go-forge-perf/config"
)

// Dispatcher delivers one executed update to the host UI layer.
type Dispatcher func(target string, kind Kind, payload any) error

type Requester interface {
	Request(target string, kind Kind, priority Priority, payload any, deps []uint64) uint64
	SetVisibility(target string, kind Kind, visible bool)
	MarkDirty(target string, kind Kind)
	Tick() TickResult
	PendingLen() int
	Throughput() float64
	Metrics() (requested, executed, immediate, merged, skipped, overflowDrops, frameDrops, batches, cycleFlushes, faults int64)
}

// TickResult summarizes one scheduling pass.
type TickResult struct {
	Executed  int
	Batches   int
	Deferred  int
	FrameDrop bool
	Elapsed   time.Duration
}

// Scheduler batches UI-update requests by priority under a per-tick time
// budget. Single-threaded by design: the host frame callback drives Tick and
// the facade guards access, so the hot path carries no locks.
type Scheduler struct {
	cfg      *config.SchedulerCfg
	logger   *slog.Logger
	clk      clock.Clock
	dispatch Dispatcher
	queue    []*Request
	queued   map[elementKey]*Request
	elems    *elementRegistry
	counters *counters
	nextID   uint64
}

func New(cfg *config.SchedulerCfg, logger *slog.Logger, clk clock.Clock, dispatch Dispatcher) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		logger:   logger,
		clk:      clk,
		dispatch: dispatch,
		queued:   make(map[elementKey]*Request),
		counters: newCounters(),
		elems:    newElementRegistry(cfg.MaxElements, cfg.ElementIdleTTL),
	}
}

// Request enqueues an update. The returned id can be used as a dependency of
// later requests. Immediate priority dispatches synchronously and bypasses
// batching; otherwise the request may be suppressed by the dirty check,
// merged into an already-queued request for the same target/kind, or dropped
// on queue overflow.
func (s *Scheduler) Request(target string, kind Kind, priority Priority, payload any, deps []uint64) uint64 {
	s.counters.requested.Add(1)
	s.nextID++
	id := s.nextID
	key := elementKey{target: target, kind: kind}
	st := s.elems.state(key)

	if priority == PriorityImmediate {
		s.execute(&Request{ID: id, Target: target, Kind: kind, Priority: priority, Payload: payload}, st)
		s.counters.immediate.Add(1)
		return id
	}

	if s.cfg.DirtyCheck {
		if !st.Visible && !kind.IsAnimation() {
			s.counters.skipped.Add(1)
			return id
		}
		if !st.Dirty && !st.LastUpdate.IsZero() &&
			s.clk.Now().Sub(st.LastUpdate) < s.cfg.MinUpdateInterval {
			s.counters.skipped.Add(1)
			return id
		}
	}

	if existing, found := s.queued[key]; found {
		// One physical invocation per target/kind per tick: union the
		// dependency sets, keep the freshest payload and the stronger
		// priority.
		mergeDeps(existing, deps)
		existing.Payload = payload
		if priority < existing.Priority {
			existing.Priority = priority
		}
		s.counters.merged.Add(1)
		return existing.ID
	}

	if len(s.queue) >= s.cfg.MaxQueueSize {
		s.counters.overflowDrops.Add(1)
		s.logger.Warn("update queue overflow, request dropped",
			"target", target, "kind", string(kind), "queue", len(s.queue))
		return id
	}

	req := &Request{
		ID:        id,
		Target:    target,
		Kind:      kind,
		Priority:  priority,
		Payload:   payload,
		CreatedAt: s.clk.Now(),
	}
	mergeDeps(req, deps)
	s.queue = append(s.queue, req)
	s.queued[key] = req
	st.Dirty = true
	return id
}

// SetVisibility updates tracking state only; in-flight work is neither
// triggered nor cancelled. Already-queued requests for the pair still
// execute; the next request is what gets dropped.
func (s *Scheduler) SetVisibility(target string, kind Kind, visible bool) {
	s.elems.state(elementKey{target: target, kind: kind}).Visible = visible
}

// MarkDirty lets domain code force the next request through the
// min-update-interval suppression after a material state change.
func (s *Scheduler) MarkDirty(target string, kind Kind) {
	s.elems.state(elementKey{target: target, kind: kind}).Dirty = true
}

// Tick runs one scheduling pass: order, batch, then drain against the frame
// budget. A started batch always finishes; once the budget is exceeded the
// remaining batches are re-queued for the next tick and a frame drop is
// recorded against the batch that overran.
func (s *Scheduler) Tick() TickResult {
	if len(s.queue) == 0 {
		return TickResult{}
	}

	start := s.clk.Now()
	pending := s.queue
	s.queue = nil

	batches := s.buildBatches(pending)

	var res TickResult
	for i, batch := range batches {
		for _, req := range batch.Requests {
			key := elementKey{target: req.Target, kind: req.Kind}
			delete(s.queued, key)
			s.execute(req, s.elems.state(key))
			res.Executed++
		}
		res.Batches++
		s.counters.batches.Add(1)

		if elapsed := s.clk.Now().Sub(start); elapsed > s.cfg.FrameBudget {
			res.FrameDrop = true
			s.counters.frameDrops.Add(1)
			for _, rest := range batches[i+1:] {
				for _, req := range rest.Requests {
					res.Deferred++
					s.requeue(req)
				}
			}
			break
		}
	}

	res.Elapsed = s.clk.Now().Sub(start)
	s.counters.observeTick(res.Executed)
	return res
}

func (s *Scheduler) execute(req *Request, st *ElementState) {
	began := s.clk.Now()
	if err := s.safeDispatch(req); err != nil {
		// One bad callback never aborts the batch or the tick.
		s.counters.faults.Add(1)
		s.logger.Error("update dispatch failed",
			"target", req.Target, "kind", string(req.Kind),
			"payload", fmt.Sprintf("%v", req.Payload), "err", err)
	}
	s.counters.executed.Add(1)

	st.LastUpdate = s.clk.Now()
	st.UpdateCount++
	st.Dirty = false
	st.EstimatedCost = s.clk.Now().Sub(began)
}

func (s *Scheduler) safeDispatch(req *Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch panic: %v", r)
		}
	}()
	return s.dispatch(req.Target, req.Kind, req.Payload)
}

func (s *Scheduler) requeue(req *Request) {
	key := elementKey{target: req.Target, kind: req.Kind}
	if existing, found := s.queued[key]; found && existing != req {
		existing.Payload = req.Payload
		s.counters.merged.Add(1)
		return
	}
	s.queue = append(s.queue, req)
	s.queued[key] = req
}

func (s *Scheduler) PendingLen() int { return len(s.queue) }

func (s *Scheduler) ElementCount() int { return s.elems.len() }

func (s *Scheduler) Throughput() float64 { return s.counters.throughput() }

func (s *Scheduler) Metrics() (requested, executed, immediate, merged, skipped, overflowDrops, frameDrops, batches, cycleFlushes, faults int64) {
	return s.counters.snapshot()
}

// Reset drops all pending work and tracking state. Used on dispose.
func (s *Scheduler) Reset() {
	s.queue = nil
	s.queued = make(map[elementKey]*Request)
	s.elems.purge()
}
