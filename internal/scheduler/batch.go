package scheduler

import "sort"

// Batch is a priority-homogeneous run of requests, built once per tick and
// discarded after execution.
type Batch struct {
	Priority Priority
	Requests []*Request
}

// buildBatches orders the pending queue and groups it: stable priority sort,
// dependency resolution, then splitting on size cap or priority change.
func (s *Scheduler) buildBatches(pending []*Request) []Batch {
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority < pending[j].Priority
	})

	ordered := s.resolveDependencies(pending)

	var batches []Batch
	for _, req := range ordered {
		n := len(batches)
		if n == 0 ||
			batches[n-1].Priority != req.Priority ||
			len(batches[n-1].Requests) >= s.cfg.MaxBatchSize {
			batches = append(batches, Batch{Priority: req.Priority})
			n++
		}
		batches[n-1].Requests = append(batches[n-1].Requests, req)
	}
	return batches
}

// resolveDependencies moves requests whose dependencies are satisfied into
// the output, repeatedly. A dependency counts as satisfied when it refers to
// a request already emitted this pass or to no pending request at all
// (executed earlier, dropped, or never queued). When a full pass makes no
// progress the queue holds a dependency cycle; up to CycleFlushCap requests
// are then flushed in last-seen order so the tick always terminates.
func (s *Scheduler) resolveDependencies(pending []*Request) []*Request {
	stillPending := make(map[uint64]struct{}, len(pending))
	hasDeps := false
	for _, req := range pending {
		stillPending[req.ID] = struct{}{}
		if len(req.DependsOn) > 0 {
			hasDeps = true
		}
	}
	if !hasDeps {
		return pending
	}

	ready := func(req *Request) bool {
		for dep := range req.DependsOn {
			if dep == req.ID {
				continue // self-dependency is meaningless, ignore it
			}
			if _, blocked := stillPending[dep]; blocked {
				return false
			}
		}
		return true
	}

	resolved := make([]*Request, 0, len(pending))
	for len(pending) > 0 {
		progress := false
		rest := pending[:0]
		for _, req := range pending {
			if ready(req) {
				resolved = append(resolved, req)
				delete(stillPending, req.ID)
				progress = true
			} else {
				rest = append(rest, req)
			}
		}
		pending = rest

		if !progress {
			flush := s.cfg.CycleFlushCap
			if flush > len(pending) {
				flush = len(pending)
			}
			s.counters.cycleFlushes.Add(1)
			s.logger.Warn("dependency cycle in update queue, flushing",
				"pending", len(pending), "flushed", flush)
			for _, req := range pending[:flush] {
				resolved = append(resolved, req)
				delete(stillPending, req.ID)
			}
			pending = pending[flush:]
		}
	}
	return resolved
}
