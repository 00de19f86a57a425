package monitor

import "time"

// TrackedReference is registered explicitly by callers wanting leak
// detection on a specific long-lived object. It leaves the registry when its
// refcount reaches zero or on explicit untrack.
type TrackedReference struct {
	ID             string
	TypeTag        string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	RefCount       int
	ApproxSize     int64
}

type trackedRegistry struct {
	refs map[string]*TrackedReference
}

func newTrackedRegistry() *trackedRegistry {
	return &trackedRegistry{refs: make(map[string]*TrackedReference)}
}

func (r *trackedRegistry) track(id, typeTag string, approxSize int64, now time.Time) {
	if existing, found := r.refs[id]; found {
		existing.RefCount++
		existing.LastAccessedAt = now
		return
	}
	r.refs[id] = &TrackedReference{
		ID:             id,
		TypeTag:        typeTag,
		CreatedAt:      now,
		LastAccessedAt: now,
		RefCount:       1,
		ApproxSize:     approxSize,
	}
}

func (r *trackedRegistry) addRef(id string, now time.Time) {
	if ref, found := r.refs[id]; found {
		ref.RefCount++
		ref.LastAccessedAt = now
	}
}

func (r *trackedRegistry) decRef(id string, now time.Time) {
	ref, found := r.refs[id]
	if !found {
		return
	}
	ref.RefCount--
	ref.LastAccessedAt = now
	if ref.RefCount <= 0 {
		delete(r.refs, id)
	}
}

func (r *trackedRegistry) touch(id string, now time.Time) {
	if ref, found := r.refs[id]; found {
		ref.LastAccessedAt = now
	}
}

func (r *trackedRegistry) untrack(id string) {
	delete(r.refs, id)
}

func (r *trackedRegistry) dropZeroRef() int {
	dropped := 0
	for id, ref := range r.refs {
		if ref.RefCount <= 0 {
			delete(r.refs, id)
			dropped++
		}
	}
	return dropped
}

func (r *trackedRegistry) dropIdle(olderThan time.Duration, now time.Time) int {
	dropped := 0
	for id, ref := range r.refs {
		if now.Sub(ref.LastAccessedAt) > olderThan {
			delete(r.refs, id)
			dropped++
		}
	}
	return dropped
}

func (r *trackedRegistry) len() int { return len(r.refs) }

func (r *trackedRegistry) clear() { r.refs = make(map[string]*TrackedReference) }
