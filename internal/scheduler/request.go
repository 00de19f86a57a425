package scheduler

import "time"

// Priority orders batch execution; lower value runs first. Immediate never
// enters the queue at all.
type Priority int

const (
	PriorityImmediate Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityImmediate:
		return "immediate"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Kind classifies what part of a target the update touches; dispatch routes
// on it and the visibility gate exempts animation work.
type Kind string

const (
	KindStats      Kind = "stats"
	KindSkills     Kind = "skills"
	KindResource   Kind = "resource"
	KindAppearance Kind = "appearance"
	KindAnimation  Kind = "animation"
	KindFull       Kind = "full"
)

// IsAnimation reports whether the kind must run even for invisible targets:
// an off-screen element still has to finish its animation state.
func (k Kind) IsAnimation() bool { return k == KindAnimation }

// Request is ephemeral: created by a caller, consumed (executed, merged or
// dropped) within one scheduling pass, never persisted.
type Request struct {
	ID        uint64
	Target    string
	Kind      Kind
	Priority  Priority
	Payload   any
	DependsOn map[uint64]struct{}
	CreatedAt time.Time
}

func mergeDeps(dst *Request, src []uint64) {
	if len(src) == 0 {
		return
	}
	if dst.DependsOn == nil {
		dst.DependsOn = make(map[uint64]struct{}, len(src))
	}
	for _, id := range src {
		dst.DependsOn[id] = struct{}{}
	}
}
