package scheduler

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type elementKey struct {
	target string
	kind   Kind
}

// ElementState is the long-lived per (target, kind) tracking record behind
// dirty-check suppression. One exists per pair ever observed, so the
// registry is bounded by an expirable LRU instead of a plain map.
type ElementState struct {
	LastUpdate    time.Time
	UpdateCount   int64
	Dirty         bool
	Visible       bool
	EstimatedCost time.Duration
}

type elementRegistry struct {
	lru *expirable.LRU[elementKey, *ElementState]
}

func newElementRegistry(maxElements int, idleTTL time.Duration) *elementRegistry {
	return &elementRegistry{
		lru: expirable.NewLRU[elementKey, *ElementState](maxElements, nil, idleTTL),
	}
}

// state returns the record for the pair, creating a visible one on first
// sight.
func (r *elementRegistry) state(key elementKey) *ElementState {
	if st, found := r.lru.Get(key); found {
		return st
	}
	st := &ElementState{Visible: true}
	r.lru.Add(key, st)
	return st
}

func (r *elementRegistry) len() int { return r.lru.Len() }

func (r *elementRegistry) purge() { r.lru.Purge() }
