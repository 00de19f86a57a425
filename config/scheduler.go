package config

import (
	"fmt"
	"time"
)

const (
	defaultCycleFlushCap  = 100
	defaultElementIdleTTL = 10 * time.Minute
	defaultMaxElements    = 4096
)

type SchedulerCfg struct {
	// MaxBatchSize caps the number of requests per batch. Batches also
	// split whenever priority changes, so a batch is priority-homogeneous.
	MaxBatchSize int `yaml:"max_batch_size"`

	// FrameBudget is the wall-clock budget a single tick may spend
	// executing batches. A started batch always finishes; the overage is
	// recorded as a frame drop.
	FrameBudget time.Duration `yaml:"frame_budget"`

	// MaxQueueSize caps pending requests. Requests arriving at a full
	// queue are dropped and counted.
	MaxQueueSize int `yaml:"max_queue_size"`

	// DirtyCheck enables suppression of redundant work: requests for
	// invisible targets and requests repeated within MinUpdateInterval
	// are dropped before queueing.
	DirtyCheck bool `yaml:"dirty_check"`

	// MinUpdateInterval is the window within which a repeat request for
	// the same target/kind is suppressed unless re-marked dirty.
	MinUpdateInterval time.Duration `yaml:"min_update_interval"`

	// CycleFlushCap bounds the dependency-resolution loop: when a full
	// pass resolves nothing (a cycle), up to this many pending requests
	// are flushed in last-seen order so the tick always terminates.
	// This is a safety valve, not load-bearing behavior.
	// This field is not read from YAML when <= 0 (default 100).
	CycleFlushCap int `yaml:"cycle_flush_cap"`

	// ElementIdleTTL evicts per-target state records untouched for this
	// long, so a long session cannot grow the registry without bound.
	// This field defaults during init. // virtual when unset
	ElementIdleTTL time.Duration `yaml:"element_idle_ttl"`

	// MaxElements caps the element-state registry.
	// This field defaults during init. // virtual when unset
	MaxElements int `yaml:"max_elements"`
}

func (cfg *SchedulerCfg) validate() error {
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	if cfg.FrameBudget <= 0 {
		return fmt.Errorf("frame_budget must be positive, got %s", cfg.FrameBudget)
	}
	if cfg.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be positive, got %d", cfg.MaxQueueSize)
	}
	if cfg.DirtyCheck && cfg.MinUpdateInterval <= 0 {
		return fmt.Errorf("min_update_interval must be positive when dirty_check is on, got %s", cfg.MinUpdateInterval)
	}
	return nil
}
