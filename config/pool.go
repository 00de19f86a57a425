package config

import "fmt"

type PoolCfg struct {
	// InitialSize is the number of instances preallocated per registered
	// type and the floor the shrinker trims back toward.
	InitialSize int `yaml:"initial_size"`

	// MaxSize caps resident (free) instances per type. Releases beyond the
	// cap drop the object, bounding worst-case memory under bursts.
	MaxSize int `yaml:"max_size"`

	// GrowthFactor controls growth on exhaustion: ceil(target * factor)
	// fresh instances are constructed before the next pop.
	GrowthFactor float64 `yaml:"growth_factor"`

	// ShrinkThreshold is the utilization below which a type's free list is
	// trimmed toward InitialSize.
	ShrinkThreshold float64 `yaml:"shrink_threshold"`

	// Shrinker configures the background trim worker.
	// If nil, pools only shrink on explicit ForceCleanup calls.
	Shrinker *ShrinkerCfg `yaml:"shrinker"`
}

type ShrinkerCfg struct {
	// CallsPerSec defines how many shrink scan cycles run per second.
	CallsPerSec int `yaml:"calls_per_sec"`
}

func (cfg *ShrinkerCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *PoolCfg) validate() error {
	if cfg.InitialSize <= 0 {
		return fmt.Errorf("initial_size must be positive, got %d", cfg.InitialSize)
	}
	if cfg.MaxSize < cfg.InitialSize {
		return fmt.Errorf("max_size %d must be >= initial_size %d", cfg.MaxSize, cfg.InitialSize)
	}
	if cfg.GrowthFactor <= 1.0 {
		return fmt.Errorf("growth_factor must be > 1.0, got %v", cfg.GrowthFactor)
	}
	if cfg.ShrinkThreshold <= 0 || cfg.ShrinkThreshold >= 1 {
		return fmt.Errorf("shrink_threshold must be in (0, 1), got %v", cfg.ShrinkThreshold)
	}
	return nil
}
