package config

import (
	"fmt"
	"time"
)

const defaultEvictionFraction = 0.25

// DefaultCategories returns the derived-data categories the progression
// subsystem caches out of the box. Config may extend this list.
func DefaultCategories() []string {
	return []string{"stats", "skills", "requirements", "compatibility"}
}

type CacheCfg struct {
	// MaxSize is the per-category entry cap. When a category is full,
	// a batch of the least recently touched entries is evicted at once.
	MaxSize int `yaml:"max_size"`

	// TTL is the maximum age of an entry before a read treats it as a miss.
	// Expiry is enforced lazily at read time; background sweeps belong to
	// the monitor's cleanup, not to the store.
	TTL time.Duration `yaml:"ttl"`

	// EnableLRU toggles recency-based eviction. When false a full category
	// rejects new inserts instead of evicting.
	EnableLRU bool `yaml:"enable_lru"`

	// Categories lists the independent cache categories.
	// Empty means DefaultCategories().
	Categories []string `yaml:"categories"`

	// EvictionFraction is the share of a full category removed per eviction
	// batch, sorted by last access ascending. Batching amortizes the sort
	// cost over many inserts.
	// This field is not read from YAML. // virtual: computed during init
	EvictionFraction float64
}

func (cfg *CacheCfg) validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive, got %d", cfg.MaxSize)
	}
	if cfg.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", cfg.TTL)
	}
	for _, c := range cfg.Categories {
		if c == "" {
			return fmt.Errorf("empty category name")
		}
	}
	return nil
}
