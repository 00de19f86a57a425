package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Perf groups configuration of all engine subsystems.
// Each optional component can be disabled by setting it to nil.
type Perf struct {
	Cache     CacheCfg     `yaml:"cache"`
	Pool      PoolCfg      `yaml:"pool"`
	Scheduler SchedulerCfg `yaml:"scheduler"`

	// Monitor configures memory sampling and leak detection.
	// If nil, monitoring is disabled and memory metrics report zero.
	Monitor *MonitorCfg `yaml:"monitor"`

	// Telemetry configures periodic stats logging.
	// If nil, no stats are logged.
	Telemetry *TelemetryCfg `yaml:"telemetry"`
}

// AdjustConfig computes derived fields that are not read from YAML.
func (cfg *Perf) AdjustConfig() {
	if cfg.Cache.EvictionFraction <= 0 || cfg.Cache.EvictionFraction >= 1 {
		cfg.Cache.EvictionFraction = defaultEvictionFraction
	}
	if len(cfg.Cache.Categories) == 0 {
		cfg.Cache.Categories = DefaultCategories()
	}

	if cfg.Scheduler.CycleFlushCap <= 0 {
		cfg.Scheduler.CycleFlushCap = defaultCycleFlushCap
	}
	if cfg.Scheduler.ElementIdleTTL <= 0 {
		cfg.Scheduler.ElementIdleTTL = defaultElementIdleTTL
	}
	if cfg.Scheduler.MaxElements <= 0 {
		cfg.Scheduler.MaxElements = defaultMaxElements
	}

	if cfg.Monitor.Enabled() {
		cfg.Monitor.LeakAnalysisInterval = 2 * cfg.Monitor.SamplingInterval
	}
}

// Validate rejects invalid sizes, ttls and thresholds at construction time.
// It never panics: misconfiguration is reported as a plain error.
func (cfg *Perf) Validate() error {
	if err := cfg.Cache.validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	if err := cfg.Pool.validate(); err != nil {
		return fmt.Errorf("pool config: %w", err)
	}
	if err := cfg.Scheduler.validate(); err != nil {
		return fmt.Errorf("scheduler config: %w", err)
	}
	if cfg.Monitor.Enabled() {
		if err := cfg.Monitor.validate(); err != nil {
			return fmt.Errorf("monitor config: %w", err)
		}
	}
	return nil
}

func LoadConfig(path string) (*Perf, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Perf
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.AdjustConfig()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}
