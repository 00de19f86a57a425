package config

import (
	"fmt"
	"time"
)

type MonitorCfg struct {
	// SamplingInterval is how often a memory sample is taken.
	SamplingInterval time.Duration `yaml:"sampling_interval"`

	// WarningThreshold is the usage fraction at which warning callbacks
	// fire and a light cleanup runs.
	WarningThreshold float64 `yaml:"warning_threshold"`

	// CriticalThreshold is the usage fraction at which warning callbacks
	// fire and, if AutoCleanup is on, an aggressive cleanup runs.
	CriticalThreshold float64 `yaml:"critical_threshold"`

	// HistoryCap bounds the sample ring; the oldest sample is dropped
	// once the cap is exceeded.
	HistoryCap int `yaml:"history_cap"`

	// LeakDetection enables the slower leak-analysis timer.
	LeakDetection bool `yaml:"leak_detection"`

	// AutoCleanup allows the monitor to trigger cleanups on thresholds.
	AutoCleanup bool `yaml:"auto_cleanup"`

	// LeakAnalysisInterval is derived as 2x SamplingInterval during init
	// and is not read from YAML. // virtual: computed during init
	LeakAnalysisInterval time.Duration
}

func (cfg *MonitorCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *MonitorCfg) validate() error {
	if cfg.SamplingInterval <= 0 {
		return fmt.Errorf("sampling_interval must be positive, got %s", cfg.SamplingInterval)
	}
	if cfg.WarningThreshold <= 0 || cfg.WarningThreshold > 1 {
		return fmt.Errorf("warning_threshold must be in (0, 1], got %v", cfg.WarningThreshold)
	}
	if cfg.CriticalThreshold <= 0 || cfg.CriticalThreshold > 1 {
		return fmt.Errorf("critical_threshold must be in (0, 1], got %v", cfg.CriticalThreshold)
	}
	if cfg.CriticalThreshold < cfg.WarningThreshold {
		return fmt.Errorf("critical_threshold %v must be >= warning_threshold %v",
			cfg.CriticalThreshold, cfg.WarningThreshold)
	}
	if cfg.HistoryCap <= 0 {
		return fmt.Errorf("history_cap must be positive, got %d", cfg.HistoryCap)
	}
	return nil
}
