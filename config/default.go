package config

import "time"

// Default returns a config tuned for a typical game session.
func Default() *Perf {
	cfg := &Perf{
		Cache: CacheCfg{
			MaxSize:   1000,
			TTL:       5 * time.Minute,
			EnableLRU: true,
		},
		Pool: PoolCfg{
			InitialSize:     10,
			MaxSize:         100,
			GrowthFactor:    1.5,
			ShrinkThreshold: 0.3,
			Shrinker:        &ShrinkerCfg{CallsPerSec: 1},
		},
		Scheduler: SchedulerCfg{
			MaxBatchSize:      10,
			FrameBudget:       16670 * time.Microsecond,
			MaxQueueSize:      1024,
			DirtyCheck:        true,
			MinUpdateInterval: 16 * time.Millisecond,
		},
		Monitor: &MonitorCfg{
			SamplingInterval:  5 * time.Second,
			WarningThreshold:  0.8,
			CriticalThreshold: 0.95,
			HistoryCap:        100,
			LeakDetection:     true,
			AutoCleanup:       true,
		},
		Telemetry: &TelemetryCfg{Interval: 5 * time.Second},
	}
	cfg.AdjustConfig()
	return cfg
}
