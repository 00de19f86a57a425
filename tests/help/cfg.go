package help

import (
	"time"

	"github.com/emberfall/go-forge-perf/config"
)

func Cfg() *config.Perf {
	c := &config.Perf{
		Cache: config.CacheCfg{
			MaxSize:   500,
			TTL:       5 * time.Minute,
			EnableLRU: true,
		},
		Pool: config.PoolCfg{
			InitialSize:     10,
			MaxSize:         100,
			GrowthFactor:    1.5,
			ShrinkThreshold: 0.3,
		},
		Scheduler: config.SchedulerCfg{
			MaxBatchSize:      10,
			FrameBudget:       16670 * time.Microsecond,
			MaxQueueSize:      1024,
			DirtyCheck:        true,
			MinUpdateInterval: 16 * time.Millisecond,
		},
		Monitor: &config.MonitorCfg{
			SamplingInterval:  5 * time.Second,
			WarningThreshold:  0.8,
			CriticalThreshold: 0.95,
			HistoryCap:        100,
			LeakDetection:     true,
			AutoCleanup:       true,
		},
	}
	c.AdjustConfig()
	return c
}

// SchedulerCfg narrows batching for the batch-shape scenarios.
func SchedulerCfg(maxBatchSize int) *config.Perf {
	c := Cfg()
	c.Scheduler.MaxBatchSize = maxBatchSize
	return c
}

// NoMonitorCfg disables sampling so facade tests stay quiet.
func NoMonitorCfg() *config.Perf {
	c := Cfg()
	c.Monitor = nil
	return c
}
