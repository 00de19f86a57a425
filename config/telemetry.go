package config

import "time"

type TelemetryCfg struct {
	// Interval is how often component stats are logged.
	Interval time.Duration `yaml:"interval"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil && cfg.Interval > 0
}
