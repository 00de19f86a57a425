package forgeperf

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// GenerateReport renders a human-readable summary of engine health. The
// summary is also emitted to the zerolog audit stream so a session report
// survives in the logs even when the caller discards the string.
func (p *Perf) GenerateReport() string {
	m := p.Metrics()

	var b strings.Builder
	b.WriteString("=== progression performance engine ===\n")

	b.WriteString("cache:\n")
	fmt.Fprintf(&b, "  hit rate:        %.1f%%\n", m.CacheHitRate*100)
	fmt.Fprintf(&b, "  entries:         %d\n", m.CacheEntries)
	fmt.Fprintf(&b, "  hits/misses:     %d/%d\n", m.CacheHits, m.CacheMisses)
	fmt.Fprintf(&b, "  evicted/expired: %d/%d\n", m.CacheEvictions, m.CacheExpirations)
	fmt.Fprintf(&b, "  avg compute:     %s\n", m.AvgComputeTime)

	b.WriteString("pools:\n")
	fmt.Fprintf(&b, "  utilization:     %.1f%%\n", m.PoolUtilization*100)
	fmt.Fprintf(&b, "  acquired:        %d\n", m.PoolAcquires)
	fmt.Fprintf(&b, "  released:        %d (dropped %d)\n", m.PoolReleases, m.PoolDropped)

	b.WriteString("scheduler:\n")
	fmt.Fprintf(&b, "  executed:        %d\n", m.UpdatesExecuted)
	fmt.Fprintf(&b, "  merged/skipped:  %d/%d\n", m.UpdatesMerged, m.UpdatesSkipped)
	fmt.Fprintf(&b, "  throughput:      %.1f updates/tick\n", m.UpdateThroughput)
	fmt.Fprintf(&b, "  frame drops:     %d\n", m.FrameDrops)
	fmt.Fprintf(&b, "  pending:         %d\n", m.PendingUpdates)

	b.WriteString("memory:\n")
	fmt.Fprintf(&b, "  usage:           %.1f%% (%d/%d bytes)\n",
		m.MemoryUsage*100, m.MemoryUsedBytes, m.MemoryTotalBytes)
	fmt.Fprintf(&b, "  trend:           %s\n", m.MemoryTrend)
	fmt.Fprintf(&b, "  tracked refs:    %d\n", m.TrackedRefs)

	report := b.String()

	log.Info().
		Float64("cache_hit_rate", m.CacheHitRate).
		Int("cache_entries", m.CacheEntries).
		Float64("pool_utilization", m.PoolUtilization).
		Int64("updates_executed", m.UpdatesExecuted).
		Int64("frame_drops", m.FrameDrops).
		Float64("memory_usage", m.MemoryUsage).
		Str("memory_trend", m.MemoryTrend).
		Msg("performance report generated")

	return report
}
