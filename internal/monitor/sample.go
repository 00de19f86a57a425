package monitor

import "time"

// Sample is one point of the bounded usage history.
type Sample struct {
	Timestamp       time.Time
	UsedBytes       uint64
	TotalBytes      uint64
	TrackedObjects  int
	ReclaimEvents   int64
	UsagePercentage float64
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

const (
	trendWindow    = 3
	trendThreshold = 0.05 // of the window's mean usage
)

// computeTrend labels the direction of the last trendWindow samples. The
// mean delta is compared against ±5% of the window's mean usage, so noise
// around a large baseline does not flap the label.
func computeTrend(history []Sample) Trend {
	if len(history) < trendWindow {
		return TrendStable
	}
	window := history[len(history)-trendWindow:]

	var meanUsed, meanDelta float64
	for i, s := range window {
		meanUsed += float64(s.UsedBytes)
		if i > 0 {
			meanDelta += float64(s.UsedBytes) - float64(window[i-1].UsedBytes)
		}
	}
	meanUsed /= float64(len(window))
	meanDelta /= float64(len(window) - 1)

	threshold := meanUsed * trendThreshold
	switch {
	case meanDelta > threshold:
		return TrendIncreasing
	case meanDelta < -threshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
