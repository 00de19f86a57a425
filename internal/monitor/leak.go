package monitor

import (
	"fmt"
	"time"
)

type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	LeakLongLivedReference     = "long_lived_reference"
	LeakContinuousMemoryGrowth = "continuous_memory_growth"
)

// LeakReport is diagnostic only: it is delivered to callbacks and never
// triggers corrective action beyond what threshold handling already does.
type LeakReport struct {
	Kind     string
	Severity Severity
	ID       string
	TypeTag  string
	Age      time.Duration
	Detail   string
}

const (
	leakRefAgeMedium = 10 * time.Minute
	leakRefAgeHigh   = 30 * time.Minute

	growthWindow   = 10
	growthHigh     = 0.20
	growthCritical = 0.50
)

// analyzeLeaks applies the two heuristics: references alive too long, and
// sustained monotonic growth across the sampling window.
func (m *Monitor) analyzeLeaks(now time.Time) []LeakReport {
	var reports []LeakReport

	for _, ref := range m.refs.refs {
		if ref.RefCount <= 0 {
			continue
		}
		age := now.Sub(ref.CreatedAt)
		if age <= leakRefAgeMedium {
			continue
		}
		severity := SeverityMedium
		if age > leakRefAgeHigh {
			severity = SeverityHigh
		}
		reports = append(reports, LeakReport{
			Kind:     LeakLongLivedReference,
			Severity: severity,
			ID:       ref.ID,
			TypeTag:  ref.TypeTag,
			Age:      age,
			Detail:   fmt.Sprintf("refcount %d, ~%d bytes", ref.RefCount, ref.ApproxSize),
		})
	}

	if report, found := m.detectGrowth(); found {
		reports = append(reports, report)
	}
	return reports
}

func (m *Monitor) detectGrowth() (LeakReport, bool) {
	if len(m.history) < growthWindow {
		return LeakReport{}, false
	}
	window := m.history[len(m.history)-growthWindow:]

	first := window[0].UsedBytes
	if first == 0 {
		return LeakReport{}, false
	}
	for i := 1; i < len(window); i++ {
		if window[i].UsedBytes < window[i-1].UsedBytes {
			return LeakReport{}, false
		}
	}

	growth := float64(window[len(window)-1].UsedBytes-first) / float64(first)
	if growth <= growthHigh {
		return LeakReport{}, false
	}
	severity := SeverityHigh
	if growth > growthCritical {
		severity = SeverityCritical
	}
	return LeakReport{
		Kind:     LeakContinuousMemoryGrowth,
		Severity: severity,
		Age:      window[len(window)-1].Timestamp.Sub(window[0].Timestamp),
		Detail:   fmt.Sprintf("used bytes grew %.0f%% over the last %d samples", growth*100, growthWindow),
	}, true
}
