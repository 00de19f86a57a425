package monitor

import (
	"runtime"
	"runtime/debug"
)

// Capability is what the host environment may provide: a memory-usage query
// and an explicit reclamation trigger. Both are optional; the engine
// degrades to zero readings rather than failing when they are absent.
type Capability interface {
	MemoryUsage() (usedBytes, totalBytes uint64, ok bool)
	ForceReclaim() bool
}

// RuntimeCapability reads the Go heap. It is the default when the host does
// not inject anything better (e.g. an engine-level allocator).
type RuntimeCapability struct{}

func (RuntimeCapability) MemoryUsage() (usedBytes, totalBytes uint64, ok bool) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc, ms.HeapSys, true
}

func (RuntimeCapability) ForceReclaim() bool {
	debug.FreeOSMemory()
	return true
}

// NoOpCapability reports nothing; usage percentage reads as zero and
// reclamation requests are ignored.
type NoOpCapability struct{}

func (NoOpCapability) MemoryUsage() (usedBytes, totalBytes uint64, ok bool) {
	return 0, 0, false
}

func (NoOpCapability) ForceReclaim() bool { return false }
