package stencil

import (
	"errors"
	"fmt"
)

// ErrCountersUnavailable is returned by StartCounters when the platform or
// the kernel's perf_event_paranoid setting does not allow counting.
var ErrCountersUnavailable = NewExecutionError("StartCounters", "hardware counters unavailable", errors.ErrUnsupported)

// HWCounters holds hardware counter totals for one measured region, summed
// over every thread of the process.
type HWCounters struct {
	Cycles          uint64  `json:"cycles"`
	Instructions    uint64  `json:"instructions"`
	CacheReferences uint64  `json:"cache_references"`
	CacheMisses     uint64  `json:"cache_misses"`
	L1DMisses       uint64  `json:"l1d_read_misses"`
	IPC             float64 `json:"ipc"`
	CacheMissRate   float64 `json:"cache_miss_rate"`
}

func (c *HWCounters) derive() {
	if c.Cycles > 0 {
		c.IPC = float64(c.Instructions) / float64(c.Cycles)
	}
	if c.CacheReferences > 0 {
		c.CacheMissRate = float64(c.CacheMisses) / float64(c.CacheReferences)
	}
}

// String formats the counters on one line
func (c HWCounters) String() string {
	return fmt.Sprintf("IPC %.2f, cache misses %d/%d (%.1f%%), L1D read misses %d",
		c.IPC, c.CacheMisses, c.CacheReferences, c.CacheMissRate*100, c.L1DMisses)
}
