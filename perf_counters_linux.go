//go:build linux

package stencil

import (
	"encoding/binary"
	"os"
	"strconv"
	"unsafe"

	"golang.org/x/sys/unix"
)

type perfEvent struct {
	typ    uint32
	config uint64
	dst    func(*HWCounters) *uint64
}

func cacheConfig(cache, op, result uint64) uint64 {
	return cache | op<<8 | result<<16
}

var perfEvents = []perfEvent{
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES, func(c *HWCounters) *uint64 { return &c.Cycles }},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS, func(c *HWCounters) *uint64 { return &c.Instructions }},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_REFERENCES, func(c *HWCounters) *uint64 { return &c.CacheReferences }},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES, func(c *HWCounters) *uint64 { return &c.CacheMisses }},
	{unix.PERF_TYPE_HW_CACHE, cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS),
		func(c *HWCounters) *uint64 { return &c.L1DMisses }},
}

// CounterSession counts hardware events on every thread that existed when
// it was started. Threads created later are not counted, so start it after
// the worker pool has warmed up.
type CounterSession struct {
	fds [][]int // [event][thread]
}

// StartCounters opens and enables the counters. It returns an error wrapping
// ErrCountersUnavailable when perf events cannot be opened.
func StartCounters() (*CounterSession, error) {
	tids, err := threadIDs()
	if err != nil {
		return nil, NewExecutionError("StartCounters", "cannot list threads", err)
	}

	s := &CounterSession{fds: make([][]int, len(perfEvents))}
	for i, ev := range perfEvents {
		for _, tid := range tids {
			attr := unix.PerfEventAttr{
				Type:   ev.typ,
				Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
				Config: ev.config,
				Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
			}
			fd, err := unix.PerfEventOpen(&attr, tid, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
			if err != nil {
				// threads may exit between listing and opening
				if err == unix.ESRCH {
					continue
				}
				s.close()
				return nil, NewExecutionError("StartCounters", "perf_event_open failed", ErrCountersUnavailable)
			}
			s.fds[i] = append(s.fds[i], fd)
		}
	}

	for _, fds := range s.fds {
		for _, fd := range fds {
			_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0)
			_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0)
		}
	}
	return s, nil
}

// Stop disables the counters, closes them and returns the totals.
func (s *CounterSession) Stop() HWCounters {
	var c HWCounters
	var buf [8]byte
	for i, fds := range s.fds {
		dst := perfEvents[i].dst(&c)
		for _, fd := range fds {
			_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)
			if n, err := unix.Read(fd, buf[:]); err == nil && n == len(buf) {
				*dst += binary.NativeEndian.Uint64(buf[:])
			}
		}
	}
	s.close()
	c.derive()
	return c
}

func (s *CounterSession) close() {
	for _, fds := range s.fds {
		for _, fd := range fds {
			unix.Close(fd)
		}
	}
	s.fds = nil
}

func threadIDs() ([]int, error) {
	entries, err := os.ReadDir("/proc/self/task")
	if err != nil {
		return nil, err
	}
	tids := make([]int, 0, len(entries))
	for _, e := range entries {
		if tid, err := strconv.Atoi(e.Name()); err == nil {
			tids = append(tids, tid)
		}
	}
	return tids, nil
}
