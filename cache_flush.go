package stencil

import (
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// flushSink keeps the flush buffer reachable so the writes are not elided
var flushSink []byte

// FlushCaches evicts the CPU caches by writing every cache line of a
// freshly allocated buffer of size bytes, twice with different patterns.
// It returns the time spent.
func FlushCaches(size int) time.Duration {
	line := int(unsafe.Sizeof(cpu.CacheLinePad{}))
	start := time.Now()

	data := make([]byte, size)
	for i := 0; i < len(data); i += line {
		data[i] = byte(i)
	}
	for i := 0; i < len(data); i += line {
		data[i] = byte(i * 7)
	}
	flushSink = data
	elapsed := time.Since(start)

	flushSink = nil
	runtime.GC()
	return elapsed
}
