package stencil

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// HostInfo describes the machine a benchmark ran on
type HostInfo struct {
	GOOS          string   `json:"goos"`
	GOARCH        string   `json:"goarch"`
	NumCPU        int      `json:"num_cpu"`
	CacheLineSize int      `json:"cache_line_size"`
	Features      []string `json:"features,omitempty"`
}

// DetectHost reports CPU count, cache line size and SIMD extensions
func DetectHost() HostInfo {
	info := HostInfo{
		GOOS:          runtime.GOOS,
		GOARCH:        runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		CacheLineSize: int(unsafe.Sizeof(cpu.CacheLinePad{})),
	}

	switch runtime.GOARCH {
	case "amd64", "386":
		flags := []struct {
			name string
			has  bool
		}{
			{"SSE4", cpu.X86.HasSSE41 || cpu.X86.HasSSE42},
			{"AVX", cpu.X86.HasAVX},
			{"AVX2", cpu.X86.HasAVX2},
			{"FMA", cpu.X86.HasFMA},
			{"AVX512F", cpu.X86.HasAVX512F},
		}
		for _, f := range flags {
			if f.has {
				info.Features = append(info.Features, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			info.Features = append(info.Features, "ASIMD")
		}
		if cpu.ARM64.HasFPHP {
			info.Features = append(info.Features, "FPHP")
		}
		if cpu.ARM64.HasSVE {
			info.Features = append(info.Features, "SVE")
		}
	}
	return info
}

// TileFitsL1 reports whether two tiles of the given edge, one read and one
// written, fit in L1 together
func TileFitsL1(tile int) bool {
	return 2*tile*tile*4 <= L1CacheSize
}

// String returns a one-line description of the host
func (h HostInfo) String() string {
	features := "none"
	if len(h.Features) > 0 {
		features = strings.Join(h.Features, ",")
	}
	return fmt.Sprintf("%s/%s cpus=%d cacheline=%d simd=%s",
		h.GOOS, h.GOARCH, h.NumCPU, h.CacheLineSize, features)
}
