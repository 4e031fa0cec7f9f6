package stencil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BenchmarkResult captures one strategy run inside a benchmark session
type BenchmarkResult struct {
	ID           string        `json:"id"`
	SessionID    string        `json:"session_id"`
	Name         string        `json:"name"`
	Status       string        `json:"status"` // "pass", "fail", "mismatch"
	Rows         int           `json:"rows"`
	Cols         int           `json:"cols"`
	Iterations   int           `json:"iterations"`
	Workers      int           `json:"workers,omitempty"`
	TileSize     int           `json:"tile_size,omitempty"`
	Duration     time.Duration `json:"duration"`
	NsPerCell    float64       `json:"ns_per_cell,omitempty"`
	Speedup      float64       `json:"speedup,omitempty"`
	Checksum     float64       `json:"checksum"`
	BitIdentical bool          `json:"bit_identical"`
	Error        string        `json:"error,omitempty"`
	Host         string        `json:"host,omitempty"`
	Counters     *HWCounters   `json:"counters,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// BenchmarkLogger manages logging of benchmark results to a JSON session file.
// The file is rewritten after every result so a crash loses nothing.
type BenchmarkLogger struct {
	mu          sync.Mutex
	results     []BenchmarkResult
	logDir      string
	sessionID   string
	sessionFile string
}

// NewBenchmarkLogger creates logDir if needed and starts a new session file
// named after sessionName and the current time.
func NewBenchmarkLogger(logDir, sessionName string) (*BenchmarkLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, NewIOError("NewBenchmarkLogger", "failed to create log directory", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	bl := &BenchmarkLogger{
		logDir:    logDir,
		sessionID: uuid.NewString(),
		sessionFile: filepath.Join(logDir,
			fmt.Sprintf("%s_%s.json", sessionName, timestamp)),
	}

	bl.mu.Lock()
	defer bl.mu.Unlock()
	if err := bl.flush(); err != nil {
		return nil, err
	}
	return bl, nil
}

// SessionID returns the identifier stamped on every result of the session
func (bl *BenchmarkLogger) SessionID() string { return bl.sessionID }

// SessionFile returns the path of the JSON session file
func (bl *BenchmarkLogger) SessionFile() string { return bl.sessionFile }

// Log records a single benchmark result and flushes the session file
func (bl *BenchmarkLogger) Log(result BenchmarkResult) (BenchmarkResult, error) {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	result.SessionID = bl.sessionID
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	bl.results = append(bl.results, result)

	return result, bl.flush()
}

// LogFail records a failed run
func (bl *BenchmarkLogger) LogFail(name string, err error) (BenchmarkResult, error) {
	return bl.Log(BenchmarkResult{
		Name:   name,
		Status: "fail",
		Error:  err.Error(),
	})
}

// Results returns a copy of the session's results
func (bl *BenchmarkLogger) Results() []BenchmarkResult {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return append([]BenchmarkResult(nil), bl.results...)
}

// flush writes results to disk. Caller holds bl.mu.
func (bl *BenchmarkLogger) flush() error {
	results := bl.results
	if results == nil {
		results = []BenchmarkResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(bl.sessionFile, data, 0644); err != nil {
		return NewIOError("BenchmarkLogger", "failed to write session file", err)
	}
	return nil
}

// LatestLogFile returns the most recently modified session file in logDir
func LatestLogFile(logDir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(logDir, "*.json"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", NewIOError("LatestLogFile", "no log files found in "+logDir, os.ErrNotExist)
	}

	var latest string
	var latestTime time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latest = file
			latestTime = info.ModTime()
		}
	}
	return latest, nil
}

// LoadSession reads a session file written by BenchmarkLogger
func LoadSession(path string) ([]BenchmarkResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewIOError("LoadSession", "cannot read session file", err)
	}
	var results []BenchmarkResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return results, nil
}

// PrintBenchmarkSummary writes a table of results to w
func PrintBenchmarkSummary(w io.Writer, results []BenchmarkResult) {
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "%-16s %12s %14s %9s %16s %s\n",
		"strategy", "total", "ns/cell", "speedup", "checksum", "oracle")
	fmt.Fprintln(w, strings.Repeat("-", 78))

	passed, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case "pass":
			passed++
			oracle := "identical"
			if !r.BitIdentical {
				oracle = "DIFFERS"
			}
			fmt.Fprintf(w, "%-16s %12s %14.3f %8.2fx %16.4f %s\n",
				r.Name, r.Duration.Round(time.Microsecond), r.NsPerCell, r.Speedup, r.Checksum, oracle)
		default:
			failed++
			fmt.Fprintf(w, "%-16s %s: %s\n", r.Name, strings.ToUpper(r.Status), r.Error)
		}
	}

	for _, r := range results {
		if r.Counters != nil {
			fmt.Fprintf(w, "%-16s %s\n", r.Name, r.Counters)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
}
