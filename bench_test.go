package stencil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkStrategiesAgreeWithOracle(t *testing.T) {
	input := RandomGridOrFail(t, 45, 70, 8)
	opts := optionsFor(TiledParallel, 3, 16)

	results, err := BenchmarkStrategies(context.Background(), input, 4, opts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, kind := range Kinds() {
		r := results[i]
		assert.Equal(t, kind.String(), r.Name)
		assert.Equal(t, "pass", r.Status, r.Error)
		assert.True(t, r.BitIdentical)
		assert.Equal(t, 45, r.Rows)
		assert.Equal(t, 70, r.Cols)
		assert.Equal(t, 4, r.Iterations)
		assert.Equal(t, results[0].Checksum, r.Checksum)
	}
	assert.Zero(t, results[0].Workers)
	assert.Equal(t, 3, results[1].Workers)
	assert.Zero(t, results[1].TileSize)
	assert.Equal(t, 16, results[2].TileSize)
	assert.Equal(t, 1.0, results[0].Speedup)
}

func TestBenchmarkStrategiesDoesNotMutateInput(t *testing.T) {
	input := RandomGridOrFail(t, 10, 10, 4)
	snapshot := input.Clone()
	_, err := BenchmarkStrategies(context.Background(), input, 3, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, snapshot.Equal(input))
}

func TestBenchmarkStrategiesValidation(t *testing.T) {
	_, err := BenchmarkStrategies(context.Background(), nil, 1, DefaultOptions())
	assert.ErrorIs(t, err, ErrNilGrid)

	_, err = BenchmarkStrategies(context.Background(), NewGridOrFail(t, 2, 2), 0, DefaultOptions())
	assert.True(t, IsInvalidArgError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := BenchmarkStrategies(ctx, NewGridOrFail(t, 2, 2), 1, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestBenchmarkStrategiesRecordsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 0
	results, err := BenchmarkStrategies(context.Background(), NewGridOrFail(t, 3, 3), 1, opts)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "fail", r.Status)
		assert.NotEmpty(t, r.Error)
	}
}

func TestBenchmarkLoggerSession(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	bl, err := NewBenchmarkLogger(dir, "bench")
	require.NoError(t, err)
	assert.FileExists(t, bl.SessionFile())
	assert.NotEmpty(t, bl.SessionID())

	logged, err := bl.Log(BenchmarkResult{Name: "sequential", Status: "pass", Speedup: 1, BitIdentical: true})
	require.NoError(t, err)
	assert.NotEmpty(t, logged.ID)
	assert.Equal(t, bl.SessionID(), logged.SessionID)
	assert.False(t, logged.Timestamp.IsZero())

	_, err = bl.LogFail("tiled_parallel", os.ErrDeadlineExceeded)
	require.NoError(t, err)

	latest, err := LatestLogFile(dir)
	require.NoError(t, err)
	assert.Equal(t, bl.SessionFile(), latest)

	loaded, err := LoadSession(latest)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "sequential", loaded[0].Name)
	assert.Equal(t, "fail", loaded[1].Status)
	assert.Len(t, bl.Results(), 2)

	var buf bytes.Buffer
	PrintBenchmarkSummary(&buf, loaded)
	assert.Contains(t, buf.String(), "identical")
	assert.Contains(t, buf.String(), "FAIL")
	assert.Contains(t, buf.String(), "Total: 2 | Passed: 1 | Failed: 1")
}

func TestLatestLogFileEmptyDir(t *testing.T) {
	_, err := LatestLogFile(t.TempDir())
	require.Error(t, err)
	assert.True(t, IsIOError(err))
}

func TestDetectHost(t *testing.T) {
	h := DetectHost()
	assert.Positive(t, h.NumCPU)
	assert.Positive(t, h.CacheLineSize)
	assert.Contains(t, h.String(), h.GOARCH)
	assert.True(t, TileFitsL1(32))
	assert.False(t, TileFitsL1(DefaultTileSize))
}

func TestBenchmarkStrategiesColdCache(t *testing.T) {
	opts := optionsFor(TiledParallel, 2, 4)
	opts.ColdCache = true
	results, err := BenchmarkStrategies(context.Background(), RandomGridOrFail(t, 9, 9, 2), 2, opts)
	require.NoError(t, err)
	require.Len(t, results, len(Kinds()))
	for _, r := range results {
		assert.Equal(t, "pass", r.Status, r.Name)
	}
}

func TestFlushCaches(t *testing.T) {
	assert.GreaterOrEqual(t, FlushCaches(1<<20), time.Duration(0))
	assert.Nil(t, flushSink)
}
