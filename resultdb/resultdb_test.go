package resultdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/stencil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func result(session, strategy, status string, d time.Duration, at time.Time) stencil.BenchmarkResult {
	return stencil.BenchmarkResult{
		ID:           uuid.NewString(),
		SessionID:    session,
		Name:         strategy,
		Status:       status,
		Rows:         64,
		Cols:         64,
		Iterations:   10,
		Workers:      4,
		TileSize:     16,
		Duration:     d,
		NsPerCell:    float64(d) / (64 * 64 * 10),
		Speedup:      1.5,
		Checksum:     123456.75,
		BitIdentical: status == "pass",
		Host:         "linux/amd64",
		Timestamp:    at,
	}
}

func TestOpenMigrates(t *testing.T) {
	db := openTestDB(t)
	v, dirty, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
	assert.False(t, dirty)

	// reapplying is a no-op
	require.NoError(t, db.MigrateUp())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	session := uuid.NewString()
	require.NoError(t, db.RecordSession(ctx, Session{ID: session, Name: "reopen"}))
	require.NoError(t, db.InsertRun(ctx, result(session, "sequential", "pass", time.Second, time.Now())))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestInsertAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	session := uuid.NewString()
	require.NoError(t, db.RecordSession(ctx, Session{ID: session, Name: "list", LogFile: "x.json"}))
	require.NoError(t, db.RecordSession(ctx, Session{ID: session, Name: "list"}))

	base := time.Unix(1700000000, 0)
	want := []stencil.BenchmarkResult{
		withCounters(result(session, "sequential", "pass", 3*time.Second, base)),
		result(session, "naive_parallel", "pass", 2*time.Second, base.Add(time.Second)),
		result(session, "tiled_parallel", "mismatch", time.Second, base.Add(2*time.Second)),
	}
	for _, r := range want {
		require.NoError(t, db.InsertRun(ctx, r))
	}

	got, err := db.SessionRuns(ctx, session)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Duration, got[i].Duration)
		assert.Equal(t, want[i].BitIdentical, got[i].BitIdentical)
		assert.Equal(t, want[i].Checksum, got[i].Checksum)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
	}
	require.NotNil(t, got[0].Counters)
	assert.Equal(t, *want[0].Counters, *got[0].Counters)
	assert.Nil(t, got[1].Counters)

	latest, err := db.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "tiled_parallel", latest[0].Name)
	assert.Equal(t, "naive_parallel", latest[1].Name)
}

func TestFastestRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	session := uuid.NewString()
	require.NoError(t, db.RecordSession(ctx, Session{ID: session, Name: "fastest"}))

	now := time.Now()
	for _, r := range []stencil.BenchmarkResult{
		result(session, "tiled_parallel", "pass", 5*time.Millisecond, now),
		result(session, "tiled_parallel", "pass", 3*time.Millisecond, now),
		result(session, "tiled_parallel", "mismatch", time.Millisecond, now),
	} {
		require.NoError(t, db.InsertRun(ctx, r))
	}

	best, ok, err := db.FastestRun(ctx, "tiled_parallel", 64, 64, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3*time.Millisecond, best.Duration)

	_, ok, err = db.FastestRun(ctx, "tiled_parallel", 128, 64, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertRunValidation(t *testing.T) {
	db := openTestDB(t)
	err := db.InsertRun(context.Background(), stencil.BenchmarkResult{Name: "sequential"})
	assert.True(t, stencil.IsInvalidArgError(err))
}

func TestOpenUnwritable(t *testing.T) {
	_, err := Open(filepath.Join("/dev/null", "results.db"))
	require.Error(t, err)
	assert.True(t, stencil.IsIOError(err))
}

func withCounters(r stencil.BenchmarkResult) stencil.BenchmarkResult {
	r.Counters = &stencil.HWCounters{
		Cycles:          4000,
		Instructions:    9000,
		CacheReferences: 100,
		CacheMisses:     25,
		L1DMisses:       60,
		IPC:             2.25,
		CacheMissRate:   0.25,
	}
	return r
}
