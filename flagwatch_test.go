package stencil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagWatcherFollowsNotifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iteration_ready.flag")
	fw, err := NewFlagWatcher(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan int, 16)
	done := make(chan error, 1)
	go func() {
		done <- fw.Run(ctx, func(pass int) { seen <- pass })
	}()

	n := NewFlagFileNotifier(path)
	for pass := 1; pass <= 3; pass++ {
		require.NoError(t, n.PassCompleted(pass, 3))
		select {
		case got := <-seen:
			assert.Equal(t, pass, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("pass %d not observed", pass)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFlagWatcherReportsExistingFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flag")
	require.NoError(t, os.WriteFile(path, []byte("Iteration 7 completed\n"), 0644))

	fw, err := NewFlagWatcher(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var got []int
	err = fw.Run(ctx, func(pass int) {
		got = append(got, pass)
		cancel()
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
}

func TestFlagWatcherMissingDirectory(t *testing.T) {
	_, err := NewFlagWatcher(filepath.Join(t.TempDir(), "absent", "flag"), nil)
	require.Error(t, err)
	assert.True(t, IsIOError(err))
}
