package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, source string, ignore []string) (*SourceWatcher, *atomic.Int32) {
	t.Helper()
	var triggers atomic.Int32
	watcher, err := NewSourceWatcher(source, ignore, 50*time.Millisecond, func(string) {
		triggers.Add(1)
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, watcher.Start(ctx))
	t.Cleanup(func() { _ = watcher.Stop(context.Background()) })

	return watcher, &triggers
}

func TestSourceWatcher_BurstCoalescesToSingleTrigger(t *testing.T) {
	source := t.TempDir()
	_, triggers := startWatcher(t, source, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(source, "mod.py"), []byte("# changed"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return triggers.Load() == 1 }, "expected a single coalesced trigger")

	// Quiet period: no further triggers.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), triggers.Load())
}

func TestSourceWatcher_IgnoresOutputDirectory(t *testing.T) {
	source := t.TempDir()
	output := filepath.Join(source, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(output, "html"), 0755))

	_, triggers := startWatcher(t, source, []string{output})

	// Generated output must never retrigger a build.
	require.NoError(t, os.WriteFile(filepath.Join(output, "html", "index.html"), []byte("<html/>"), 0644))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), triggers.Load())

	require.NoError(t, os.WriteFile(filepath.Join(source, "mod.py"), []byte("# src"), 0644))
	waitFor(t, func() bool { return triggers.Load() == 1 }, "source change should trigger")
}

func TestSourceWatcher_WatchesNewDirectories(t *testing.T) {
	source := t.TempDir()
	_, triggers := startWatcher(t, source, nil)

	sub := filepath.Join(source, "newpkg")
	require.NoError(t, os.MkdirAll(sub, 0755))
	waitFor(t, func() bool { return triggers.Load() >= 1 }, "mkdir should trigger")

	// Give the watcher a moment to register the new directory, then confirm
	// changes inside it are seen.
	time.Sleep(100 * time.Millisecond)
	before := triggers.Load()
	require.NoError(t, os.WriteFile(filepath.Join(sub, "mod.py"), []byte("# new"), 0644))
	waitFor(t, func() bool { return triggers.Load() > before }, "file in new directory should trigger")
}
