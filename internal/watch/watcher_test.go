package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatcher(t *testing.T, dir string) (*Watcher, chan []string) {
	t.Helper()
	settled := make(chan []string, 8)
	w, err := NewWatcher(nil, 50*time.Millisecond, func(paths []string) {
		select {
		case settled <- paths:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w, settled
}

func waitForBatch(t *testing.T, settled chan []string) []string {
	t.Helper()
	select {
	case paths := <-settled:
		return paths
	case <-time.After(5 * time.Second):
		t.Fatal("no settled batch arrived in time")
		return nil
	}
}

func TestWatcher_TriggersOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "causal_graph.py")
	require.NoError(t, os.WriteFile(target, []byte("x = 1\n"), 0o644))

	_, settled := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(target, []byte("x = 2\n"), 0o644))
	paths := waitForBatch(t, settled)
	assert.Contains(t, paths, target)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, settled := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	select {
	case paths := <-settled:
		t.Fatalf("non-Python change should not settle, got %v", paths)
	case <-time.After(400 * time.Millisecond):
	}

	target := filepath.Join(dir, "late.py")
	require.NoError(t, os.WriteFile(target, []byte("x = 1\n"), 0o644))
	paths := waitForBatch(t, settled)
	assert.Contains(t, paths, target, "The watcher is still alive after ignoring the text file")
}

func TestWatcher_BatchesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	b := filepath.Join(dir, "b.py")
	_, settled := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(a, []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("y = 1\n"), 0o644))

	paths := waitForBatch(t, settled)
	if len(paths) < 2 {
		more := waitForBatch(t, settled)
		paths = append(paths, more...)
	}
	assert.Contains(t, paths, a)
	assert.Contains(t, paths, b)
}

func TestWatcher_WatchesSingleFileThroughParent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ledger.py")
	require.NoError(t, os.WriteFile(target, []byte("x = 1\n"), 0o644))

	settled := make(chan []string, 8)
	w, err := NewWatcher(nil, 50*time.Millisecond, func(paths []string) {
		select {
		case settled <- paths:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Add(target))
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(target, []byte("x = 2\n"), 0o644))
	paths := waitForBatch(t, settled)
	assert.Contains(t, paths, target)
}

func TestWatcher_AddMissingPath(t *testing.T) {
	w, err := NewWatcher(nil, 0, func([]string) {})
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing")))
}

func TestWatcher_StopWithoutStartIsSafe(t *testing.T) {
	w, err := NewWatcher(nil, 0, func([]string) {})
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}

func TestWatcher_StartTwice(t *testing.T) {
	dir := t.TempDir()
	w, _ := startWatcher(t, dir)
	require.NoError(t, w.Start(context.Background()), "A second start is a no-op, not a second event loop")
}
