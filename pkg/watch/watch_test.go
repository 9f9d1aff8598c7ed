package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	logger, _ := logtest.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(target, []byte(`{"tree":[]}`), 0644))

	w, err := New(target, 20*time.Millisecond, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() error {
			changed <- struct{}{}
			return nil
		})
	}()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(target, []byte(`{"tree":[{"path":"a","type":"blob"}]}`), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_HandlerErrorsDoNotStop(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tree.json")

	w, err := New(target, 10*time.Millisecond, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() {
		_ = w.Run(ctx, func() error {
			calls.Add(1)
			return errors.New("bad payload")
		})
	}()

	require.NoError(t, os.WriteFile(target, []byte("1"), 0644))
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(target, []byte("2"), 0644))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "tree.json"), 0, nil)
	assert.Error(t, err)
}
