package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce coalesces bursts of events from editors that write a
// file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a single file. The directory containing the
// file is watched so that atomic rename-over saves are seen.
type Watcher struct {
	filePath string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *logrus.Entry
}

// New creates a Watcher for filePath. The directory must exist; the file
// itself may not exist yet.
func New(filePath string, debounce time.Duration, logger *logrus.Entry) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return &Watcher{
		filePath: filePath,
		debounce: debounce,
		watcher:  watcher,
		logger:   logger.WithField("file", filePath),
	}, nil
}

// Run calls onChange after each debounced burst of changes until ctx is
// done. Errors from onChange are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func() error) error {
	defer w.watcher.Close()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	fileName := filepath.Base(w.filePath)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			if err := onChange(); err != nil {
				w.logger.WithError(err).Warn("Change handler failed")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("fsnotify error")
		}
	}
}
