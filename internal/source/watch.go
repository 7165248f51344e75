package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the parquet files under a directory tree.
// Bursts of file events inside the debounce window produce one
// notification on C.
type Watcher struct {
	C <-chan struct{}

	c        chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
}

// NewWatcher watches root and every directory below it. root is created
// if it does not exist.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", root, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	c := make(chan struct{}, 1)
	w := &Watcher{
		C:        c,
		c:        c,
		watcher:  fw,
		debounce: debounce,
		log:      slog.Default().With("component", "watcher"),
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// fsnotify is not recursive, so each directory is added on its own.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("watching new directory", "path", event.Name, "error", err)
					}
					pending = true
				}
			}
			if strings.HasSuffix(event.Name, ".parquet") &&
				event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
				pending = true
			}
			if pending && timerC == nil {
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				timerC = timer.C
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timerC:
			timerC = nil
			pending = false
			select {
			case w.c <- struct{}{}:
			default:
			}
		}
	}
}

// Close stops the watcher. Run returns after Close.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
