// Package watcher watches the archive tree for changes with debouncing.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/darkpan/internal/fileutil"
	"github.com/zjrosen/darkpan/internal/log"
)

// Watcher monitors a directory tree and signals after changes settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Root        string
	DebounceDur time.Duration
}

// DefaultConfig returns the defaults for watching root.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		DebounceDur: 1 * time.Second,
	}
}

// New creates a new tree watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		root:      cfg.Root,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches root and every directory below it. The returned channel
// receives a signal once changes have been quiet for the debounce period.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := os.MkdirAll(w.root, 0o750); err != nil {
		return nil, fmt.Errorf("creating %s: %w", w.root, err)
	}
	if err := w.addTree(w.root); err != nil {
		return nil, err
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// addTree registers dir and its subdirectories; fsnotify is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return fmt.Errorf("watching directory %s: %w", p, err)
		}
		return nil
	})
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Warn(log.CatWatcher, "failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}

			if !isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// drop if a signal is already queued
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "watch error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether event changes the set or content of
// archives. In-progress temp files are ignored until renamed into place.
func isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return !fileutil.IsTempFile(event.Name)
}
