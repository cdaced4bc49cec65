// Package watch flushes the plugin snapshot when the plugin directory changes.
//
// The snapshot cache already notices directory changes through its listing
// hash on the next lookup; the watcher only makes the flush eager so a
// background recompute is not needed.
package watch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Flusher drops a cached snapshot
type Flusher interface {
	Flush(ctx context.Context) error
}

// Watcher watches the top level of a plugin root
type Watcher struct {
	root    string
	cache   Flusher
	watcher *fsnotify.Watcher
	log     *logrus.Logger
}

// New starts watching root. Run must be called to process events.
func New(root string, cache Flusher, log *logrus.Logger) (*Watcher, error) {
	if log == nil {
		log = logrus.New()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch plugin directory %s: %w", root, err)
	}

	return &Watcher{
		root:    root,
		cache:   cache,
		watcher: fw,
		log:     log,
	}, nil
}

// Run processes events until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer observability.RecoverPanic(w.log, "plugin watcher")
	defer w.watcher.Close()

	w.log.Infof("Watching plugin directory %s", w.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.log.Debugf("Plugin directory changed: %s %s", event.Op, event.Name)
			if err := w.cache.Flush(ctx); err != nil {
				w.log.Warnf("Failed to flush plugin cache: %v", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Errorf("Plugin watcher error: %v", err)
		}
	}
}

// relevant reports whether event can change the directory listing
func relevant(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

