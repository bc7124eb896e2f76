package internal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// settleDelay is how long a file must sit unchanged before it is imported.
// Files still being copied in fire write events until they are complete.
const settleDelay = 2 * time.Second

// Watcher keeps a source tree under observation and imports new media
// files once they stop changing.
type Watcher struct {
	cfg     *Config
	org     *Organizer
	notify  *fsnotify.Watcher
	pending map[string]time.Time
	settle  time.Duration
	log     *zap.Logger
	stats   Stats
}

// NewWatcher creates a filesystem watcher over the configured source
// directory, recursively.
func NewWatcher(cfg *Config, org *Organizer, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:     cfg,
		org:     org,
		notify:  fsWatcher,
		pending: make(map[string]time.Time),
		settle:  settleDelay,
		log:     logger,
	}

	if err := w.addRecursive(cfg.Source); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

// addRecursive adds a directory and all its subdirectories to the watcher
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.notify.Add(path)
		}
		return nil
	})
}

// Run blocks, importing files as they settle, until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fmt.Fprintf(w.org.out, "👀 Watching %s (importing to %s)\n", w.cfg.Source, w.cfg.Destination)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(w.pending) > 0 {
				w.log.Info("shutting down with files still settling",
					zap.Int("pending", len(w.pending)))
			}
			w.org.printSummary(w.stats)
			return ctx.Err()

		case event, ok := <-w.notify.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.notify.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			w.importSettled(now.Add(-w.settle))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// A directory dropped in wholesale never fires events for
			// the files already inside it.
			if err := w.addRecursive(event.Name); err != nil {
				w.log.Warn("could not watch new directory",
					zap.String("path", event.Name), zap.Error(err))
			}
			w.markExisting(event.Name)
			return
		}
		if w.cfg.SupportedMedia(event.Name) {
			w.pending[event.Name] = time.Now()
		}

	case event.Op&fsnotify.Write == fsnotify.Write:
		if w.cfg.SupportedMedia(event.Name) {
			w.pending[event.Name] = time.Now()
		}

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		delete(w.pending, event.Name)
	}
}

// markExisting queues the media files already present under root.
func (w *Watcher) markExisting(root string) {
	now := time.Now()
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.cfg.SupportedMedia(path) {
			w.pending[path] = now
		}
		return nil
	})
}

// importSettled runs every pending file whose last event predates cutoff
// through the import pipeline, in natural filename order.
func (w *Watcher) importSettled(cutoff time.Time) {
	var due []string
	for path, last := range w.pending {
		if last.Before(cutoff) {
			due = append(due, path)
		}
	}
	if len(due) == 0 {
		return
	}

	sort.Slice(due, func(i, j int) bool {
		return natural.Less(due[i], due[j])
	})

	for _, path := range due {
		delete(w.pending, path)
		if !pathExists(path) {
			continue
		}
		res := w.org.ProcessFile(path)
		w.stats.Total++
		w.stats.count(res.Outcome)
		w.org.printResult(res)
	}
}

// Close stops the watcher and cleans up resources
func (w *Watcher) Close() error {
	return w.notify.Close()
}
