package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"

	"javtidy/internal/config"
	"javtidy/internal/lockfile"
	"javtidy/internal/logging"
)

const (
	// defaultSettle is how long a path must stay quiet before it is emitted.
	// Copies into the input directory produce a write burst; emitting early
	// would hand the driver a half-written file.
	defaultSettle = 2 * time.Second
	queueDepth    = 256
)

// Watcher turns filesystem activity under input_dir into a stream of
// candidate source paths.
type Watcher struct {
	cfg    *config.Config
	log    *slog.Logger
	out    chan string
	exts   map[string]bool
	settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New builds a watcher over cfg.Paths.InputDir.
func New(cfg *config.Config, log *slog.Logger) *Watcher {
	if log == nil {
		log = logging.NewNop()
	}
	exts := make(map[string]bool, len(cfg.Process.MigrateFiles))
	for _, ext := range cfg.Process.MigrateFiles {
		exts["."+strings.ToLower(ext)] = true
	}
	return &Watcher{
		cfg:     cfg,
		log:     logging.NewComponentLogger(log, "watcher"),
		out:     make(chan string, queueDepth),
		exts:    exts,
		settle:  defaultSettle,
		pending: map[string]*time.Timer{},
	}
}

// Items is the stream of candidate files. It is closed when Run returns.
func (w *Watcher) Items() <-chan string { return w.out }

// Scan walks the input tree once and returns every eligible file in sorted
// order.
func (w *Watcher) Scan() ([]string, error) {
	var files []string
	err := godirwalk.Walk(w.cfg.Paths.InputDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if w.eligible(path) {
				files = append(files, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			w.log.Warn("scan error", slog.String(logging.FieldPath, path), slog.Any("error", err))
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", w.cfg.Paths.InputDir, err)
	}
	return files, nil
}

// Run performs the initial full scan, then follows events until ctx is
// cancelled. Items is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.out)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.watchTree(fsw, w.cfg.Paths.InputDir); err != nil {
		return err
	}

	files, err := w.Scan()
	if err != nil {
		return err
	}
	w.log.Info("initial scan complete",
		slog.String("dir", w.cfg.Paths.InputDir), slog.Int("files", len(files)))
	for _, path := range files {
		select {
		case w.out <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// fsnotify is not recursive; new directories need their own watch
		// and an immediate scan for files that arrived with them.
		if ev.Op&fsnotify.Create != 0 {
			if err := w.watchTree(fsw, ev.Name); err != nil {
				w.log.Warn("watch new directory failed",
					slog.String(logging.FieldPath, ev.Name), slog.Any("error", err))
			}
			w.scanInto(ctx, ev.Name)
		}
		return
	}
	if !w.hasAllowedExt(ev.Name) {
		return
	}
	w.schedule(ctx, ev.Name)
}

func (w *Watcher) scanInto(ctx context.Context, dir string) {
	_ = godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() && w.hasAllowedExt(path) {
				w.schedule(ctx, path)
			}
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction { return godirwalk.SkipNode },
	})
}

// schedule arms (or re-arms) the settle timer for path. Every new event
// pushes the emission out, so a burst collapses into one item.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if !w.eligible(path) {
			return
		}
		select {
		case w.out <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) watchTree(fsw *fsnotify.Watcher, root string) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction { return godirwalk.SkipNode },
	})
}

func (w *Watcher) hasAllowedExt(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(base, lockfile.Suffix) || strings.Contains(base, ".backup.") {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(base))]
}

// eligible re-checks a path right before emission: still present, allowed
// extension, and at least the configured minimum size.
func (w *Watcher) eligible(path string) bool {
	if !w.hasAllowedExt(path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	minBytes := int64(w.cfg.Process.MinimumSizeMiB) << 20
	if info.Size() < minBytes {
		w.log.Debug("file below minimum size",
			slog.String(logging.FieldPath, path), slog.Int64("size", info.Size()))
		return false
	}
	return true
}
