package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"javtidy/internal/config"
	"javtidy/internal/driver"
	"javtidy/internal/journal"
	"javtidy/internal/logging"
	"javtidy/internal/watcher"
)

// ErrAlreadyRunning reports a second daemon against the same log directory.
var ErrAlreadyRunning = errors.New("another javtidy instance is already running")

// Daemon owns the background processing loop.
type Daemon struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *journal.Store
	driver  *driver.Driver
	watcher *watcher.Watcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	fatalErr error
}

// Status is a point-in-time snapshot for the status command.
type Status struct {
	Running      bool
	LockFilePath string
	JournalPath  string
	RunCounts    map[journal.Status]int
}

// New wires a daemon from initialized dependencies.
func New(cfg *config.Config, store *journal.Store, drv *driver.Driver, w *watcher.Watcher, log *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || drv == nil || w == nil {
		return nil, errors.New("daemon requires config, journal, driver, and watcher")
	}
	if log == nil {
		log = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "javtidy.lock")
	return &Daemon{
		cfg:      cfg,
		log:      logging.NewComponentLogger(log, "daemon"),
		store:    store,
		driver:   drv,
		watcher:  w,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, runs the recovery sweep, and launches the
// watcher plus the worker pool.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.recoverBackups(ctx)
	logging.CleanupOldLogs(d.log, d.cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: d.cfg.Paths.LogDir, Pattern: "javtidy*.log"})

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Error("watcher stopped", slog.Any("error", err))
		}
	}()

	workers := d.cfg.Process.ThreadLimit
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.work(runCtx, id)
		}(i)
	}

	d.running.Store(true)
	d.log.Info("daemon started",
		slog.String("lock", d.lockPath), slog.Int("workers", workers))
	return nil
}

// work drains the watcher stream until it closes. A fatal driver error stops
// the whole daemon, not just this worker.
func (d *Daemon) work(ctx context.Context, id int) {
	for path := range d.watcher.Items() {
		_, err := d.driver.Process(ctx, path)
		if err != nil && driver.IsFatal(err) {
			d.setFatal(err)
			d.log.Error("worker stopping on fatal error",
				slog.Int("worker", id), slog.Any("error", err))
			d.cancel()
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (d *Daemon) setFatal(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fatalErr == nil {
		d.fatalErr = err
	}
}

// Wait blocks until the watcher and every worker have exited, then reports
// the first fatal error if one stopped the daemon.
func (d *Daemon) Wait() error {
	d.wg.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fatalErr
}

// Stop cancels background work, waits for it to drain, and releases the
// instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.log.Warn("instance lock release failed", slog.Any("error", err))
	}
	d.running.Store(false)
	d.log.Info("daemon stopped")
}

// Close stops the daemon and closes the journal.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status reports runtime state plus journal counts.
func (d *Daemon) Status(ctx context.Context) Status {
	counts, err := d.store.Stats(ctx)
	if err != nil {
		d.log.Warn("journal stats failed", slog.Any("error", err))
	}
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		JournalPath:  d.cfg.Paths.JournalPath,
		RunCounts:    counts,
	}
}
