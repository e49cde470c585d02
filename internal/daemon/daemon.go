package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"darkroom/internal/config"
	"darkroom/internal/dashboard"
	"darkroom/internal/journal"
	"darkroom/internal/logging"
	"darkroom/internal/notifications"
	"darkroom/internal/queue"
	"darkroom/internal/scheduler"
	"darkroom/internal/telegram"
)

// Daemon coordinates the background services and enforces single-instance
// execution. It owns the Telegram poller, the dashboard server, and the
// nightly reset scheduler; the queue engine and journal are shared with them.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    *queue.Engine
	jrnl      *journal.Journal
	notifier  notifications.Service
	bot       *telegram.Bot
	dashboard *dashboard.Server
	resetter  *scheduler.Scheduler

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	QueueSize    int
	Capacity     int
	SnapshotPath string
	JournalPath  string
	LockFilePath string
	DashboardURL string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, engine *queue.Engine, jrnl *journal.Journal, notifier notifications.Service, bot *telegram.Bot, dash *dashboard.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || engine == nil || bot == nil || dash == nil || logger == nil {
		return nil, errors.New("daemon requires config, engine, bot, dashboard, and logger")
	}

	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		jrnl:      jrnl,
		notifier:  notifier,
		bot:       bot,
		dashboard: dash,
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
	}

	resetter, err := scheduler.New(cfg.Queue.ResetTime, d.resetQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("configure reset scheduler: %w", err)
	}
	d.resetter = resetter
	return d, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another darkroom daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.dashboard.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start dashboard: %w", err)
	}
	d.cancel = cancel

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.bot.Run(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		d.resetter.Run(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("darkroom daemon started",
		logging.String("lock", d.lockPath),
		logging.String("dashboard", d.dashboard.Addr()),
		logging.Int("queue_size", d.engine.Len()))
	return nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.dashboard.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("darkroom daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.jrnl != nil {
		return d.jrnl.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		QueueSize:    d.engine.Len(),
		Capacity:     d.engine.Capacity(),
		SnapshotPath: d.cfg.SnapshotPath(),
		JournalPath:  d.cfg.JournalPath(),
		LockFilePath: d.lockPath,
		DashboardURL: "http://" + d.dashboard.Addr(),
	}
}

// resetQueue runs the scheduled nightly reset. A reset of an already empty
// queue is recorded but generates no operator notification.
func (d *Daemon) resetQueue() {
	removed := d.engine.Len()
	if err := d.engine.ResetAll(); err != nil {
		d.logger.Error("scheduled reset failed to clear snapshot", logging.Error(err))
	}
	d.logger.Info("scheduled queue reset", logging.Int("removed", removed))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if d.jrnl != nil {
		if err := d.jrnl.Record(ctx, journal.ActionReset, 0, "", fmt.Sprintf("scheduled reset removed %d", removed)); err != nil {
			d.logger.Warn("journal append failed", logging.Error(err))
		}
	}
	if removed > 0 && d.notifier != nil {
		if err := d.notifier.NotifyQueueReset(ctx, removed); err != nil {
			d.logger.Warn("reset notification failed", logging.Error(err))
		}
	}
}
