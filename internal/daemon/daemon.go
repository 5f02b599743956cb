// Package daemon implements watch mode: a single-worker build queue fed by
// filesystem events, a periodic schedule, and a manual HTTP trigger, with
// optional NATS event publishing and Prometheus metrics.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/doxbuilder/internal/build"
	"git.home.luguber.info/inful/doxbuilder/internal/config"
	"git.home.luguber.info/inful/doxbuilder/internal/doxygen"
	"git.home.luguber.info/inful/doxbuilder/internal/history"
	"git.home.luguber.info/inful/doxbuilder/internal/metrics"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// Daemon coordinates the watch-mode components.
type Daemon struct {
	cfg     *config.Config
	formats []doxygen.Format
	status  atomic.Value // Status

	service   *build.Service
	queue     *Queue
	watcher   *SourceWatcher // nil when watch disabled
	scheduler *Scheduler     // nil when no schedule
	publisher *EventPublisher
	admin     *AdminServer // nil when no listener
	store     *history.Store
	recorder  metrics.Recorder
}

// New wires up a daemon from configuration. Optional components (history,
// NATS, HTTP, schedule, watcher) activate only when configured.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	d := &Daemon{cfg: cfg, recorder: metrics.NoopRecorder{}}
	d.status.Store(StatusStopped)

	for _, name := range cfg.Docs.Formats {
		format, err := doxygen.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		d.formats = append(d.formats, format)
	}

	var registry *prom.Registry
	if cfg.Daemon.Listen != "" {
		registry = prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(registry)
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open build history: %w", err)
		}
		d.store = store
	}

	if cfg.Daemon.NATS.URL != "" {
		publisher, err := NewEventPublisher(cfg.Daemon.NATS)
		if err != nil {
			d.closeStores()
			return nil, err
		}
		d.publisher = publisher
	}

	d.service = build.NewService(cfg).WithRecorder(d.recorder).WithHistory(d.store)
	d.queue = NewQueue(&serviceExecutor{daemon: d}, d.recorder)

	if cfg.Daemon.Watch {
		watcher, err := NewSourceWatcher(
			cfg.Docs.Source,
			[]string{cfg.Docs.Output},
			cfg.Daemon.DebounceDuration(),
			d.onSourceChange,
			d.recorder,
		)
		if err != nil {
			d.closeStores()
			return nil, err
		}
		d.watcher = watcher
	}

	if cfg.Daemon.ScheduleDuration() > 0 {
		scheduler, err := NewScheduler(d.enqueue)
		if err != nil {
			d.closeStores()
			return nil, err
		}
		d.scheduler = scheduler
	}

	if cfg.Daemon.Listen != "" {
		d.admin = NewAdminServer(cfg.Daemon.Listen, d.queue, d.store, registry)
	}

	return d, nil
}

// WithRunner injects a custom doxygen runner (fluent helper).
func (d *Daemon) WithRunner(r doxygen.Runner) *Daemon {
	d.service.WithRunner(r)
	return d
}

// Status returns the daemon's lifecycle state.
func (d *Daemon) Status() Status {
	return d.status.Load().(Status)
}

// Start runs the daemon until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.status.Store(StatusStarting)
	slog.Info("Starting daemon", "formats", d.cfg.Docs.Formats,
		"watch", d.watcher != nil, "schedule", d.cfg.Daemon.Schedule)

	d.queue.Start(ctx)

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}

	if d.scheduler != nil {
		if _, err := d.scheduler.SchedulePeriodicBuild(d.cfg.Daemon.ScheduleDuration()); err != nil {
			return err
		}
		d.scheduler.Start(ctx)
	}

	if d.admin != nil {
		if err := d.admin.Start(ctx); err != nil {
			return err
		}
	}

	// Initial build so the output reflects the current tree.
	if err := d.enqueue(NewBuildJob(BuildTypeManual, "daemon startup")); err != nil && !errors.Is(err, ErrBuildPending) {
		slog.Error("Failed to enqueue initial build", "error", err)
	}

	d.status.Store(StatusRunning)
	<-ctx.Done()
	return nil
}

// Stop shuts the components down in reverse start order within ctx's budget.
func (d *Daemon) Stop(ctx context.Context) error {
	d.status.Store(StatusStopping)
	slog.Info("Stopping daemon")

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if d.admin != nil {
		record(d.admin.Stop(ctx))
	}
	if d.scheduler != nil {
		record(d.scheduler.Stop(ctx))
	}
	if d.watcher != nil {
		record(d.watcher.Stop(ctx))
	}
	record(d.queue.Wait(ctx))

	d.publisher.Close()
	d.closeStores()

	d.status.Store(StatusStopped)
	return firstErr
}

func (d *Daemon) closeStores() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			slog.Warn("Failed to close build history", "error", err)
		}
		d.store = nil
	}
}

func (d *Daemon) onSourceChange(reason string) {
	if err := d.enqueue(NewBuildJob(BuildTypeWatch, reason)); err != nil {
		if errors.Is(err, ErrBuildPending) {
			slog.Debug("Watch build skipped, build already queued")
			return
		}
		slog.Error("Failed to enqueue watch build", "error", err)
	}
}

func (d *Daemon) enqueue(job *BuildJob) error {
	if err := d.queue.Enqueue(job); err != nil {
		return err
	}
	d.publishEvent(BuildEvent{Type: EventBuildQueued, BuildID: job.ID, JobType: job.Type})
	return nil
}

func (d *Daemon) publishEvent(event BuildEvent) {
	if d.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish build event", "type", event.Type, "error", err)
	}
}

// serviceExecutor adapts build.Service to the queue's Executor, emitting
// lifecycle events around the run.
type serviceExecutor struct {
	daemon *Daemon
}

func (e *serviceExecutor) Execute(ctx context.Context, job *BuildJob) error {
	d := e.daemon
	d.publishEvent(BuildEvent{Type: EventBuildStarted, BuildID: job.ID, JobType: job.Type})

	result, err := d.service.Run(ctx, d.formats, "")
	if err != nil {
		event := BuildEvent{Type: EventBuildFailed, BuildID: job.ID, JobType: job.Type, Error: err.Error()}
		if result != nil {
			event.Version = result.Version
			event.Outcome = result.Outcome()
		}
		d.publishEvent(event)
		return err
	}

	d.publishEvent(BuildEvent{
		Type:    EventBuildCompleted,
		BuildID: job.ID,
		JobType: job.Type,
		Version: result.Version,
		Outcome: result.Outcome(),
	})
	return nil
}
