package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
	enqueue   func(job *BuildJob) error
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(enqueue func(job *BuildJob) error) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{scheduler: s, enqueue: enqueue}, nil
}

// SchedulePeriodicBuild schedules a rebuild on a fixed interval.
// Returns the job ID for later management.
func (s *Scheduler) SchedulePeriodicBuild(interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.executeBuild, interval),
		gocron.WithName("scheduled-build"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic build job: %w", err)
	}

	return job.ID().String(), nil
}

func (s *Scheduler) executeBuild(interval time.Duration) {
	job := NewBuildJob(BuildTypeScheduled, fmt.Sprintf("every %s", interval))
	if err := s.enqueue(job); err != nil {
		if errors.Is(err, ErrBuildPending) {
			slog.Debug("Scheduled build skipped, build already queued")
			return
		}
		slog.Error("Failed to enqueue scheduled build", "error", err)
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
