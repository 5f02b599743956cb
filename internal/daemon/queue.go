package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doxbuilder/internal/metrics"
)

// BuildType represents what triggered a build job.
type BuildType string

const (
	BuildTypeManual    BuildType = "manual"    // HTTP trigger or startup build
	BuildTypeScheduled BuildType = "scheduled" // periodic rebuild
	BuildTypeWatch     BuildType = "watch"     // filesystem change
)

// BuildStatus represents the current status of a build job.
type BuildStatus string

const (
	BuildStatusQueued    BuildStatus = "queued"
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusCompleted BuildStatus = "completed"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// BuildJob represents a single build job in the queue.
type BuildJob struct {
	ID          string      `json:"id"`
	Type        BuildType   `json:"type"`
	Reason      string      `json:"reason,omitempty"`
	Status      BuildStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// NewBuildJob creates a queued job with a fresh UUID.
func NewBuildJob(jobType BuildType, reason string) *BuildJob {
	return &BuildJob{
		ID:        uuid.New().String(),
		Type:      jobType,
		Reason:    reason,
		Status:    BuildStatusQueued,
		CreatedAt: time.Now(),
	}
}

// Executor runs one build job.
type Executor interface {
	Execute(ctx context.Context, job *BuildJob) error
}

// ErrBuildPending is returned when a job is dropped because a build is
// already queued; bursts coalesce into one run.
var ErrBuildPending = errors.New("a build is already queued")

// Queue is a single-worker build queue. The daemon never runs two builds
// concurrently, and at most one job waits behind the running one.
type Queue struct {
	executor Executor
	recorder metrics.Recorder

	jobs chan *BuildJob
	done chan struct{}

	mu      sync.RWMutex
	current *BuildJob
	last    *BuildJob
}

// NewQueue creates a build queue around the given executor.
func NewQueue(executor Executor, recorder metrics.Recorder) *Queue {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Queue{
		executor: executor,
		recorder: recorder,
		jobs:     make(chan *BuildJob, 1),
		done:     make(chan struct{}),
	}
}

// Start runs the worker until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	go q.worker(ctx)
}

func (q *Queue) worker(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.recorder.SetQueueDepth(len(q.jobs))
			q.process(ctx, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *BuildJob) {
	now := time.Now()
	job.StartedAt = &now
	job.Status = BuildStatusRunning
	q.setCurrent(job)

	slog.Info("Processing build job", "job_id", job.ID, "type", job.Type, "reason", job.Reason)

	err := q.executor.Execute(ctx, job)

	end := time.Now()
	job.CompletedAt = &end
	switch {
	case errors.Is(err, context.Canceled):
		job.Status = BuildStatusCancelled
	case err != nil:
		job.Status = BuildStatusFailed
		job.Error = err.Error()
		slog.Error("Build job failed", "job_id", job.ID, "error", err)
	default:
		job.Status = BuildStatusCompleted
		slog.Info("Build job completed", "job_id", job.ID, "duration", end.Sub(now).Round(time.Millisecond))
	}

	q.finish(job)
}

// Enqueue adds a job. When a job is already waiting, the new one is dropped
// and ErrBuildPending is returned.
func (q *Queue) Enqueue(job *BuildJob) error {
	select {
	case q.jobs <- job:
		q.recorder.SetQueueDepth(len(q.jobs))
		slog.Debug("Build job enqueued", "job_id", job.ID, "type", job.Type)
		return nil
	default:
		return ErrBuildPending
	}
}

// Depth returns the number of queued (not yet running) jobs.
func (q *Queue) Depth() int {
	return len(q.jobs)
}

// Current returns the running job, or nil.
func (q *Queue) Current() *BuildJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current
}

// Last returns the most recently finished job, or nil.
func (q *Queue) Last() *BuildJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.last
}

// Wait blocks until the worker has exited.
func (q *Queue) Wait(ctx context.Context) error {
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) setCurrent(job *BuildJob) {
	q.mu.Lock()
	q.current = job
	q.mu.Unlock()
}

func (q *Queue) finish(job *BuildJob) {
	q.mu.Lock()
	q.current = nil
	q.last = job
	q.mu.Unlock()
}
