package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/doxbuilder/internal/config"
)

// BuildEventType enumerates the build lifecycle events published to NATS.
type BuildEventType string

const (
	EventBuildQueued    BuildEventType = "queued"
	EventBuildStarted   BuildEventType = "started"
	EventBuildCompleted BuildEventType = "completed"
	EventBuildFailed    BuildEventType = "failed"
)

// BuildEvent is the JSON payload published for each lifecycle transition.
type BuildEvent struct {
	Type      BuildEventType `json:"type"`
	BuildID   string         `json:"build_id"`
	JobType   BuildType      `json:"job_type"`
	Version   string         `json:"version,omitempty"`
	Outcome   string         `json:"outcome,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventPublisher publishes build lifecycle events to a NATS JetStream
// stream. It is optional: a nil publisher is a no-op.
type EventPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewEventPublisher connects to NATS and ensures the configured stream exists.
func NewEventPublisher(cfg config.NATSConfig) (*EventPublisher, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	slog.Info("NATS event publisher initialized", "url", cfg.URL, "subject", cfg.Subject, "stream", cfg.Stream)

	return &EventPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// Publish emits one build event. A nil publisher drops the event silently.
func (p *EventPublisher) Publish(ctx context.Context, event BuildEvent) error {
	if p == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal build event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish build event: %w", err)
	}
	return nil
}

// Close drains the underlying connection.
func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
