// internal/event/nats.go
// Package event provides NATS JetStream implementation for event publishing.
// It streams library lifecycle events (publish, duplicate, delete) so other
// device-local tooling can observe the library without polling it.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/glimpselabs/glimpse-client-go/internal/model"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher interface defines the event publishing operations used by the
// client core. Publishing is fire-and-forget from the caller's perspective;
// a failed publish is logged, never surfaced as an operation failure.
type Publisher interface {
	// PublishMediaPublished reports a completed publish round-trip.
	PublishMediaPublished(ctx context.Context, meta model.Metadata) error

	// PublishMediaDuplicated reports a duplicate-then-edit copy.
	PublishMediaDuplicated(ctx context.Context, meta model.Metadata) error

	// PublishMediaDeleted reports a local asset deletion.
	PublishMediaDeleted(ctx context.Context, mediaURI string) error

	// Close closes the publisher connection.
	Close() error
}

// noop is a no-op implementation of Publisher for when NATS is not
// configured. It allows the daemon to function without event streaming.
type noop struct{}

func (n *noop) Close() error { return nil }

func (n *noop) PublishMediaPublished(ctx context.Context, meta model.Metadata) error { return nil }

func (n *noop) PublishMediaDuplicated(ctx context.Context, meta model.Metadata) error { return nil }

func (n *noop) PublishMediaDeleted(ctx context.Context, mediaURI string) error { return nil }

// NewNoopPublisher returns a publisher that drops all events. Used when
// NATS is not configured and in tests.
func NewNoopPublisher() Publisher {
	return &noop{}
}

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc *nats.Conn            // NATS connection
	js nats.JetStreamContext // JetStream context for stream operations
}

// NewPublisherFromEnv creates a new publisher based on environment
// configuration. It reads GLIMPSE_NATS_URL; when NATS is not configured or
// the connection fails, it returns a no-op publisher rather than failing
// daemon startup.
func NewPublisherFromEnv() Publisher {
	url := os.Getenv("GLIMPSE_NATS_URL")
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url)
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	if err := initStream(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	return &natsPub{nc: nc, js: js}
}

// initStream creates the GLIMPSE_LIBRARY stream for library lifecycle events.
func initStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      "GLIMPSE_LIBRARY",
		Subjects:  []string{"glimpse.library.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create GLIMPSE_LIBRARY stream: %w", err)
	}
	return nil
}

// EventEnvelope represents the standard event envelope structure.
// All events published to NATS are wrapped in this envelope for consistency.
type EventEnvelope struct {
	Type          string      `json:"type"`          // Event type identifier
	Version       string      `json:"version"`       // Event schema version
	OccurredAt    time.Time   `json:"occurredAt"`    // When the event occurred
	CorrelationID string      `json:"correlationId"` // Correlation ID for tracing
	Payload       interface{} `json:"payload"`       // Event-specific data
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// publish wraps a payload in the standard envelope and publishes it.
func (p *natsPub) publish(subject string, payload interface{}) error {
	envelope := EventEnvelope{
		Type:          subject,
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       payload,
	}

	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(subject, b)
	return err
}

// PublishMediaPublished publishes a media published event.
func (p *natsPub) PublishMediaPublished(ctx context.Context, meta model.Metadata) error {
	return p.publish("glimpse.library.published", meta)
}

// PublishMediaDuplicated publishes a media duplicated event.
func (p *natsPub) PublishMediaDuplicated(ctx context.Context, meta model.Metadata) error {
	return p.publish("glimpse.library.duplicated", meta)
}

// PublishMediaDeleted publishes a media deleted event.
func (p *natsPub) PublishMediaDeleted(ctx context.Context, mediaURI string) error {
	return p.publish("glimpse.library.deleted", map[string]string{"uri": mediaURI})
}
