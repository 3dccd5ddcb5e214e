package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"formatwave/internal/config"
	"formatwave/internal/core/domain"
	"log/slog"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventSource is the CloudEvents source of every published event
const EventSource = "formatwave/session-engine"

// Publisher publishes session lifecycle events as CloudEvents on a JetStream stream
type Publisher struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
}

// SessionEventData is the JSON payload of a session event
type SessionEventData struct {
	SessionID      string    `json:"session_id"`
	ConversionID   string    `json:"conversion_id"`
	TotalConverted int       `json:"total_converted"`
	TotalErrors    int       `json:"total_errors"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// NewNATSPublisher connects to NATS and makes sure the session stream exists
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.SubjectPrefix + ".session.>"},
		MaxAge:   24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
	}

	return &Publisher{
		logger: logger,
		conn:   conn,
		js:     js,
		config: cfg,
	}, nil
}

// Subject returns the subject an event type is published on
func Subject(prefix string, eventType domain.EventType) string {
	return prefix + "." + string(eventType)
}

// Publish sends the event and waits for the JetStream ack
func (p *Publisher) Publish(ctx context.Context, e domain.SessionEvent) error {
	event, err := toCloudEvent(e)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := Subject(p.config.SubjectPrefix, e.Type)
	if _, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(event.ID())); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", subject, err)
	}

	p.logger.Debug("session event published", "subject", subject, "session_id", e.SessionID)
	return nil
}

func toCloudEvent(e domain.SessionEvent) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(EventSource)
	event.SetType("com.formatwave." + string(e.Type))
	event.SetSubject(e.SessionID.String())
	event.SetTime(e.OccurredAt)

	data := SessionEventData{
		SessionID:      e.SessionID.String(),
		ConversionID:   e.ConversionID,
		TotalConverted: e.TotalConverted,
		TotalErrors:    e.TotalErrors,
		ExpiresAt:      e.ExpiresAt,
	}
	if err := event.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return event, fmt.Errorf("failed to set event data: %w", err)
	}
	if err := event.Validate(); err != nil {
		return event, fmt.Errorf("invalid event: %w", err)
	}
	return event, nil
}

// Close drains the connection
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
