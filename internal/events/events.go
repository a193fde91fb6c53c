package events

import (
	"context"
	"time"

	"tutorly/pkg/kafka"
	"tutorly/pkg/logger"
)

const (
	TypeBookingCreated    = "booking.created"
	TypeEnrollmentCreated = "enrollment.created"
	TypeEnrollmentDeleted = "enrollment.deleted"
	TypeEvaluationCreated = "evaluation.created"

	Source        = "tutorly-portal"
	SchemaVersion = "1"
)

// Event is a portal fact published after an upstream write succeeded.
type Event struct {
	Type          string
	StudentID     string
	CorrelationID string
	Payload       any
	OccurredAt    time.Time
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	producer messagePublisher
	timeout  time.Duration
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, timeout time.Duration, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, timeout: timeout, log: log}
}

// Publish sends event keyed by student id. The write runs on its own
// deadline so a request that already answered cannot cancel it.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.StudentID).
		WithEventType(event.Type).
		WithCorrelationID(event.CorrelationID).
		WithSource(Source).
		WithSchemaVersion(SchemaVersion).
		WithTimestamp(event.OccurredAt).
		WithValue(event.Payload).
		Build()
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	return p.producer.Publish(pubCtx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

// Emit publishes event and logs a failure instead of returning it; the
// upstream write the event describes has already happened.
func Emit(ctx context.Context, pub Publisher, log *logger.Logger, event Event) {
	if pub == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			"event_type", event.Type,
			"student_id", event.StudentID,
			"error", err,
		)
	}
}
