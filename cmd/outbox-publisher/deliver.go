package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

type outcomeKind int

const (
	outcomePublished outcomeKind = iota
	outcomeRetry
	outcomeDeadLetter
)

// delivery is the result of one publish attempt for an outbox row.
type delivery struct {
	kind   outcomeKind
	reason enums.OutboxDLQErrorReason
	topic  string
	err    error
}

// deliver resolves and publishes event. It never touches the database.
func (r *Relay) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	resolved, err := r.resolver.Resolve(event)
	if err != nil {
		return delivery{kind: outcomeDeadLetter, reason: enums.OutboxDLQReasonNonRetryable, err: err}
	}
	topic := resolved.Descriptor.Topic

	if err := r.publish(ctx, event, resolved); err != nil {
		var nonRetryable registry.NonRetryableError
		if errors.As(err, &nonRetryable) {
			return delivery{kind: outcomeDeadLetter, reason: enums.OutboxDLQReasonNonRetryable, topic: topic, err: err}
		}
		if event.AttemptCount+1 >= r.maxAttempts {
			return delivery{
				kind:   outcomeDeadLetter,
				reason: enums.OutboxDLQReasonMaxAttempts,
				topic:  topic,
				err:    fmt.Errorf("max publish attempts reached: %w", err),
			}
		}
		return delivery{kind: outcomeRetry, topic: topic, err: err}
	}
	return delivery{kind: outcomePublished, topic: topic}
}

func (r *Relay) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := r.publisher(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !resolved.Envelope.OccurredAt.IsZero() {
		attrs["occurred_at"] = resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano)
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, &gcppubsub.Message{Data: event.Payload, Attributes: attrs})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

// settle records the outcome of a delivery on the outbox row inside tx.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, d delivery) error {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	logCtx := r.logg.WithFields(ctx, fields)
	eventType := string(event.EventType)

	switch d.kind {
	case outcomePublished:
		if err := r.events.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		r.metrics.IncPublished(eventType)
		r.logg.Info(logCtx, "outbox event published")
		return nil

	case outcomeRetry:
		if err := r.events.MarkFailedTx(tx, event.ID, d.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, err)
		}
		r.metrics.IncRetried(eventType)
		r.logg.Warn(r.logg.WithField(logCtx, "error", d.err.Error()), "outbox publish failed")
		return nil
	}

	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   d.reason,
		ErrorMessage:  errorMessage(d.err),
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.deadLetters.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := r.events.MarkTerminalTx(tx, event.ID, d.err, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	r.metrics.IncDeadLettered(eventType, string(d.reason))
	logCtx = r.logg.WithFields(logCtx, map[string]any{
		"error_reason": d.reason,
		"error":        errorText(d.err),
	})
	r.logg.Warn(logCtx, "outbox event dead-lettered")
	return nil
}

func errorMessage(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
