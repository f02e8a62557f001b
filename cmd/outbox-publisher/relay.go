package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
	deadLetterWindow      = 24 * time.Hour
)

type txStore interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pinger interface {
	Ping(context.Context) error
}

type eventRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetterRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
	CountSince(ctx context.Context, since time.Time) ([]outbox.DLQCount, error)
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// RelayParams wire the relay to its stores and the broker.
type RelayParams struct {
	Logger       *logger.Logger
	DB           txStore
	Broker       pinger
	Events       eventRepository
	DeadLetters  deadLetterRepository
	Resolver     eventResolver
	Topic        func(name string) topicPublisher
	Metrics      *metrics.OutboxMetrics
	BatchSize    int
	MaxAttempts  int
	PollInterval time.Duration
}

// Relay moves committed outbox rows to pubsub. Each batch is claimed inside a
// transaction so concurrent relays never publish the same row twice.
type Relay struct {
	logg         *logger.Logger
	db           txStore
	broker       pinger
	events       eventRepository
	deadLetters  deadLetterRepository
	resolver     eventResolver
	topic        func(name string) topicPublisher
	metrics      *metrics.OutboxMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration

	mu         sync.Mutex
	publishers map[string]topicPublisher
}

func NewRelay(params RelayParams) (*Relay, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Broker == nil:
		return nil, errors.New("pubsub client is required")
	case params.Events == nil:
		return nil, errors.New("outbox repository is required")
	case params.DeadLetters == nil:
		return nil, errors.New("dlq repository is required")
	case params.Resolver == nil:
		return nil, errors.New("event registry is required")
	case params.Topic == nil:
		return nil, errors.New("topic publisher factory is required")
	}

	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	poll := params.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &Relay{
		logg:         params.Logger,
		db:           params.DB,
		broker:       params.Broker,
		events:       params.Events,
		deadLetters:  params.DeadLetters,
		resolver:     params.Resolver,
		topic:        params.Topic,
		metrics:      params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: poll,
		publishers:   map[string]topicPublisher{},
	}, nil
}

// Run drains the outbox until ctx is done. A full batch is followed by another
// drain right away; otherwise the relay waits one poll interval.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.ping(ctx, "database", r.db.Ping); err != nil {
		return err
	}
	if err := r.ping(ctx, "pubsub", r.broker.Ping); err != nil {
		return err
	}
	r.reportDeadLetters(ctx, time.Now().UTC().Add(-deadLetterWindow))

	backoff := r.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		handled, err := r.drain(ctx)
		if err != nil {
			r.logg.Error(ctx, "outbox batch failed", err)
			backoff = nextBackoff(backoff, r.pollInterval, maxBackoff)
			if err := sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = r.pollInterval

		if handled >= r.batchSize {
			continue
		}
		if err := sleep(ctx, withJitter(r.pollInterval)); err != nil {
			return err
		}
	}
}

// Close stops every topic publisher opened by the relay, flushing pending sends.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, pub := range r.publishers {
		if stopper, ok := pub.(interface{ Stop() }); ok {
			stopper.Stop()
		}
		delete(r.publishers, name)
	}
}

// drain handles one batch and returns how many rows it claimed.
func (r *Relay) drain(ctx context.Context) (int, error) {
	handled := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.events.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		handled = len(events)
		for _, event := range events {
			if err := r.settle(ctx, tx, event, r.deliver(ctx, event)); err != nil {
				return err
			}
		}
		return nil
	})
	return handled, err
}

// reportDeadLetters logs the recent dead-letter backlog. A failed lookup is
// logged and does not stop the relay.
func (r *Relay) reportDeadLetters(ctx context.Context, since time.Time) int64 {
	counts, err := r.deadLetters.CountSince(ctx, since)
	if err != nil {
		r.logg.Error(ctx, "dead letter backlog lookup failed", err)
		return 0
	}
	var total int64
	for _, c := range counts {
		total += c.Count
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
			"event_type":   c.EventType,
			"error_reason": c.Reason,
			"count":        c.Count,
			"since":        since.Format(time.RFC3339),
		}), "outbox dead letters pending review")
	}
	return total
}

func (r *Relay) ping(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		r.logg.Error(ctx, name+" ping failed", err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (r *Relay) publisher(name string) topicPublisher {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pub, ok := r.publishers[name]; ok {
		return pub
	}
	pub := r.topic(name)
	if pub != nil {
		r.publishers[name] = pub
	}
	return pub
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, limit time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
