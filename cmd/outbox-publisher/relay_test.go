package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

func TestDrainContinuesAfterTransientFailure(t *testing.T) {
	repo := &fakeEventRepo{events: []models.OutboxEvent{
		orderCreatedEvent(t, 0),
		orderCreatedEvent(t, 0),
	}}
	pub := &fakePublisher{errs: []error{errors.New("deadline exceeded"), nil}}
	relay := newTestRelay(t, repo, &fakeDLQ{}, pub, nil)

	handled, err := relay.drain(context.Background())
	if err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if handled != 2 {
		t.Fatalf("expected 2 rows handled, got %d", handled)
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("expected first row marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("expected second row marked published, got %v", repo.published)
	}
}

func TestDrainPublishesMessageAttributes(t *testing.T) {
	event := orderCreatedEvent(t, 0)
	repo := &fakeEventRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	var topics []string
	relay := newTestRelay(t, repo, &fakeDLQ{}, pub, nil)
	relay.topic = func(name string) topicPublisher {
		topics = append(topics, name)
		return pub
	}

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.messages))
	}
	attrs := pub.messages[0].Attributes
	if attrs["event_type"] != string(enums.EventOrderCreated) || attrs["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	if attrs["event_id"] == "" {
		t.Fatalf("expected envelope event id attribute")
	}
	if len(topics) != 1 || topics[0] != "orders-topic" {
		t.Fatalf("expected orders topic, got %v", topics)
	}

	// the publisher for a topic is opened once and reused
	repo.events = []models.OutboxEvent{orderCreatedEvent(t, 0)}
	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("second drain returned error: %v", err)
	}
	if len(topics) != 1 {
		t.Fatalf("expected cached publisher, factory called %d times", len(topics))
	}
}

func TestDrainDeadLettersUnknownEvents(t *testing.T) {
	event := orderCreatedEvent(t, 0)
	event.EventType = enums.OutboxEventType("order_teleported")
	repo := &fakeEventRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQ{}
	pub := &fakePublisher{}
	reg := prometheus.NewRegistry()
	relay := newTestRelay(t, repo, dlq, pub, metrics.NewOutboxMetrics(reg))

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("unknown event must not be published")
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non-retryable dlq entry, got %+v", dlq.entries)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row marked terminal")
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "storefront_outbox_dead_lettered_total" {
			found = len(mf.GetMetric()) == 1 && mf.GetMetric()[0].GetCounter().GetValue() == 1
		}
	}
	if !found {
		t.Fatalf("expected one dead-lettered event counted")
	}
}

func TestDrainDeadLettersAfterMaxAttempts(t *testing.T) {
	event := orderCreatedEvent(t, 2)
	repo := &fakeEventRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQ{}
	pub := &fakePublisher{errs: []error{errors.New("unavailable")}}
	relay := newTestRelay(t, repo, dlq, pub, nil)
	relay.maxAttempts = 3

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("terminal row must not be marked for retry")
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("expected max attempts dlq entry, got %+v", dlq.entries)
	}
	if dlq.entries[0].ErrorMessage == nil || *dlq.entries[0].ErrorMessage == "" {
		t.Fatalf("expected error message recorded")
	}
}

func TestDrainMissingPublisherIsNonRetryable(t *testing.T) {
	repo := &fakeEventRepo{events: []models.OutboxEvent{orderCreatedEvent(t, 0)}}
	dlq := &fakeDLQ{}
	relay := newTestRelay(t, repo, dlq, &fakePublisher{}, nil)
	relay.topic = func(string) topicPublisher { return nil }

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected dlq entry when topic has no publisher")
	}
}

func TestDrainPropagatesRepositoryErrors(t *testing.T) {
	repo := &fakeEventRepo{
		events:     []models.OutboxEvent{orderCreatedEvent(t, 0)},
		publishErr: errors.New("connection reset"),
	}
	relay := newTestRelay(t, repo, &fakeDLQ{}, &fakePublisher{}, nil)

	if _, err := relay.drain(context.Background()); err == nil {
		t.Fatalf("expected mark published failure to abort the batch")
	}
}

func TestRunStopsWhenDatabaseUnavailable(t *testing.T) {
	relay := newTestRelay(t, &fakeEventRepo{}, &fakeDLQ{}, &fakePublisher{}, nil)
	relay.db = fakeStore{pingErr: errors.New("refused")}

	if err := relay.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness failure")
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	relay := newTestRelay(t, &fakeEventRepo{}, &fakeDLQ{}, &fakePublisher{}, nil)
	relay.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := relay.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestReportDeadLettersSumsRecentBacklog(t *testing.T) {
	dlq := &fakeDLQ{counts: []outbox.DLQCount{
		{EventType: enums.EventOrderCreated, Reason: enums.OutboxDLQReasonMaxAttempts, Count: 2},
		{EventType: enums.EventReviewModerated, Reason: enums.OutboxDLQReasonNonRetryable, Count: 1},
	}}
	relay := newTestRelay(t, &fakeEventRepo{}, dlq, &fakePublisher{}, nil)

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if total := relay.reportDeadLetters(context.Background(), since); total != 3 {
		t.Fatalf("expected backlog of 3, got %d", total)
	}
	if !dlq.since.Equal(since) {
		t.Fatalf("unexpected window start %s", dlq.since)
	}

	dlq.countErr = errors.New("timeout")
	if total := relay.reportDeadLetters(context.Background(), since); total != 0 {
		t.Fatalf("lookup failure should report zero, got %d", total)
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(0, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("unexpected first backoff %s", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap, got %s", got)
	}
}

func newTestRelay(t *testing.T, repo *fakeEventRepo, dlq *fakeDLQ, pub *fakePublisher, m *metrics.OutboxMetrics) *Relay {
	t.Helper()
	eventRegistry, err := registry.NewEventRegistry(config.PubSubConfig{
		OrdersTopic:  "orders-topic",
		ReviewsTopic: "reviews-topic",
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	relay, err := NewRelay(RelayParams{
		Logger:      logger.Nop(),
		DB:          fakeStore{},
		Broker:      fakeStore{},
		Events:      repo,
		DeadLetters: dlq,
		Resolver:    eventRegistry,
		Topic:       func(string) topicPublisher { return pub },
		Metrics:     m,
		BatchSize:   10,
		MaxAttempts: 5,
	})
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}
	return relay
}

func orderCreatedEvent(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	orderID := uuid.New()
	data, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "ORD-260310-0001",
		UserID:      uuid.New(),
		TotalCents:  4999,
		Currency:    "USD",
		ItemCount:   1,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       envelope,
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

type fakeStore struct {
	pingErr error
}

func (f fakeStore) Ping(context.Context) error { return f.pingErr }

func (f fakeStore) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEventRepo struct {
	events     []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	terminal   []uuid.UUID
	publishErr error
	claimed    map[uuid.UUID]bool
}

func (f *fakeEventRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if f.claimed == nil {
		f.claimed = map[uuid.UUID]bool{}
	}
	var batch []models.OutboxEvent
	for _, event := range f.events {
		if len(batch) == limit {
			break
		}
		if f.claimed[event.ID] {
			continue
		}
		f.claimed[event.ID] = true
		batch = append(batch, event)
	}
	return batch, nil
}

func (f *fakeEventRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeEventRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeEventRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDLQ struct {
	entries  []models.OutboxDLQ
	counts   []outbox.DLQCount
	countErr error
	since    time.Time
}

func (f *fakeDLQ) CountSince(_ context.Context, since time.Time) ([]outbox.DLQCount, error) {
	f.since = since
	return f.counts, f.countErr
}

func (f *fakeDLQ) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakePublisher struct {
	errs     []error
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err == nil {
		f.messages = append(f.messages, msg)
	}
	return fakeResult{err: err}
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}
