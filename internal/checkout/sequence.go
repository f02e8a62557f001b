package checkout

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	orderNumberPrefix = "ORD"
	dayLayout         = "060102"
	redisSequenceTTL  = 48 * time.Hour
)

// Sequencer hands out the per-day order number sequence. Implementations must
// never return the same value twice for a day.
type Sequencer interface {
	Next(ctx context.Context, tx *gorm.DB, day string) (int64, error)
}

// DayKey returns the YYMMDD calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayLayout)
}

// FormatOrderNumber renders ORD + YYMMDD + the zero-padded sequence.
func FormatOrderNumber(day string, seq int64) string {
	return fmt.Sprintf("%s%s%04d", orderNumberPrefix, day, seq)
}

// DBSequencer increments the order_sequences row of the day inside the checkout
// transaction. The row lock serializes same-day checkouts until commit and a
// rollback returns the number, so sequences stay gap-free.
type DBSequencer struct{}

// Next upserts the day counter and returns the new value.
func (DBSequencer) Next(ctx context.Context, tx *gorm.DB, day string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction required")
	}
	var value int64
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO order_sequences (day, value, updated_at) VALUES (?, 1, ?)
		ON CONFLICT (day) DO UPDATE SET value = order_sequences.value + 1, updated_at = excluded.updated_at
		RETURNING value`,
		day, time.Now().UTC(),
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, fmt.Errorf("order sequence for %s not returned", day)
	}
	return value, nil
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// RedisSequencer uses an atomic INCR per day. Numbers consumed by a rolled back
// checkout are skipped, so sequences are unique but may have gaps.
type RedisSequencer struct {
	store counterStore
	ttl   time.Duration
}

// NewRedisSequencer builds a sequencer on the shared redis client.
func NewRedisSequencer(store counterStore) (*RedisSequencer, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store required")
	}
	return &RedisSequencer{store: store, ttl: redisSequenceTTL}, nil
}

// Next increments the day counter.
func (s *RedisSequencer) Next(ctx context.Context, _ *gorm.DB, day string) (int64, error) {
	return s.store.IncrWithTTL(ctx, s.store.CounterKey("order_seq:"+day), s.ttl)
}
