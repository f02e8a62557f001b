package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFormatOrderNumber(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	at := time.Date(2026, 3, 5, 2, 30, 0, 0, time.UTC)

	assert.Equal(t, "260305", DayKey(at, time.UTC))
	assert.Equal(t, "260304", DayKey(at, loc))
	assert.Equal(t, "ORD2603050007", FormatOrderNumber("260305", 7))
	assert.Equal(t, "ORD26030512345", FormatOrderNumber("260305", 12345))
}

func TestDBSequencerConcurrentCheckoutsAreDistinct(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	const n = 12

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.WithTx(ctx, func(tx *gorm.DB) error {
				v, err := DBSequencer{}.Next(ctx, tx, "260101")
				if err != nil {
					return err
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.Equal(t, 1, seen[i], "sequence %d", i)
	}

	var other int64
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		other, err = DBSequencer{}.Next(ctx, tx, "260102")
		return err
	}))
	assert.Equal(t, int64(1), other)
}

func TestDBSequencerRollbackReturnsNumber(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()

	_ = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := DBSequencer{}.Next(ctx, tx, "260101")
		require.NoError(t, err)
		return assert.AnError
	})

	var v int64
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		v, err = DBSequencer{}.Next(ctx, tx, "260101")
		return err
	}))
	assert.Equal(t, int64(1), v)
}

type fakeCounter struct {
	mu     sync.Mutex
	values map[string]int64
	ttl    time.Duration
}

func (f *fakeCounter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key]++
	f.ttl = ttl
	return f.values[key], nil
}

func (f *fakeCounter) CounterKey(name string) string { return "sf:counter:" + name }

func TestRedisSequencer(t *testing.T) {
	counter := &fakeCounter{values: map[string]int64{}}
	seq, err := NewRedisSequencer(counter)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := seq.Next(ctx, nil, "260101")
	require.NoError(t, err)
	second, err := seq.Next(ctx, nil, "260101")
	require.NoError(t, err)
	other, err := seq.Next(ctx, nil, "260102")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(1), other)
	assert.Equal(t, int64(2), counter.values["sf:counter:order_seq:260101"])
	assert.Equal(t, redisSequenceTTL, counter.ttl)

	_, err = NewRedisSequencer(nil)
	assert.Error(t, err)
}
