package outbox

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func dlqEntry(eventType enums.OutboxEventType, reason enums.OutboxDLQErrorReason, failedAt time.Time) models.OutboxDLQ {
	return models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		ErrorReason:   reason,
		FailedAt:      failedAt,
	}
}

func TestDLQCountSinceGroupsRecentFailures(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewDLQRepository(client.DB())
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	entries := []models.OutboxDLQ{
		dlqEntry(enums.EventOrderCreated, enums.OutboxDLQReasonMaxAttempts, now.Add(-time.Hour)),
		dlqEntry(enums.EventOrderCreated, enums.OutboxDLQReasonMaxAttempts, now.Add(-2*time.Hour)),
		dlqEntry(enums.EventOrderCreated, enums.OutboxDLQReasonNonRetryable, now.Add(-3*time.Hour)),
		dlqEntry(enums.EventOrderPaid, enums.OutboxDLQReasonMaxAttempts, now.Add(-72*time.Hour)),
	}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, entry := range entries {
			if err := repo.InsertTx(tx, entry); err != nil {
				return err
			}
		}
		return nil
	}))

	counts, err := repo.CountSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, DLQCount{EventType: enums.EventOrderCreated, Reason: enums.OutboxDLQReasonMaxAttempts, Count: 2}, counts[0])
	assert.Equal(t, DLQCount{EventType: enums.EventOrderCreated, Reason: enums.OutboxDLQReasonNonRetryable, Count: 1}, counts[1])
}

func TestDLQInsertRequiresTransaction(t *testing.T) {
	repo := NewDLQRepository(nil)
	assert.Error(t, repo.InsertTx(nil, models.OutboxDLQ{}))
}

func TestTruncateDLQErrorKeepsValidUTF8(t *testing.T) {
	short := "publish timeout"
	assert.Equal(t, short, truncateDLQError(short))

	long := strings.Repeat("a", maxDLQErrorLen-1) + "é" + "tail"
	got := truncateDLQError(long)
	assert.LessOrEqual(t, len(got), maxDLQErrorLen)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxDLQErrorLen-1), got)
}
