package outbox

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const maxDLQErrorLen = 1024

// DLQRepository stores outbox rows the relay gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// DLQCount is the number of dead-lettered rows for one event type and reason.
type DLQCount struct {
	EventType enums.OutboxEventType      `gorm:"column:event_type"`
	Reason    enums.OutboxDLQErrorReason `gorm:"column:error_reason"`
	Count     int64                      `gorm:"column:total"`
}

// InsertTx writes entry inside the relay's claim transaction so the row is
// dead-lettered and marked terminal together.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ErrorMessage != nil {
		msg := truncateDLQError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now().UTC()
	}
	return tx.Create(&entry).Error
}

// CountSince groups rows that failed at or after since by event type and reason.
func (r *DLQRepository) CountSince(ctx context.Context, since time.Time) ([]DLQCount, error) {
	var rows []DLQCount
	err := r.db.WithContext(ctx).
		Model(&models.OutboxDLQ{}).
		Select("event_type, error_reason, COUNT(*) AS total").
		Where("failed_at >= ?", since.UTC()).
		Group("event_type, error_reason").
		Order("event_type ASC, error_reason ASC").
		Scan(&rows).Error
	return rows, err
}

func truncateDLQError(message string) string {
	if len(message) <= maxDLQErrorLen {
		return message
	}
	cut := maxDLQErrorLen
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
