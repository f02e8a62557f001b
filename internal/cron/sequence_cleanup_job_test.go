package cron

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceCleanupDeletesDaysOutsideRetention(t *testing.T) {
	client := dbtest.Open(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	for _, day := range []string{"260301", "260302", "260303", "260309", "260310"} {
		require.NoError(t, client.DB().Create(&models.OrderSequence{Day: day, Value: 4, UpdatedAt: now}).Error)
	}

	jobIface, err := NewSequenceCleanupJob(SequenceCleanupJobParams{
		Logger:     logger.Nop(),
		Repository: checkout.NewRepository(client.DB()),
	})
	require.NoError(t, err)
	job := jobIface.(*sequenceCleanupJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	var days []string
	require.NoError(t, client.DB().Model(&models.OrderSequence{}).Order("day ASC").Pluck("day", &days).Error)
	assert.Equal(t, []string{"260303", "260309", "260310"}, days)
}

func TestSequenceCleanupUsesConfiguredTimezone(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	repo := &recordingSequenceRepo{}
	jobIface, err := NewSequenceCleanupJob(SequenceCleanupJobParams{
		Logger:     logger.Nop(),
		Repository: repo,
		Retention:  24 * time.Hour,
		Location:   loc,
	})
	require.NoError(t, err)
	job := jobIface.(*sequenceCleanupJob)
	job.now = func() time.Time { return time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "260308", repo.cutoff)
}

type recordingSequenceRepo struct {
	cutoff string
}

func (r *recordingSequenceRepo) DeleteSequencesBefore(_ context.Context, cutoffDay string) (int64, error) {
	r.cutoff = cutoffDay
	return 0, nil
}
