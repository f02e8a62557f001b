package cron

import (
	"context"
	"errors"
	"testing"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReview(t *testing.T, client *db.Client, productID uuid.UUID, rating int, approved bool) {
	t.Helper()
	status := enums.ModerationStatusPending
	if approved {
		status = enums.ModerationStatusApproved
	}
	require.NoError(t, client.DB().Create(&models.Review{
		ProductID:        productID,
		UserID:           uuid.New(),
		Rating:           rating,
		Title:            "t",
		Comment:          "c",
		ModerationStatus: status,
		IsApproved:       approved,
	}).Error)
}

func setRating(t *testing.T, client *db.Client, productID uuid.UUID, average float64, count int) {
	t.Helper()
	require.NoError(t, client.DB().Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]any{"rating_average": average, "rating_count": count}).Error)
}

func TestRatingReconcileDetectsDriftWithoutFixing(t *testing.T) {
	client := dbtest.Open(t)
	consistent := dbtest.SeedProduct(t, client, dbtest.ProductFixture{})
	drifted := dbtest.SeedProduct(t, client, dbtest.ProductFixture{})
	orphaned := dbtest.SeedProduct(t, client, dbtest.ProductFixture{})
	untouched := dbtest.SeedProduct(t, client, dbtest.ProductFixture{})

	seedReview(t, client, consistent.ID, 5, true)
	seedReview(t, client, consistent.ID, 4, true)
	seedReview(t, client, consistent.ID, 1, false)
	setRating(t, client, consistent.ID, 4.5, 2)

	seedReview(t, client, drifted.ID, 3, true)
	setRating(t, client, drifted.ID, 4.0, 1)

	setRating(t, client, orphaned.ID, 5.0, 1)
	_ = untouched

	reg := prometheus.NewRegistry()
	jobIface, err := NewRatingReconcileJob(RatingReconcileJobParams{
		Logger:    logger.Nop(),
		Products:  product.NewRepository(client.DB()),
		Reviews:   reviews.NewRepository(client.DB()),
		Metrics:   metrics.NewRatingDriftMetrics(reg),
		BatchSize: 1,
	})
	require.NoError(t, err)
	job := jobIface.(*ratingReconcileJob)

	drifts, scanned, err := job.scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, scanned)
	got := map[uuid.UUID]RatingDrift{}
	for _, d := range drifts {
		got[d.ProductID] = d
	}
	require.Len(t, got, 2)
	assert.InDelta(t, 3.0, got[drifted.ID].ExpectedAverage, 1e-9)
	assert.InDelta(t, 4.0, got[drifted.ID].StoredAverage, 1e-9)
	assert.Equal(t, 0, got[orphaned.ID].ExpectedCount)
	assert.Equal(t, 1, got[orphaned.ID].StoredCount)

	require.NoError(t, job.Run(context.Background()))
	row := dbtest.ProductRow(t, client, drifted.ID)
	assert.InDelta(t, 4.0, row.RatingAverage, 1e-9)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "storefront_rating_drift_products" {
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

type failingAggregates struct{ calls int }

func (f *failingAggregates) ApprovedAggregates(context.Context, []uuid.UUID) (map[uuid.UUID]reviews.ApprovedAggregate, error) {
	f.calls++
	return nil, errors.New("replica down")
}

func TestRatingReconcileKeepsWalkingAfterBatchFailure(t *testing.T) {
	client := dbtest.Open(t)
	for i := 0; i < 3; i++ {
		dbtest.SeedProduct(t, client, dbtest.ProductFixture{})
	}
	failing := &failingAggregates{}
	job, err := NewRatingReconcileJob(RatingReconcileJobParams{
		Logger:    logger.Nop(),
		Products:  product.NewRepository(client.DB()),
		Reviews:   failing,
		BatchSize: 2,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, failing.calls)
}

func TestCompareRatingTolerance(t *testing.T) {
	id := uuid.New()
	_, drifted := compareRating(product.RatingAggregate{ProductID: id, RatingAverage: 13.0 / 3.0, RatingCount: 3}, reviews.ApprovedAggregate{ProductID: id, Count: 3, Sum: 13})
	assert.False(t, drifted)
	_, drifted = compareRating(product.RatingAggregate{ProductID: id, RatingAverage: 4.33, RatingCount: 3}, reviews.ApprovedAggregate{ProductID: id, Count: 3, Sum: 13})
	assert.True(t, drifted)
	_, drifted = compareRating(product.RatingAggregate{ProductID: id}, reviews.ApprovedAggregate{})
	assert.False(t, drifted)
}
