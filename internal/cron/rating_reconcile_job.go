package cron

import (
	"context"
	"fmt"
	"math"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	defaultReconcileBatch = 200
	ratingTolerance       = 1e-6
)

// RatingReconcileJobParams configure the rating drift detector.
type RatingReconcileJobParams struct {
	Logger    *logger.Logger
	Products  ratingAggregateReader
	Reviews   approvedReviewReader
	Metrics   *metrics.RatingDriftMetrics
	BatchSize int
}

type ratingAggregateReader interface {
	ListRatingAggregates(ctx context.Context, afterID *uuid.UUID, limit int) ([]product.RatingAggregate, error)
}

type approvedReviewReader interface {
	ApprovedAggregates(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]reviews.ApprovedAggregate, error)
}

// NewRatingReconcileJob builds the rating-reconciliation job.
func NewRatingReconcileJob(params RatingReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Reviews == nil {
		return nil, fmt.Errorf("review repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &ratingReconcileJob{
		logg:     params.Logger,
		products: params.Products,
		reviews:  params.Reviews,
		metrics:  params.Metrics,
		batch:    batch,
	}, nil
}

type ratingReconcileJob struct {
	logg     *logger.Logger
	products ratingAggregateReader
	reviews  approvedReviewReader
	metrics  *metrics.RatingDriftMetrics
	batch    int
}

// RatingDrift is a product whose stored aggregate disagrees with its approved reviews.
type RatingDrift struct {
	ProductID       uuid.UUID
	StoredAverage   float64
	StoredCount     int
	ExpectedAverage float64
	ExpectedCount   int
}

func (j *ratingReconcileJob) Name() string { return "rating-reconciliation" }

// Run walks every product in id order and reports drift. Stored aggregates are
// never rewritten here; a drift means an incremental update was lost and needs
// investigation.
func (j *ratingReconcileJob) Run(ctx context.Context) error {
	drifts, scanned, err := j.scan(ctx)
	for _, drift := range drifts {
		j.logg.Error(j.logg.WithFields(ctx, map[string]any{
			"product_id":       drift.ProductID.String(),
			"stored_average":   drift.StoredAverage,
			"stored_count":     drift.StoredCount,
			"expected_average": drift.ExpectedAverage,
			"expected_count":   drift.ExpectedCount,
		}), "product rating drift detected", nil)
	}
	j.metrics.Record(len(drifts))
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"products_scanned": scanned,
		"drifted":          len(drifts),
	}), "rating reconciliation complete")
	return nil
}

func (j *ratingReconcileJob) scan(ctx context.Context) ([]RatingDrift, int, error) {
	var (
		drifts  []RatingDrift
		errs    error
		afterID *uuid.UUID
		scanned int
	)
	for {
		if err := ctx.Err(); err != nil {
			return drifts, scanned, multierr.Append(errs, err)
		}
		page, err := j.products.ListRatingAggregates(ctx, afterID, j.batch)
		if err != nil {
			return drifts, scanned, multierr.Append(errs, fmt.Errorf("list rating aggregates: %w", err))
		}
		if len(page) == 0 {
			return drifts, scanned, errs
		}
		scanned += len(page)

		ids := make([]uuid.UUID, 0, len(page))
		for _, row := range page {
			ids = append(ids, row.ProductID)
		}
		last := page[len(page)-1].ProductID
		afterID = &last

		actual, err := j.reviews.ApprovedAggregates(ctx, ids)
		if err != nil {
			// A failed batch is reported but the walk continues with the next one.
			errs = multierr.Append(errs, fmt.Errorf("aggregate reviews after %s: %w", ids[0], err))
			continue
		}
		for _, row := range page {
			if drift, ok := compareRating(row, actual[row.ProductID]); ok {
				drifts = append(drifts, drift)
			}
		}
		if len(page) < j.batch {
			return drifts, scanned, errs
		}
	}
}

func compareRating(stored product.RatingAggregate, actual reviews.ApprovedAggregate) (RatingDrift, bool) {
	expected := 0.0
	if actual.Count > 0 {
		expected = float64(actual.Sum) / float64(actual.Count)
	}
	drift := RatingDrift{
		ProductID:       stored.ProductID,
		StoredAverage:   stored.RatingAverage,
		StoredCount:     stored.RatingCount,
		ExpectedAverage: expected,
		ExpectedCount:   int(actual.Count),
	}
	if int64(stored.RatingCount) != actual.Count {
		return drift, true
	}
	return drift, math.Abs(stored.RatingAverage-expected) > ratingTolerance
}
