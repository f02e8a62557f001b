package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultSequenceRetention = 7 * 24 * time.Hour

// SequenceCleanupJobParams configure pruning of per-day order number counters.
type SequenceCleanupJobParams struct {
	Logger     *logger.Logger
	Repository sequenceRepository
	Retention  time.Duration
	Location   *time.Location
}

type sequenceRepository interface {
	DeleteSequencesBefore(ctx context.Context, cutoffDay string) (int64, error)
}

// NewSequenceCleanupJob builds the order-sequence-cleanup job.
func NewSequenceCleanupJob(params SequenceCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("sequence repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultSequenceRetention
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &sequenceCleanupJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		loc:       loc,
		now:       time.Now,
	}, nil
}

type sequenceCleanupJob struct {
	logg      *logger.Logger
	repo      sequenceRepository
	retention time.Duration
	loc       *time.Location
	now       func() time.Time
}

func (j *sequenceCleanupJob) Name() string { return "order-sequence-cleanup" }

// Run deletes counters of days that fall entirely outside the retention window.
// Day keys are YYMMDD so string comparison follows calendar order.
func (j *sequenceCleanupJob) Run(ctx context.Context) error {
	cutoff := checkout.DayKey(j.now().Add(-j.retention), j.loc)
	deleted, err := j.repo.DeleteSequencesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete order sequences before %s: %w", cutoff, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff_day":   cutoff,
		"rows_deleted": deleted,
	}), "order sequence cleanup complete")
	return nil
}
