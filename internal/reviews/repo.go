package reviews

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists reviews and their vote and flag ledgers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a review repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// LockByID loads a review FOR UPDATE inside the caller's transaction.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&review, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error
}

// ApproveIfPending approves the review only while it still awaits moderation.
// Zero rows affected means a moderator decided first.
func (r *Repository) ApproveIfPending(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ? AND moderation_status = ?", id, enums.ModerationStatusPending).
		Updates(map[string]any{
			"moderation_status": enums.ModerationStatusApproved,
			"is_approved":       true,
			"moderated_at":      at,
			"updated_at":        at,
		})
	return res.RowsAffected, res.Error
}

// Delete removes the review together with its ledgers.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("review_id = ?", id).Delete(&models.ReviewVote{}).Error; err != nil {
		return err
	}
	if err := db.Where("review_id = ?", id).Delete(&models.ReviewFlag{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Review{}).Error
}

// UpsertVote stores the user's vote, replacing any earlier one.
func (r *Repository) UpsertVote(ctx context.Context, vote *models.ReviewVote) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote", "voted_at"}),
		}).
		Create(vote).Error
}

// RecountVotes rewrites the denormalized counters from the vote ledger.
func (r *Repository) RecountVotes(ctx context.Context, reviewID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE reviews
		SET helpful_count = (SELECT COUNT(*) FROM review_votes WHERE review_id = ? AND vote = ?),
		    not_helpful_count = (SELECT COUNT(*) FROM review_votes WHERE review_id = ? AND vote = ?),
		    updated_at = ?
		WHERE id = ?`,
		reviewID, enums.VoteHelpful, reviewID, enums.VoteNotHelpful, time.Now().UTC(), reviewID,
	).Error
}

func (r *Repository) InsertFlag(ctx context.Context, flag *models.ReviewFlag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *Repository) FlagExists(ctx context.Context, reviewID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReviewFlag{}).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Count(&count).Error
	return count > 0, err
}

// RecountFlags rewrites flag_count from the ledger and returns the new value.
func (r *Repository) RecountFlags(ctx context.Context, reviewID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ReviewFlag{}).Where("review_id = ?", reviewID).Count(&count).Error; err != nil {
		return 0, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", reviewID).
		Updates(map[string]any{"flag_count": count, "updated_at": time.Now().UTC()}).Error
	return int(count), err
}

// ProductReviewFilters narrows the public listing of a product's reviews.
type ProductReviewFilters struct {
	ProductID    uuid.UUID
	Rating       *int
	VerifiedOnly bool
}

// ListApproved returns approved reviews of a product.
func (r *Repository) ListApproved(ctx context.Context, f ProductReviewFilters, sort enums.ReviewSort, page pagination.PageParams) ([]models.Review, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND is_approved = ?", f.ProductID, true)
	if f.Rating != nil {
		query = query.Where("rating = ?", *f.Rating)
	}
	if f.VerifiedOnly {
		query = query.Where("purchase_verified = ?", true)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Review
	err := query.
		Order(sortClause(sort)).
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListModerationQueue returns pending and flagged reviews, newest first.
func (r *Repository) ListModerationQueue(ctx context.Context, page pagination.PageParams) ([]models.Review, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("moderation_status IN ?", []enums.ModerationStatus{enums.ModerationStatusPending, enums.ModerationStatusFlagged})

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Review
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RatingBucket is the number of approved reviews with one rating value.
type RatingBucket struct {
	Rating int
	Count  int64
}

// RatingBreakdown groups approved reviews of a product by rating.
func (r *Repository) RatingBreakdown(ctx context.Context, productID uuid.UUID) ([]RatingBucket, error) {
	var rows []RatingBucket
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Group("rating").
		Scan(&rows).Error
	return rows, err
}

// CountVerified counts approved verified-purchase reviews of a product.
func (r *Repository) CountVerified(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND is_approved = ? AND purchase_verified = ?", productID, true, true).
		Count(&count).Error
	return count, err
}

// ApprovedAggregate is a from-scratch rating aggregate over approved reviews.
type ApprovedAggregate struct {
	ProductID uuid.UUID
	Count     int64
	Sum       int64
}

// ApprovedAggregates scans approved reviews of the given products.
func (r *Repository) ApprovedAggregates(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]ApprovedAggregate, error) {
	out := make(map[uuid.UUID]ApprovedAggregate, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []ApprovedAggregate
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("product_id, COUNT(*) AS count, COALESCE(SUM(rating), 0) AS sum").
		Where("product_id IN ? AND is_approved = ?", productIDs, true).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}

func sortClause(sort enums.ReviewSort) string {
	switch sort {
	case enums.ReviewSortHelpful:
		return "helpful_count DESC, created_at DESC"
	case enums.ReviewSortRatingHigh:
		return "rating DESC, created_at DESC"
	case enums.ReviewSortRatingLow:
		return "rating ASC, created_at DESC"
	default:
		return "created_at DESC"
	}
}
