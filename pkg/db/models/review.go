package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Review is one user's opinion of one product.
type Review struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID              `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product,priority:2;index:ix_reviews_product"`
	UserID           uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product,priority:1"`
	OrderID          *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Rating           int                    `gorm:"column:rating;not null;check:ck_reviews_rating,rating BETWEEN 1 AND 5"`
	Title            string                 `gorm:"column:title;not null"`
	Comment          string                 `gorm:"column:comment;not null"`
	Pros             types.StringList       `gorm:"column:pros;type:jsonb"`
	Cons             types.StringList       `gorm:"column:cons;type:jsonb"`
	Images           types.ProductImages    `gorm:"column:images;type:jsonb;serializer:json"`
	PurchaseVerified bool                   `gorm:"column:purchase_verified;not null"`
	RecommendProduct *bool                  `gorm:"column:recommend_product"`
	FitRating        *enums.FitRating       `gorm:"column:fit_rating;type:text"`
	QualityRating    *int                   `gorm:"column:quality_rating"`
	ValueRating      *int                   `gorm:"column:value_rating"`
	ComfortRating    *int                   `gorm:"column:comfort_rating"`
	ModerationStatus enums.ModerationStatus `gorm:"column:moderation_status;type:text;not null;index:ix_reviews_moderation"`
	IsApproved       bool                   `gorm:"column:is_approved;not null"`
	ModeratedAt      *time.Time             `gorm:"column:moderated_at"`
	ModeratedBy      *uuid.UUID             `gorm:"column:moderated_by;type:uuid"`
	ModerationNote   *string                `gorm:"column:moderation_note"`
	HelpfulCount     int                    `gorm:"column:helpful_count;not null;default:0"`
	NotHelpfulCount  int                    `gorm:"column:not_helpful_count;not null;default:0"`
	FlagCount        int                    `gorm:"column:flag_count;not null;default:0"`
	Response         *types.ReviewResponse  `gorm:"column:response;type:jsonb;serializer:json"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HelpfulnessScore is the helpful share of all votes as a rounded percentage.
func (r Review) HelpfulnessScore() int {
	total := r.HelpfulCount + r.NotHelpfulCount
	if total == 0 {
		return 0
	}
	return (r.HelpfulCount*100 + total/2) / total
}

// ReviewVote is the single active helpfulness vote of a user on a review.
type ReviewVote struct {
	ID       uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ReviewID uuid.UUID      `gorm:"column:review_id;type:uuid;not null;uniqueIndex:ux_review_votes_user,priority:1"`
	UserID   uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_review_votes_user,priority:2"`
	Vote     enums.VoteType `gorm:"column:vote;type:text;not null"`
	VotedAt  time.Time      `gorm:"column:voted_at;not null"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (v *ReviewVote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// ReviewFlag is an entry of the review abuse ledger.
type ReviewFlag struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ReviewID  uuid.UUID        `gorm:"column:review_id;type:uuid;not null;uniqueIndex:ux_review_flags_user,priority:1"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_review_flags_user,priority:2"`
	Reason    enums.FlagReason `gorm:"column:reason;type:text;not null"`
	Note      *string          `gorm:"column:note"`
	FlaggedAt time.Time        `gorm:"column:flagged_at;not null"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (f *ReviewFlag) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
