package reviews

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReviewDTO is the API representation of a review.
type ReviewDTO struct {
	ID               uuid.UUID              `json:"id"`
	ProductID        uuid.UUID              `json:"product_id"`
	UserID           uuid.UUID              `json:"user_id"`
	OrderID          *uuid.UUID             `json:"order_id,omitempty"`
	Rating           int                    `json:"rating"`
	Title            string                 `json:"title"`
	Comment          string                 `json:"comment"`
	Pros             []string               `json:"pros"`
	Cons             []string               `json:"cons"`
	Images           []types.ProductImage   `json:"images"`
	PurchaseVerified bool                   `json:"purchase_verified"`
	RecommendProduct *bool                  `json:"recommend_product,omitempty"`
	FitRating        *enums.FitRating       `json:"fit_rating,omitempty"`
	QualityRating    *int                   `json:"quality_rating,omitempty"`
	ValueRating      *int                   `json:"value_rating,omitempty"`
	ComfortRating    *int                   `json:"comfort_rating,omitempty"`
	ModerationStatus enums.ModerationStatus `json:"moderation_status"`
	IsApproved       bool                   `json:"is_approved"`
	ModeratedAt      *time.Time             `json:"moderated_at,omitempty"`
	HelpfulCount     int                    `json:"helpful_count"`
	NotHelpfulCount  int                    `json:"not_helpful_count"`
	HelpfulnessScore int                    `json:"helpfulness_score"`
	FlagCount        int                    `json:"flag_count"`
	Response         *types.ReviewResponse  `json:"response,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// NewReviewDTO maps the model.
func NewReviewDTO(r models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:               r.ID,
		ProductID:        r.ProductID,
		UserID:           r.UserID,
		OrderID:          r.OrderID,
		Rating:           r.Rating,
		Title:            r.Title,
		Comment:          r.Comment,
		Pros:             []string(r.Pros),
		Cons:             []string(r.Cons),
		Images:           []types.ProductImage(r.Images),
		PurchaseVerified: r.PurchaseVerified,
		RecommendProduct: r.RecommendProduct,
		FitRating:        r.FitRating,
		QualityRating:    r.QualityRating,
		ValueRating:      r.ValueRating,
		ComfortRating:    r.ComfortRating,
		ModerationStatus: r.ModerationStatus,
		IsApproved:       r.IsApproved,
		ModeratedAt:      r.ModeratedAt,
		HelpfulCount:     r.HelpfulCount,
		NotHelpfulCount:  r.NotHelpfulCount,
		HelpfulnessScore: r.HelpfulnessScore(),
		FlagCount:        r.FlagCount,
		Response:         r.Response,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if dto.Pros == nil {
		dto.Pros = []string{}
	}
	if dto.Cons == nil {
		dto.Cons = []string{}
	}
	if dto.Images == nil {
		dto.Images = []types.ProductImage{}
	}
	return dto
}

// ReviewList is an offset page of reviews.
type ReviewList struct {
	Reviews []ReviewDTO         `json:"reviews"`
	Page    pagination.PageInfo `json:"page"`
}

func newReviewList(rows []models.Review, page pagination.PageParams, total int64) *ReviewList {
	out := &ReviewList{Reviews: make([]ReviewDTO, 0, len(rows)), Page: pagination.NewPageInfo(page, total)}
	for _, row := range rows {
		out.Reviews = append(out.Reviews, NewReviewDTO(row))
	}
	return out
}

// ReviewStats summarizes the approved reviews of a product.
type ReviewStats struct {
	ProductID     uuid.UUID     `json:"product_id"`
	Count         int64         `json:"count"`
	Average       float64       `json:"average"`
	Breakdown     map[int]int64 `json:"breakdown"`
	VerifiedCount int64         `json:"verified_count"`
}

// NewReviewStats folds rating buckets into stats. The breakdown always carries
// every star from 1 to 5 and the average is rounded to one decimal.
func NewReviewStats(productID uuid.UUID, buckets []RatingBucket) ReviewStats {
	stats := ReviewStats{ProductID: productID, Breakdown: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	sum := int64(0)
	for _, bucket := range buckets {
		if bucket.Rating < 1 || bucket.Rating > 5 {
			continue
		}
		stats.Breakdown[bucket.Rating] += bucket.Count
		stats.Count += bucket.Count
		sum += int64(bucket.Rating) * bucket.Count
	}
	if stats.Count > 0 {
		stats.Average = decimal.NewFromInt(sum).
			Div(decimal.NewFromInt(stats.Count)).
			Round(1).
			InexactFloat64()
	}
	return stats
}
