package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	reviewsvc "github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func reviewActor(r *http.Request) (reviewsvc.Actor, error) {
	userID, role, err := requireActor(r)
	if err != nil {
		return reviewsvc.Actor{}, err
	}
	return reviewsvc.Actor{UserID: userID, Role: role}, nil
}

// ReviewListForProduct lists approved reviews of a product.
func ReviewListForProduct(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rating, err := validators.ParseQueryOptionalInt(r, "rating", 1, 5)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		verifiedOnly, err := validators.ParseQueryBool(r, "verified", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var sort enums.ReviewSort
		if raw := strings.TrimSpace(r.URL.Query().Get("sort")); raw != "" {
			if sort, err = enums.ParseReviewSort(raw); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort"))
				return
			}
		}
		list, err := svc.ListProductReviews(r.Context(), productID, reviewsvc.ListReviewsInput{
			Sort:         sort,
			Rating:       rating,
			VerifiedOnly: verifiedOnly,
			Page:         page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ReviewProductStats returns the rating breakdown of a product.
func ReviewProductStats(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.ProductStats(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type createReviewRequest struct {
	ProductID        uuid.UUID            `json:"product_id" validate:"required"`
	OrderID          *uuid.UUID           `json:"order_id,omitempty"`
	Rating           int                  `json:"rating" validate:"required,min=1,max=5"`
	Title            string               `json:"title" validate:"required,max=100"`
	Comment          string               `json:"comment" validate:"required,max=1000"`
	Pros             []string             `json:"pros,omitempty" validate:"omitempty,dive,max=200"`
	Cons             []string             `json:"cons,omitempty" validate:"omitempty,dive,max=200"`
	Images           []types.ProductImage `json:"images,omitempty" validate:"omitempty,dive"`
	RecommendProduct *bool                `json:"recommend_product,omitempty"`
	FitRating        *string              `json:"fit_rating,omitempty"`
	QualityRating    *int                 `json:"quality_rating,omitempty" validate:"omitempty,min=1,max=5"`
	ValueRating      *int                 `json:"value_rating,omitempty" validate:"omitempty,min=1,max=5"`
	ComfortRating    *int                 `json:"comfort_rating,omitempty" validate:"omitempty,min=1,max=5"`
}

func (p createReviewRequest) toInput() (reviewsvc.CreateReviewInput, error) {
	input := reviewsvc.CreateReviewInput{
		ProductID:        p.ProductID,
		OrderID:          p.OrderID,
		Rating:           p.Rating,
		Title:            p.Title,
		Comment:          p.Comment,
		Pros:             p.Pros,
		Cons:             p.Cons,
		Images:           p.Images,
		RecommendProduct: p.RecommendProduct,
		QualityRating:    p.QualityRating,
		ValueRating:      p.ValueRating,
		ComfortRating:    p.ComfortRating,
	}
	if p.FitRating != nil {
		fit, err := enums.ParseFitRating(strings.TrimSpace(*p.FitRating))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fit rating")
		}
		input.FitRating = &fit
	}
	return input, nil
}

// ReviewCreate submits a review. Verified purchases are approved immediately.
func ReviewCreate(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := svc.CreateReview(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

type voteRequest struct {
	Vote string `json:"vote" validate:"required"`
}

// ReviewVote records or replaces the caller's helpfulness vote.
func ReviewVote(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.ParseUUIDParam(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload voteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vote, err := enums.ParseVoteType(strings.TrimSpace(payload.Vote))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vote"))
			return
		}
		review, err := svc.Vote(r.Context(), userID, reviewID, vote)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

type flagRequest struct {
	Reason string `json:"reason" validate:"required"`
	Note   string `json:"note,omitempty" validate:"max=500"`
}

// ReviewFlag reports a review. Each user may flag a review once.
func ReviewFlag(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.ParseUUIDParam(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload flagRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := enums.ParseFlagReason(strings.TrimSpace(payload.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid flag reason"))
			return
		}
		review, err := svc.Flag(r.Context(), userID, reviewID, reviewsvc.FlagInput{Reason: reason, Note: payload.Note})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// ReviewDelete removes a review. Owners and admins only.
func ReviewDelete(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reviewActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.ParseUUIDParam(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteReview(r.Context(), actor, reviewID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReviewVerifyPurchase re-runs verified purchase detection for the review.
func ReviewVerifyPurchase(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reviewActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.ParseUUIDParam(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := svc.VerifyPurchase(r.Context(), actor, reviewID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// AdminReviewQueue lists pending and flagged reviews, newest first.
func AdminReviewQueue(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ModerationQueue(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type moderateRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note,omitempty" validate:"max=500"`
}

func AdminReviewModerate(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reviewActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.ParseUUIDParam(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload moderateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseModerationStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid moderation status"))
			return
		}
		review, err := svc.Moderate(r.Context(), actor, reviewID, reviewsvc.ModerateInput{Status: status, Note: payload.Note})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

type respondRequest struct {
	Comment string `json:"comment" validate:"required,max=1000"`
}

func AdminReviewRespond(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := reviewActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.ParseUUIDParam(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload respondRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := svc.Respond(r.Context(), actor, reviewID, payload.Comment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}
