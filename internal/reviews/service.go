package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// FlagThreshold is the flag count that forces a review out of the public listing.
	FlagThreshold = 3

	maxTitleLength    = 100
	maxCommentLength  = 1000
	maxProsConsLength = 200
	maxNoteLength     = 500
	maxImages         = 5
	rateLimitScope    = "review:create:"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type purchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID uuid.UUID, orderID *uuid.UUID) (bool, error)
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type productInvalidator interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// Actor is the caller asserted by the gateway headers.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// IsAdmin reports whether the actor may moderate.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin || a.Role == enums.ActorRoleSystem
}

// Service is the review workflow.
type Service interface {
	CreateReview(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	VerifyPurchase(ctx context.Context, actor Actor, reviewID uuid.UUID) (*ReviewDTO, error)
	Vote(ctx context.Context, userID, reviewID uuid.UUID, vote enums.VoteType) (*ReviewDTO, error)
	Flag(ctx context.Context, userID, reviewID uuid.UUID, input FlagInput) (*ReviewDTO, error)
	Moderate(ctx context.Context, actor Actor, reviewID uuid.UUID, input ModerateInput) (*ReviewDTO, error)
	Respond(ctx context.Context, actor Actor, reviewID uuid.UUID, comment string) (*ReviewDTO, error)
	DeleteReview(ctx context.Context, actor Actor, reviewID uuid.UUID) error

	ProductStats(ctx context.Context, productID uuid.UUID) (*ReviewStats, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID, input ListReviewsInput) (*ReviewList, error)
	ModerationQueue(ctx context.Context, page pagination.PageParams) (*ReviewList, error)
}

// CreateReviewInput is the review submission payload.
type CreateReviewInput struct {
	ProductID        uuid.UUID
	OrderID          *uuid.UUID
	Rating           int
	Title            string
	Comment          string
	Pros             []string
	Cons             []string
	Images           []types.ProductImage
	RecommendProduct *bool
	FitRating        *enums.FitRating
	QualityRating    *int
	ValueRating      *int
	ComfortRating    *int
}

// FlagInput reports a review.
type FlagInput struct {
	Reason enums.FlagReason
	Note   string
}

// ModerateInput is a moderator decision.
type ModerateInput struct {
	Status enums.ModerationStatus
	Note   string
}

// ListReviewsInput filters the public listing.
type ListReviewsInput struct {
	Sort         enums.ReviewSort
	Rating       *int
	VerifiedOnly bool
	Page         pagination.PageParams
}

// RateLimit bounds review submissions per user.
type RateLimit struct {
	Limit  int64
	Window time.Duration
}

// Deps groups the collaborators of the review service.
type Deps struct {
	Tx          txRunner
	Repo        *Repository
	ProductRepo *product.Repository
	Purchases   purchaseChecker
	Outbox      outboxPublisher
	Limiter     rateLimiter
	Cache       productInvalidator
	Logger      *logger.Logger
}

type service struct {
	deps  Deps
	limit RateLimit
	now   func() time.Time
}

// NewService builds the review service. A nil limiter disables rate limiting.
func NewService(deps Deps, limit RateLimit) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if deps.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if deps.Purchases == nil {
		return nil, fmt.Errorf("purchase checker required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &service{deps: deps, limit: limit, now: time.Now}, nil
}

// CreateReview stores a pending review. A review linked to an order that
// contained the product is verified and approved unless a moderator has
// already decided on it.
func (s *service) CreateReview(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := validateCreate(&input); err != nil {
		return nil, err
	}
	ctx = s.deps.Logger.WithUserID(ctx, userID.String())
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	p, err := s.deps.ProductRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !p.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	now := s.now().UTC()
	verified := false
	if input.OrderID != nil {
		verified, err = s.deps.Purchases.HasPurchased(ctx, userID, input.ProductID, input.OrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify purchase")
		}
	}

	review := &models.Review{
		ID:               uuid.New(),
		ProductID:        input.ProductID,
		UserID:           userID,
		OrderID:          input.OrderID,
		Rating:           input.Rating,
		Title:            input.Title,
		Comment:          input.Comment,
		Pros:             types.StringList(input.Pros),
		Cons:             types.StringList(input.Cons),
		Images:           types.ProductImages(input.Images),
		PurchaseVerified: verified,
		RecommendProduct: input.RecommendProduct,
		FitRating:        input.FitRating,
		QualityRating:    input.QualityRating,
		ValueRating:      input.ValueRating,
		ComfortRating:    input.ComfortRating,
		ModerationStatus: enums.ModerationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	approved := false
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.deps.Repo.WithTx(tx).Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "ux_reviews_user_product", "reviews.user_id") {
				return pkgerrors.New(pkgerrors.CodeDuplicate, "you have already reviewed this product")
			}
			return err
		}
		if !verified {
			return nil
		}
		approved, err = s.autoApprove(ctx, tx, review, Actor{UserID: userID, Role: enums.ActorRoleSystem})
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, err, "create review")
	}
	if approved {
		s.invalidate(ctx, review.ProductID)
	}

	s.deps.Logger.Info(s.deps.Logger.WithFields(ctx, map[string]any{
		"review_id":  review.ID.String(),
		"product_id": review.ProductID.String(),
		"verified":   verified,
		"approved":   approved,
	}), "review created")
	return s.get(ctx, review.ID)
}

// VerifyPurchase re-runs purchase detection and applies the same guarded auto-approval.
func (s *service) VerifyPurchase(ctx context.Context, actor Actor, reviewID uuid.UUID) (*ReviewDTO, error) {
	current, err := s.get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && current.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	if current.PurchaseVerified {
		return current, nil
	}
	verified, err := s.deps.Purchases.HasPurchased(ctx, current.UserID, current.ProductID, current.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify purchase")
	}
	if !verified {
		return current, nil
	}

	approved := false
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		review, err := s.lock(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		if err := s.deps.Repo.WithTx(tx).UpdateFields(ctx, review.ID, map[string]any{"purchase_verified": true}); err != nil {
			return err
		}
		approved, err = s.autoApprove(ctx, tx, review, Actor{UserID: actor.UserID, Role: enums.ActorRoleSystem})
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, err, "verify purchase")
	}
	if approved {
		s.invalidate(ctx, current.ProductID)
	}
	return s.get(ctx, reviewID)
}

// autoApprove approves only while moderation is still pending. A review a
// moderator rejected or flagged first keeps that decision.
func (s *service) autoApprove(ctx context.Context, tx *gorm.DB, review *models.Review, actor Actor) (bool, error) {
	now := s.now().UTC()
	rows, err := s.deps.Repo.WithTx(tx).ApproveIfPending(ctx, review.ID, now)
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}
	if err := product.ApplyRatingAdd(ctx, s.deps.ProductRepo.WithTx(tx), review.ProductID, review.Rating); err != nil {
		return false, err
	}
	review.ModerationStatus = enums.ModerationStatusApproved
	review.IsApproved = true
	return true, s.emitModerated(ctx, tx, review, actor, now)
}

// Vote records the user's single active vote and recounts from the ledger.
func (s *service) Vote(ctx context.Context, userID, reviewID uuid.UUID, vote enums.VoteType) (*ReviewDTO, error) {
	if !vote.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vote must be helpful or not_helpful")
	}
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.lock(ctx, tx, reviewID); err != nil {
			return err
		}
		repo := s.deps.Repo.WithTx(tx)
		if err := repo.UpsertVote(ctx, &models.ReviewVote{
			ReviewID: reviewID,
			UserID:   userID,
			Vote:     vote,
			VotedAt:  s.now().UTC(),
		}); err != nil {
			return err
		}
		return repo.RecountVotes(ctx, reviewID)
	})
	if err != nil {
		return nil, s.translate(ctx, err, "vote on review")
	}
	return s.get(ctx, reviewID)
}

// Flag appends to the flag ledger. Reaching FlagThreshold forces the review
// to flagged and unapproved, overriding an earlier approval.
func (s *service) Flag(ctx context.Context, userID, reviewID uuid.UUID, input FlagInput) (*ReviewDTO, error) {
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid flag reason")
	}
	note := strings.TrimSpace(input.Note)
	if len(note) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flag note cannot exceed 500 characters")
	}

	unpublished := false
	var productID uuid.UUID
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		review, err := s.lock(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		productID = review.ProductID
		repo := s.deps.Repo.WithTx(tx)

		exists, err := repo.FlagExists(ctx, reviewID, userID)
		if err != nil {
			return err
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeDuplicate, "you have already flagged this review")
		}
		flag := &models.ReviewFlag{ReviewID: reviewID, UserID: userID, Reason: input.Reason, FlaggedAt: s.now().UTC()}
		if note != "" {
			flag.Note = &note
		}
		if err := repo.InsertFlag(ctx, flag); err != nil {
			if db.IsUniqueViolation(err, "ux_review_flags_user", "review_flags.review_id") {
				return pkgerrors.New(pkgerrors.CodeDuplicate, "you have already flagged this review")
			}
			return err
		}
		count, err := repo.RecountFlags(ctx, reviewID)
		if err != nil {
			return err
		}
		if count < FlagThreshold || review.ModerationStatus == enums.ModerationStatusFlagged {
			return nil
		}
		unpublished = review.IsApproved
		return s.setModeration(ctx, tx, review, enums.ModerationStatusFlagged, nil, Actor{Role: enums.ActorRoleSystem})
	})
	if err != nil {
		return nil, s.translate(ctx, err, "flag review")
	}
	if unpublished {
		s.invalidate(ctx, productID)
	}
	return s.get(ctx, reviewID)
}

// Moderate applies a moderator decision; isApproved follows the status.
func (s *service) Moderate(ctx context.Context, actor Actor, reviewID uuid.UUID, input ModerateInput) (*ReviewDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid moderation status")
	}
	note := strings.TrimSpace(input.Note)
	if len(note) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "moderation note cannot exceed 500 characters")
	}

	var productID uuid.UUID
	changed := false
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		review, err := s.lock(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		productID = review.ProductID
		changed = review.IsApproved != (input.Status == enums.ModerationStatusApproved)
		var notePtr *string
		if note != "" {
			notePtr = &note
		}
		return s.setModeration(ctx, tx, review, input.Status, notePtr, actor)
	})
	if err != nil {
		return nil, s.translate(ctx, err, "moderate review")
	}
	if changed {
		s.invalidate(ctx, productID)
	}
	s.deps.Logger.Info(s.deps.Logger.WithFields(ctx, map[string]any{
		"review_id": reviewID.String(),
		"status":    input.Status,
	}), "review moderated")
	return s.get(ctx, reviewID)
}

// setModeration writes the decision and moves the product aggregate when
// approval flips.
func (s *service) setModeration(ctx context.Context, tx *gorm.DB, review *models.Review, status enums.ModerationStatus, note *string, actor Actor) error {
	now := s.now().UTC()
	approved := status == enums.ModerationStatusApproved
	updates := map[string]any{
		"moderation_status": status,
		"is_approved":       approved,
		"moderated_at":      now,
	}
	if actor.UserID != uuid.Nil {
		updates["moderated_by"] = actor.UserID
	}
	if note != nil {
		updates["moderation_note"] = *note
	}
	if err := s.deps.Repo.WithTx(tx).UpdateFields(ctx, review.ID, updates); err != nil {
		return err
	}

	productRepo := s.deps.ProductRepo.WithTx(tx)
	switch {
	case approved && !review.IsApproved:
		if err := product.ApplyRatingAdd(ctx, productRepo, review.ProductID, review.Rating); err != nil {
			return err
		}
	case !approved && review.IsApproved:
		if err := product.ApplyRatingRemove(ctx, productRepo, review.ProductID, review.Rating); err != nil {
			return err
		}
	}
	review.ModerationStatus = status
	review.IsApproved = approved
	return s.emitModerated(ctx, tx, review, actor, now)
}

// Respond attaches the seller reply.
func (s *service) Respond(ctx context.Context, actor Actor, reviewID uuid.UUID, comment string) (*ReviewDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response comment required")
	}
	if len(comment) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response cannot exceed 1000 characters")
	}
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.lock(ctx, tx, reviewID); err != nil {
			return err
		}
		raw, err := json.Marshal(types.ReviewResponse{
			Comment:     comment,
			RespondedBy: actor.UserID,
			RespondedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		return s.deps.Repo.WithTx(tx).UpdateFields(ctx, reviewID, map[string]any{"response": string(raw)})
	})
	if err != nil {
		return nil, s.translate(ctx, err, "respond to review")
	}
	return s.get(ctx, reviewID)
}

// DeleteReview removes a review; an approved one is backed out of the product aggregate.
func (s *service) DeleteReview(ctx context.Context, actor Actor, reviewID uuid.UUID) error {
	var productID uuid.UUID
	wasApproved := false
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		review, err := s.lock(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && review.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		productID = review.ProductID
		wasApproved = review.IsApproved
		if err := s.deps.Repo.WithTx(tx).Delete(ctx, reviewID); err != nil {
			return err
		}
		if !review.IsApproved {
			return nil
		}
		return product.ApplyRatingRemove(ctx, s.deps.ProductRepo.WithTx(tx), review.ProductID, review.Rating)
	})
	if err != nil {
		return s.translate(ctx, err, "delete review")
	}
	if wasApproved {
		s.invalidate(ctx, productID)
	}
	s.deps.Logger.Info(s.deps.Logger.WithField(ctx, "review_id", reviewID.String()), "review deleted")
	return nil
}

func (s *service) ProductStats(ctx context.Context, productID uuid.UUID) (*ReviewStats, error) {
	buckets, err := s.deps.Repo.RatingBreakdown(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
	}
	verified, err := s.deps.Repo.CountVerified(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count verified reviews")
	}
	stats := NewReviewStats(productID, buckets)
	stats.VerifiedCount = verified
	return &stats, nil
}

func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID, input ListReviewsInput) (*ReviewList, error) {
	sort := input.Sort
	if sort == "" {
		sort = enums.ReviewSortNewest
	}
	if !sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating filter must be between 1 and 5")
	}
	rows, total, err := s.deps.Repo.ListApproved(ctx, ProductReviewFilters{
		ProductID:    productID,
		Rating:       input.Rating,
		VerifiedOnly: input.VerifiedOnly,
	}, sort, input.Page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return newReviewList(rows, input.Page, total), nil
}

func (s *service) ModerationQueue(ctx context.Context, page pagination.PageParams) (*ReviewList, error) {
	rows, total, err := s.deps.Repo.ListModerationQueue(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list moderation queue")
	}
	return newReviewList(rows, page, total), nil
}

func (s *service) allow(ctx context.Context, userID uuid.UUID) error {
	if s.deps.Limiter == nil || s.limit.Limit <= 0 {
		return nil
	}
	allowed, count, err := s.deps.Limiter.FixedWindowAllow(ctx, rateLimitScope+userID.String(), s.limit.Limit, s.limit.Window)
	if err != nil {
		s.deps.Logger.Warn(s.deps.Logger.WithField(ctx, "error", err.Error()), "review rate limit unavailable")
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many reviews, try again later").
			WithDetails(map[string]any{"count": count, "limit": s.limit.Limit})
	}
	return nil
}

func (s *service) emitModerated(ctx context.Context, tx *gorm.DB, review *models.Review, actor Actor, at time.Time) error {
	var ref *outbox.ActorRef
	if actor.UserID != uuid.Nil {
		ref = &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)}
	}
	return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReviewModerated,
		AggregateType: enums.AggregateReview,
		AggregateID:   review.ID,
		Actor:         ref,
		Data: payloads.ReviewModeratedEvent{
			ReviewID:   review.ID,
			ProductID:  review.ProductID,
			UserID:     review.UserID,
			Status:     review.ModerationStatus,
			IsApproved: review.IsApproved,
		},
		OccurredAt: at,
	})
}

func (s *service) lock(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Review, error) {
	review, err := s.deps.Repo.WithTx(tx).LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, err
	}
	return review, nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	review, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	dto := NewReviewDTO(*review)
	return &dto, nil
}

func (s *service) translate(ctx context.Context, err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	s.deps.Logger.Error(ctx, action+" failed", err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func (s *service) invalidate(ctx context.Context, productID uuid.UUID) {
	if s.deps.Cache != nil {
		s.deps.Cache.Invalidate(ctx, productID)
	}
}

func validateCreate(input *CreateReviewInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Comment = strings.TrimSpace(input.Comment)
	if input.Title == "" || len(input.Title) > maxTitleLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required and cannot exceed 100 characters")
	}
	if input.Comment == "" || len(input.Comment) > maxCommentLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "comment is required and cannot exceed 1000 characters")
	}
	var err error
	if input.Pros, err = cleanEntries("pros", input.Pros); err != nil {
		return err
	}
	if input.Cons, err = cleanEntries("cons", input.Cons); err != nil {
		return err
	}
	if len(input.Images) > maxImages {
		return pkgerrors.New(pkgerrors.CodeValidation, "at most 5 images per review")
	}
	if input.FitRating != nil && !input.FitRating.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid fit rating")
	}
	for name, value := range map[string]*int{
		"quality": input.QualityRating,
		"value":   input.ValueRating,
		"comfort": input.ComfortRating,
	} {
		if value != nil && (*value < 1 || *value > 5) {
			return pkgerrors.New(pkgerrors.CodeValidation, name+" rating must be between 1 and 5")
		}
	}
	return nil
}

func cleanEntries(field string, entries []string) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if len(entry) > maxProsConsLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" entries cannot exceed 200 characters")
		}
		out = append(out, entry)
	}
	return out, nil
}
