package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	reviewsvc "github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubReviewService struct {
	reviewsvc.Service
	createInput reviewsvc.CreateReviewInput
	listInput   reviewsvc.ListReviewsInput
	vote        enums.VoteType
	moderate    reviewsvc.ModerateInput
	actor       reviewsvc.Actor
	deleted     uuid.UUID
	err         error
}

func (s *stubReviewService) CreateReview(_ context.Context, userID uuid.UUID, input reviewsvc.CreateReviewInput) (*reviewsvc.ReviewDTO, error) {
	s.createInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &reviewsvc.ReviewDTO{ID: uuid.New(), UserID: userID, ModerationStatus: enums.ModerationStatusPending}, nil
}

func (s *stubReviewService) ListProductReviews(_ context.Context, _ uuid.UUID, input reviewsvc.ListReviewsInput) (*reviewsvc.ReviewList, error) {
	s.listInput = input
	return &reviewsvc.ReviewList{Reviews: []reviewsvc.ReviewDTO{}}, s.err
}

func (s *stubReviewService) Vote(_ context.Context, _, reviewID uuid.UUID, vote enums.VoteType) (*reviewsvc.ReviewDTO, error) {
	s.vote = vote
	return &reviewsvc.ReviewDTO{ID: reviewID}, s.err
}

func (s *stubReviewService) Moderate(_ context.Context, actor reviewsvc.Actor, reviewID uuid.UUID, input reviewsvc.ModerateInput) (*reviewsvc.ReviewDTO, error) {
	s.actor, s.moderate = actor, input
	if s.err != nil {
		return nil, s.err
	}
	return &reviewsvc.ReviewDTO{ID: reviewID, ModerationStatus: input.Status}, nil
}

func (s *stubReviewService) DeleteReview(_ context.Context, actor reviewsvc.Actor, reviewID uuid.UUID) error {
	s.actor, s.deleted = actor, reviewID
	return s.err
}

func (s *stubReviewService) ModerationQueue(_ context.Context, page pagination.PageParams) (*reviewsvc.ReviewList, error) {
	return &reviewsvc.ReviewList{Reviews: []reviewsvc.ReviewDTO{}, Page: pagination.NewPageInfo(page, 0)}, s.err
}

func TestReviewCreateMapsOptionalRatings(t *testing.T) {
	svc := &stubReviewService{}
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `","rating":4,"title":"Great","comment":"Fits well","pros":["soft"],"fit_rating":"true_to_size","quality_rating":5}`
	resp := serve(ReviewCreate(svc, nil), asUser(newRequest(http.MethodPost, "/api/v1/reviews", body, nil), uuid.New(), "customer"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	in := svc.createInput
	if in.ProductID != productID || in.Rating != 4 || in.FitRating == nil || *in.FitRating != enums.FitTrueToSize {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.QualityRating == nil || *in.QualityRating != 5 || in.ValueRating != nil {
		t.Fatalf("unexpected sub ratings %+v", in)
	}
}

func TestReviewCreateValidatesRatingRange(t *testing.T) {
	body := `{"product_id":"` + uuid.NewString() + `","rating":6,"title":"x","comment":"y"}`
	resp := serve(ReviewCreate(&stubReviewService{}, nil), asUser(newRequest(http.MethodPost, "/", body, nil), uuid.New(), "customer"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReviewCreateDuplicate(t *testing.T) {
	svc := &stubReviewService{err: pkgerrors.New(pkgerrors.CodeDuplicate, "already reviewed")}
	body := `{"product_id":"` + uuid.NewString() + `","rating":3,"title":"x","comment":"y"}`
	resp := serve(ReviewCreate(svc, nil), asUser(newRequest(http.MethodPost, "/", body, nil), uuid.New(), "customer"))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestReviewListForProductParsesQuery(t *testing.T) {
	svc := &stubReviewService{}
	req := newRequest(http.MethodGet, "/?sort=helpful&rating=5&verified=true&page=3", "", map[string]string{"productId": uuid.NewString()})
	resp := serve(ReviewListForProduct(svc, nil), req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	in := svc.listInput
	if in.Sort != enums.ReviewSortHelpful || in.Rating == nil || *in.Rating != 5 || !in.VerifiedOnly || in.Page.Page != 3 {
		t.Fatalf("unexpected list input %+v", in)
	}

	req = newRequest(http.MethodGet, "/?rating=9", "", map[string]string{"productId": uuid.NewString()})
	if resp := serve(ReviewListForProduct(svc, nil), req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReviewVoteParsesType(t *testing.T) {
	svc := &stubReviewService{}
	params := map[string]string{"reviewId": uuid.NewString()}
	resp := serve(ReviewVote(svc, nil), asUser(newRequest(http.MethodPost, "/", `{"vote":"not_helpful"}`, params), uuid.New(), "customer"))
	if resp.Code != http.StatusOK || svc.vote != enums.VoteNotHelpful {
		t.Fatalf("unexpected vote: %d %s", resp.Code, svc.vote)
	}
	resp = serve(ReviewVote(svc, nil), asUser(newRequest(http.MethodPost, "/", `{"vote":"meh"}`, params), uuid.New(), "customer"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminReviewModerate(t *testing.T) {
	svc := &stubReviewService{}
	adminID := uuid.New()
	req := asUser(newRequest(http.MethodPost, "/", `{"status":"rejected","note":"spam"}`, map[string]string{"reviewId": uuid.NewString()}), adminID, "admin")
	resp := serve(AdminReviewModerate(svc, nil), req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.moderate.Status != enums.ModerationStatusRejected || svc.actor.UserID != adminID || svc.actor.Role != enums.ActorRoleAdmin {
		t.Fatalf("unexpected moderation call %+v %+v", svc.moderate, svc.actor)
	}
}

func TestReviewDeleteForbidden(t *testing.T) {
	svc := &stubReviewService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not your review")}
	reviewID := uuid.New()
	req := asUser(newRequest(http.MethodDelete, "/", "", map[string]string{"reviewId": reviewID.String()}), uuid.New(), "customer")
	resp := serve(ReviewDelete(svc, nil), req)
	if resp.Code != http.StatusForbidden || svc.deleted != reviewID {
		t.Fatalf("unexpected delete: %d", resp.Code)
	}
}

func TestAdminReviewQueue(t *testing.T) {
	resp := serve(AdminReviewQueue(&stubReviewService{}, nil), asUser(newRequest(http.MethodGet, "/?limit=500", "", nil), uuid.New(), "admin"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit got %d", resp.Code)
	}
}
