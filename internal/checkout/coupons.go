package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

const maxCouponCodeLength = 40

// CouponService manages redeemable coupon codes.
type CouponService interface {
	CreateCoupon(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	ListCoupons(ctx context.Context, activeOnly bool) ([]models.Coupon, error)
}

// CreateCouponInput is the admin payload for a new coupon.
type CreateCouponInput struct {
	Code             string
	DiscountType     enums.DiscountType
	Value            int
	MinSubtotalCents int
	IsActive         *bool
	ExpiresAt        *time.Time
}

type couponService struct {
	repo *Repository
}

// NewCouponService builds the coupon admin service.
func NewCouponService(repo *Repository) (CouponService, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	return &couponService{repo: repo}, nil
}

func (s *couponService) CreateCoupon(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	code := NormalizeCouponCode(input.Code)
	if code == "" || len(code) > maxCouponCodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code must be 1-40 characters")
	}
	switch input.DiscountType {
	case enums.DiscountPercentage:
		if input.Value < 1 || input.Value > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 1 and 100")
		}
	case enums.DiscountFixed:
		if input.Value < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed discount must be positive")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.MinSubtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_subtotal_cents must be >= 0")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	coupon := &models.Coupon{
		Code:             code,
		DiscountType:     input.DiscountType,
		Value:            input.Value,
		MinSubtotalCents: input.MinSubtotalCents,
		IsActive:         active,
		ExpiresAt:        input.ExpiresAt,
	}
	if err := s.repo.CreateCoupon(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "ux_coupons_code", "coupons.code") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}

func (s *couponService) ListCoupons(ctx context.Context, activeOnly bool) ([]models.Coupon, error) {
	coupons, err := s.repo.ListCoupons(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return coupons, nil
}

// redeemableCoupon loads a coupon and checks it applies to subtotal at now.
func redeemableCoupon(ctx context.Context, repo *Repository, code string, subtotal int, now time.Time) (*models.Coupon, error) {
	coupon, err := repo.FindCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
		}
		return nil, err
	}
	if err := CheckCoupon(coupon, subtotal, now); err != nil {
		return nil, err
	}
	return coupon, nil
}

// CheckCoupon rejects inactive, expired, or under-minimum redemptions.
func CheckCoupon(coupon *models.Coupon, subtotal int, now time.Time) error {
	if !coupon.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if coupon.ExpiresAt != nil && !now.Before(*coupon.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if subtotal < coupon.MinSubtotalCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal below coupon minimum").
			WithDetails(map[string]any{"min_subtotal_cents": coupon.MinSubtotalCents})
	}
	return nil
}
