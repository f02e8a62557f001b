package checkout

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists placed orders and coupons.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
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

// CreateOrder inserts the order with its item snapshots.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("StatusHistory").Create(order).Error
}

// FindOrder loads an order with its items, used to replay idempotent checkouts.
func (r *Repository) FindOrder(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindCouponByCode looks a coupon up by its normalized code.
func (r *Repository) FindCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", NormalizeCouponCode(code)).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CreateCoupon inserts a coupon.
func (r *Repository) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// ListCoupons returns every coupon, newest first.
func (r *Repository) ListCoupons(ctx context.Context, activeOnly bool) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("code ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var coupons []models.Coupon
	if err := query.Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// DeleteSequencesBefore drops order_sequences rows for days older than cutoff (YYMMDD).
func (r *Repository) DeleteSequencesBefore(ctx context.Context, cutoffDay string) (int64, error) {
	res := r.db.WithContext(ctx).Where("day < ?", cutoffDay).Delete(&models.OrderSequence{})
	return res.RowsAffected, res.Error
}

// NormalizeCouponCode trims and upper-cases a coupon code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
