package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon is a redeemable discount code. Value is a percent for percentage coupons and cents otherwise.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code             string             `gorm:"column:code;not null;uniqueIndex:ux_coupons_code"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Value            int                `gorm:"column:value;not null"`
	MinSubtotalCents int                `gorm:"column:min_subtotal_cents;not null;default:0"`
	IsActive         bool               `gorm:"column:is_active;not null"`
	ExpiresAt        *time.Time         `gorm:"column:expires_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
