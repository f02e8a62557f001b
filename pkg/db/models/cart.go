package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Cart is the single mutable basket owned by a user.
type Cart struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_carts_user"`
	SubtotalCents int        `gorm:"column:subtotal_cents;not null;default:0"`
	ItemCount     int        `gorm:"column:item_count;not null;default:0"`
	LastUpdated   time.Time  `gorm:"column:last_updated;not null"`
	Items         []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is one (product, color, size) line of a cart.
type CartItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_line,priority:1"`
	ProductID       uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_line,priority:2"`
	Color           string     `gorm:"column:color;not null;uniqueIndex:ux_cart_items_line,priority:3"`
	Size            enums.Size `gorm:"column:size;type:text;not null;uniqueIndex:ux_cart_items_line,priority:4"`
	Quantity        int        `gorm:"column:quantity;not null"`
	UnitPriceCents  int        `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int        `gorm:"column:total_price_cents;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
