package cart

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CartDTO is the cart payload returned to clients.
type CartDTO struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	Items         []CartItemDTO `json:"items"`
	SubtotalCents int           `json:"subtotal_cents"`
	ItemCount     int           `json:"item_count"`
	LastUpdated   time.Time     `json:"last_updated"`
}

// CartItemDTO is one cart line.
type CartItemDTO struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	Color           string    `json:"color"`
	Size            string    `json:"size"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int       `json:"unit_price_cents"`
	TotalPriceCents int       `json:"total_price_cents"`
}

// NewCartDTO maps the persisted cart.
func NewCartDTO(cart *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:            cart.ID,
		UserID:        cart.UserID,
		Items:         make([]CartItemDTO, 0, len(cart.Items)),
		SubtotalCents: cart.SubtotalCents,
		ItemCount:     cart.ItemCount,
		LastUpdated:   cart.LastUpdated,
	}
	for _, item := range cart.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Color:           item.Color,
			Size:            string(item.Size),
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
		})
	}
	return dto
}
