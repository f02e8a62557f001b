package product

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID                 uuid.UUID            `json:"id"`
	SKU                string               `json:"sku"`
	Slug               string               `json:"slug"`
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	Category           string               `json:"category"`
	Brand              string               `json:"brand"`
	Gender             string               `json:"gender"`
	BasePriceCents     int                  `json:"base_price_cents"`
	SalePriceCents     *int                 `json:"sale_price_cents,omitempty"`
	CurrentPriceCents  int                  `json:"current_price_cents"`
	DiscountPercentage int                  `json:"discount_percentage"`
	Currency           string               `json:"currency"`
	Images             []types.ProductImage `json:"images"`
	PrimaryImage       *types.ProductImage  `json:"primary_image,omitempty"`
	Variants           []VariantDTO         `json:"variants"`
	TotalStock         int                  `json:"total_stock"`
	Tags               []string             `json:"tags"`
	Materials          []string             `json:"materials"`
	IsActive           bool                 `json:"is_active"`
	IsFeatured         bool                 `json:"is_featured"`
	IsNew              bool                 `json:"is_new"`
	Rating             RatingDTO            `json:"rating"`
	ViewCount          int64                `json:"view_count"`
	SalesCount         int64                `json:"sales_count"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// VariantDTO is one color of a product.
type VariantDTO struct {
	ID        uuid.UUID `json:"id"`
	Color     string    `json:"color"`
	ColorCode *string   `json:"color_code,omitempty"`
	Sizes     []SizeDTO `json:"sizes"`
}

// SizeDTO is one stock entry of a variant.
type SizeDTO struct {
	ID                   uuid.UUID `json:"id"`
	Size                 string    `json:"size"`
	Stock                int       `json:"stock"`
	PriceAdjustmentCents int       `json:"price_adjustment_cents"`
}

// RatingDTO exposes the stored rating aggregate.
type RatingDTO struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:                 product.ID,
		SKU:                product.SKU,
		Slug:               product.Slug,
		Name:               product.Name,
		Description:        product.Description,
		Category:           string(product.Category),
		Brand:              product.Brand,
		Gender:             string(product.Gender),
		BasePriceCents:     product.BasePriceCents,
		SalePriceCents:     product.SalePriceCents,
		CurrentPriceCents:  product.CurrentPriceCents(),
		DiscountPercentage: product.DiscountPercentage(),
		Currency:           string(product.Currency),
		Images:             append([]types.ProductImage{}, product.Images...),
		PrimaryImage:       product.Images.Primary(),
		Variants:           make([]VariantDTO, 0, len(product.Variants)),
		TotalStock:         product.TotalStock(),
		Tags:               append([]string{}, product.Tags...),
		Materials:          append([]string{}, product.Materials...),
		IsActive:           product.IsActive,
		IsFeatured:         product.IsFeatured,
		IsNew:              product.IsNew,
		Rating:             RatingDTO{Average: product.RatingAverage, Count: product.RatingCount},
		ViewCount:          product.ViewCount,
		SalesCount:         product.SalesCount,
		CreatedAt:          product.CreatedAt,
		UpdatedAt:          product.UpdatedAt,
	}
	for _, variant := range product.Variants {
		v := VariantDTO{
			ID:        variant.ID,
			Color:     variant.Color,
			ColorCode: variant.ColorCode,
			Sizes:     make([]SizeDTO, 0, len(variant.Sizes)),
		}
		for _, size := range variant.Sizes {
			v.Sizes = append(v.Sizes, SizeDTO{
				ID:                   size.ID,
				Size:                 string(size.Size),
				Stock:                size.Stock,
				PriceAdjustmentCents: size.PriceAdjustmentCents,
			})
		}
		dto.Variants = append(dto.Variants, v)
	}
	return dto
}
