package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Product is a catalog entry. Stock lives on VariantSize rows.
type Product struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SKU            string                `gorm:"column:sku;not null;uniqueIndex:ux_products_sku"`
	Slug           string                `gorm:"column:slug;not null;uniqueIndex:ux_products_slug"`
	Name           string                `gorm:"column:name;not null"`
	Description    string                `gorm:"column:description;not null"`
	Category       enums.ProductCategory `gorm:"column:category;type:text;not null;index:ix_products_category"`
	Brand          string                `gorm:"column:brand;not null;index:ix_products_brand"`
	Gender         enums.Gender          `gorm:"column:gender;type:text;not null"`
	BasePriceCents int                   `gorm:"column:base_price_cents;not null"`
	SalePriceCents *int                  `gorm:"column:sale_price_cents"`
	Currency       enums.Currency        `gorm:"column:currency;type:text;not null"`
	Images         types.ProductImages   `gorm:"column:images;type:jsonb;serializer:json"`
	Tags           types.StringList      `gorm:"column:tags;type:jsonb"`
	Materials      types.StringList      `gorm:"column:materials;type:jsonb"`
	IsActive       bool                  `gorm:"column:is_active;not null"`
	IsFeatured     bool                  `gorm:"column:is_featured;not null"`
	IsNew          bool                  `gorm:"column:is_new;not null"`
	RatingAverage  float64               `gorm:"column:rating_average;not null;default:0"`
	RatingCount    int                   `gorm:"column:rating_count;not null;default:0"`
	ViewCount      int64                 `gorm:"column:view_count;not null;default:0"`
	SalesCount     int64                 `gorm:"column:sales_count;not null;default:0"`
	Variants       []ProductVariant      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CurrentPriceCents is the sale price when set, otherwise the base price.
func (p Product) CurrentPriceCents() int {
	if p.SalePriceCents != nil {
		return *p.SalePriceCents
	}
	return p.BasePriceCents
}

// DiscountPercentage is the rounded sale discount relative to the base price.
func (p Product) DiscountPercentage() int {
	if p.SalePriceCents == nil || p.BasePriceCents <= 0 {
		return 0
	}
	off := p.BasePriceCents - *p.SalePriceCents
	return (off*100 + p.BasePriceCents/2) / p.BasePriceCents
}

// TotalStock sums every size entry across all loaded variants.
func (p Product) TotalStock() int {
	total := 0
	for _, variant := range p.Variants {
		for _, size := range variant.Sizes {
			total += size.Stock
		}
	}
	return total
}

// FindVariant matches a color case-insensitively.
func (p Product) FindVariant(color string) *ProductVariant {
	key := ColorKey(color)
	for i := range p.Variants {
		if p.Variants[i].ColorKey == key {
			return &p.Variants[i]
		}
	}
	return nil
}

// ProductVariant is the color-specific stock unit of a product.
type ProductVariant struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID     `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_variants_color,priority:1"`
	Color     string        `gorm:"column:color;not null"`
	ColorKey  string        `gorm:"column:color_key;not null;uniqueIndex:ux_product_variants_color,priority:2"`
	ColorCode *string       `gorm:"column:color_code"`
	Position  int           `gorm:"column:position;not null;default:0"`
	Sizes     []VariantSize `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// FindSize returns the entry for an exact size label.
func (v ProductVariant) FindSize(size enums.Size) *VariantSize {
	for i := range v.Sizes {
		if v.Sizes[i].Size == size {
			return &v.Sizes[i]
		}
	}
	return nil
}

// VariantSize holds stock and the price adjustment for one size of a variant.
type VariantSize struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	VariantID            uuid.UUID  `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:ux_variant_sizes_size,priority:1"`
	ProductID            uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index:ix_variant_sizes_product"`
	Size                 enums.Size `gorm:"column:size;type:text;not null;uniqueIndex:ux_variant_sizes_size,priority:2"`
	Stock                int        `gorm:"column:stock;not null;default:0;check:ck_variant_sizes_stock,stock >= 0"`
	PriceAdjustmentCents int        `gorm:"column:price_adjustment_cents;not null;default:0"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a primary key when the caller did not.
func (v *VariantSize) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// ColorKey normalizes a color for case-insensitive matching.
func ColorKey(color string) string {
	return strings.ToLower(strings.TrimSpace(color))
}
