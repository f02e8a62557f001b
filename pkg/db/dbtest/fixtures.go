package dbtest

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// ProductFixture describes a single-color product seeded for tests.
type ProductFixture struct {
	SKU            string
	Name           string
	Brand          string
	Category       enums.ProductCategory
	Gender         enums.Gender
	BasePriceCents int
	SalePriceCents *int
	Color          string
	Stock          map[enums.Size]int
	Adjustments    map[enums.Size]int
	Featured       bool
	New            bool
	Inactive       bool
}

// SeedProduct inserts the fixture and returns it with variants and sizes loaded.
func SeedProduct(t *testing.T, client *db.Client, f ProductFixture) *models.Product {
	t.Helper()

	id := uuid.New()
	if f.SKU == "" {
		f.SKU = "SKU-" + id.String()[:8]
	}
	if f.Name == "" {
		f.Name = "Test Tee"
	}
	if f.Brand == "" {
		f.Brand = "Acme"
	}
	if f.Category == "" {
		f.Category = enums.CategoryShirts
	}
	if f.Gender == "" {
		f.Gender = enums.GenderUnisex
	}
	if f.BasePriceCents == 0 {
		f.BasePriceCents = 2000
	}
	if f.Color == "" {
		f.Color = "Black"
	}
	if f.Stock == nil {
		f.Stock = map[enums.Size]int{enums.SizeM: 10}
	}

	sizes := make([]enums.Size, 0, len(f.Stock))
	for size := range f.Stock {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	variant := models.ProductVariant{ID: uuid.New(), Color: f.Color, ColorKey: models.ColorKey(f.Color)}
	for _, size := range sizes {
		variant.Sizes = append(variant.Sizes, models.VariantSize{
			ProductID:            id,
			Size:                 size,
			Stock:                f.Stock[size],
			PriceAdjustmentCents: f.Adjustments[size],
		})
	}

	product := &models.Product{
		ID:             id,
		SKU:            f.SKU,
		Slug:           fmt.Sprintf("%s-%s", "test", id.String()),
		Name:           f.Name,
		Description:    "fixture",
		Category:       f.Category,
		Brand:          f.Brand,
		Gender:         f.Gender,
		BasePriceCents: f.BasePriceCents,
		SalePriceCents: f.SalePriceCents,
		Currency:       enums.CurrencyUSD,
		IsActive:       true,
		IsFeatured:     f.Featured,
		IsNew:          f.New,
		Variants:       []models.ProductVariant{variant},
	}
	ctx := context.Background()
	if err := client.DB().WithContext(ctx).Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if f.Inactive {
		if err := client.DB().WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate product: %v", err)
		}
	}

	var loaded models.Product
	if err := client.DB().WithContext(ctx).Preload("Variants.Sizes").First(&loaded, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &loaded
}

// StockOf reads the current stock of a size entry of the product's first variant.
func StockOf(t *testing.T, client *db.Client, productID uuid.UUID, size enums.Size) int {
	t.Helper()
	var entry models.VariantSize
	if err := client.DB().Where("product_id = ? AND size = ?", productID, size).First(&entry).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return entry.Stock
}

// ProductRow reloads the product row without associations.
func ProductRow(t *testing.T, client *db.Client, productID uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	if err := client.DB().First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
