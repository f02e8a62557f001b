package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const currentPriceExpr = "COALESCE(products.sale_price_cents, products.base_price_cents)"

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the product together with its variants and sizes.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateFields writes the mutable catalog columns. Identity columns (sku, slug) are never touched.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads the product with its variant/size matrix.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.withMatrix(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product with its variant/size matrix.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.withMatrix(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads several products keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.withMatrix(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *Repository) withMatrix(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("created_at ASC")
		}).
		Preload("Variants.Sizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

// FindVariantSize resolves a (product, color, size) triple to its stock row.
func (r *Repository) FindVariantSize(ctx context.Context, productID uuid.UUID, color string, size enums.Size) (*models.VariantSize, error) {
	var entry models.VariantSize
	err := r.db.WithContext(ctx).
		Joins("JOIN product_variants pv ON pv.id = variant_sizes.variant_id").
		Where("pv.product_id = ? AND pv.color_key = ? AND variant_sizes.size = ?", productID, models.ColorKey(color), size).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindVariantSizeByID reloads a stock row.
func (r *Repository) FindVariantSizeByID(ctx context.Context, id uuid.UUID) (*models.VariantSize, error) {
	var entry models.VariantSize
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ApplyStockDelta adds delta to the stock row only when the result stays non-negative.
// It returns the number of rows changed: zero means the guard rejected the update.
func (r *Repository) ApplyStockDelta(ctx context.Context, variantSizeID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE variant_sizes SET stock = stock + ?, updated_at = ? WHERE id = ? AND stock + ? >= 0`,
		delta, time.Now().UTC(), variantSizeID, delta,
	)
	return res.RowsAffected, res.Error
}

// AdjustSalesCount moves the denormalized sales counter, never below zero.
func (r *Repository) AdjustSalesCount(ctx context.Context, productID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE products SET sales_count = CASE WHEN sales_count + ? < 0 THEN 0 ELSE sales_count + ? END WHERE id = ?`,
		delta, delta, productID,
	).Error
}

// AddRating folds one rating into the running average in a single statement.
func (r *Repository) AddRating(ctx context.Context, productID uuid.UUID, rating int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE products
		SET rating_average = (rating_average * rating_count + ?) / (rating_count + 1),
		    rating_count = rating_count + 1,
		    updated_at = ?
		WHERE id = ?`,
		float64(rating), time.Now().UTC(), productID,
	)
	return res.RowsAffected, res.Error
}

// RemoveRating backs one rating out of the running average; the last removal resets to zero.
func (r *Repository) RemoveRating(ctx context.Context, productID uuid.UUID, rating int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE products
		SET rating_average = CASE WHEN rating_count <= 1 THEN 0 ELSE (rating_average * rating_count - ?) / (rating_count - 1) END,
		    rating_count = CASE WHEN rating_count <= 1 THEN 0 ELSE rating_count - 1 END,
		    updated_at = ?
		WHERE id = ?`,
		float64(rating), time.Now().UTC(), productID,
	)
	return res.RowsAffected, res.Error
}

// IncrementViewCount bumps the view counter.
func (r *Repository) IncrementViewCount(ctx context.Context, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`UPDATE products SET view_count = view_count + 1 WHERE id = ?`, productID)
	return res.RowsAffected, res.Error
}

// List returns one page of active products matching the filters plus the total match count.
func (r *Repository) List(ctx context.Context, filters ProductListFilters, sort enums.ProductSort, page pagination.PageParams) ([]models.Product, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("products.is_active = ?", true)
	query = applyFilters(query, filters)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := query.
		Preload("Variants.Sizes").
		Order(orderClause(sort)).
		Order("products.id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListRatingAggregates streams id/average/count triples for reconciliation.
func (r *Repository) ListRatingAggregates(ctx context.Context, afterID *uuid.UUID, limit int) ([]RatingAggregate, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("id AS product_id, rating_average, rating_count").
		Order("id ASC").
		Limit(limit)
	if afterID != nil {
		query = query.Where("id > ?", *afterID)
	}
	var rows []RatingAggregate
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RatingAggregate is the stored rating summary of one product.
type RatingAggregate struct {
	ProductID     uuid.UUID
	RatingAverage float64
	RatingCount   int
}

func applyFilters(query *gorm.DB, f ProductListFilters) *gorm.DB {
	if f.Category != nil {
		query = query.Where("products.category = ?", *f.Category)
	}
	if f.Gender != nil {
		query = query.Where("products.gender = ?", *f.Gender)
	}
	if brand := strings.TrimSpace(f.Brand); brand != "" {
		query = query.Where("LOWER(products.brand) = ?", strings.ToLower(brand))
	}
	if f.PriceMinCents != nil {
		query = query.Where(currentPriceExpr+" >= ?", *f.PriceMinCents)
	}
	if f.PriceMaxCents != nil {
		query = query.Where(currentPriceExpr+" <= ?", *f.PriceMaxCents)
	}
	if f.Featured != nil {
		query = query.Where("products.is_featured = ?", *f.Featured)
	}
	if f.IsNew != nil {
		query = query.Where("products.is_new = ?", *f.IsNew)
	}
	if f.OnSale != nil {
		if *f.OnSale {
			query = query.Where("products.sale_price_cents IS NOT NULL")
		} else {
			query = query.Where("products.sale_price_cents IS NULL")
		}
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(q))
		query = query.Where(
			"LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.brand) LIKE ? OR LOWER(CAST(products.tags AS TEXT)) LIKE ?",
			like, like, like, like,
		)
	}
	return query
}

func orderClause(sort enums.ProductSort) string {
	switch sort {
	case enums.ProductSortPriceLow:
		return currentPriceExpr + " ASC"
	case enums.ProductSortPriceHigh:
		return currentPriceExpr + " DESC"
	case enums.ProductSortRating:
		return "products.rating_average DESC, products.rating_count DESC"
	case enums.ProductSortPopular:
		return "products.sales_count DESC"
	default:
		return "products.created_at DESC"
	}
}
