package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 2000
	defaultShowcaseLimit = 8
)

// Service exposes catalog reads, admin product management, and stock/rating mutations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) (*ProductDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	FeaturedProducts(ctx context.Context, limit int) ([]ProductDTO, error)
	NewArrivals(ctx context.Context, limit int) ([]ProductDTO, error)
	RecordView(ctx context.Context, productID uuid.UUID) error
	AvailableSizes(ctx context.Context, productID uuid.UUID, color string) ([]SizeAvailability, error)
	Stock(ctx context.Context, productID uuid.UUID, color string, size enums.Size) (int, error)
	UpdateStock(ctx context.Context, productID uuid.UUID, color string, size enums.Size, delta int) (*StockLevel, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU            string
	Name           string
	Description    string
	Category       enums.ProductCategory
	Brand          string
	Gender         enums.Gender
	BasePriceCents int
	SalePriceCents *int
	Currency       enums.Currency
	Images         []types.ProductImage
	Variants       []VariantInput
	Tags           []string
	Materials      []string
	IsActive       *bool
	IsFeatured     bool
	IsNew          bool
}

// VariantInput describes one color and its size matrix.
type VariantInput struct {
	Color     string
	ColorCode *string
	Sizes     []SizeInput
}

// SizeInput is one (size, stock, adjustment) entry.
type SizeInput struct {
	Size                 enums.Size
	Stock                int
	PriceAdjustmentCents int
}

// UpdateProductInput holds optional mutation values. SKU and slug are immutable.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Category       *enums.ProductCategory
	Brand          *string
	Gender         *enums.Gender
	BasePriceCents *int
	SalePriceCents *int
	ClearSalePrice bool
	Currency       *enums.Currency
	Images         *[]types.ProductImage
	Tags           *[]string
	Materials      *[]string
	IsActive       *bool
	IsFeatured     *bool
	IsNew          *bool
}

// StockLevel reports the stock of one variant size after a change.
type StockLevel struct {
	ProductID uuid.UUID  `json:"product_id"`
	Color     string     `json:"color"`
	Size      enums.Size `json:"size"`
	Stock     int        `json:"stock"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	cache    *Cache
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a product service instance. cache may be nil.
func NewService(repo *Repository, dbClient *db.Client, cache *Cache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		cache:    cache,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// CreateProduct validates the matrix and inserts the product with a fresh slug.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &models.Product{
		SKU:            strings.TrimSpace(input.SKU),
		Slug:           NewSlug(input.Name, s.now()),
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		Category:       input.Category,
		Brand:          strings.TrimSpace(input.Brand),
		Gender:         input.Gender,
		BasePriceCents: input.BasePriceCents,
		SalePriceCents: input.SalePriceCents,
		Currency:       currency,
		Images:         types.ProductImages(input.Images),
		Tags:           types.StringList(cleanList(input.Tags)),
		Materials:      types.StringList(cleanList(input.Materials)),
		IsActive:       isActive,
		IsFeatured:     input.IsFeatured,
		IsNew:          input.IsNew,
	}
	for i, variant := range input.Variants {
		row := models.ProductVariant{
			ID:        uuid.New(),
			Color:     strings.TrimSpace(variant.Color),
			ColorKey:  models.ColorKey(variant.Color),
			ColorCode: variant.ColorCode,
			Position:  i,
		}
		for _, size := range variant.Sizes {
			row.Sizes = append(row.Sizes, models.VariantSize{
				Size:                 size.Size,
				Stock:                size.Stock,
				PriceAdjustmentCents: size.PriceAdjustmentCents,
			})
		}
		product.Variants = append(product.Variants, row)
	}
	product.ID = uuid.New()
	for i := range product.Variants {
		for j := range product.Variants[i].Sizes {
			product.Variants[i].Sizes[j].ProductID = product.ID
		}
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, product)
	}); err != nil {
		if db.IsUniqueViolation(err, "ux_products_sku", "products.sku") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "sku already exists")
		}
		if db.IsUniqueViolation(err, "ux_products_slug", "products.slug") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	created, err := s.repo.FindByID(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"product_id": created.ID.String(), "sku": created.SKU}), "product created")
	return NewProductDTO(created), nil
}

// UpdateProduct applies the non-identity changes and drops the cached copy.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	current, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	updates, err := buildUpdates(current, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFields(ctx, productID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.cache.Invalidate(ctx, productID)

	updated, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

// DeactivateProduct hides the product from the catalog. Products are never physically deleted.
func (s *service) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.UpdateFields(ctx, productID, map[string]any{"is_active": false}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	s.cache.Invalidate(ctx, productID)
	s.logg.Info(s.logg.WithField(ctx, "product_id", productID.String()), "product deactivated")
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	product, err := s.cachedProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.Sort != "" && !input.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
	}
	f := input.Filters
	if f.PriceMinCents != nil && f.PriceMaxCents != nil && *f.PriceMinCents > *f.PriceMaxCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_min_cents cannot exceed price_max_cents")
	}
	rows, total, err := s.repo.List(ctx, f, input.Sort, input.Page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	result := &ProductListResult{
		Products: make([]ProductDTO, 0, len(rows)),
		Page:     pagination.NewPageInfo(input.Page, total),
	}
	for i := range rows {
		result.Products = append(result.Products, *NewProductDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) FeaturedProducts(ctx context.Context, limit int) ([]ProductDTO, error) {
	featured := true
	return s.showcase(ctx, ProductListFilters{Featured: &featured}, limit)
}

func (s *service) NewArrivals(ctx context.Context, limit int) ([]ProductDTO, error) {
	isNew := true
	return s.showcase(ctx, ProductListFilters{IsNew: &isNew}, limit)
}

func (s *service) showcase(ctx context.Context, filters ProductListFilters, limit int) ([]ProductDTO, error) {
	if limit <= 0 {
		limit = defaultShowcaseLimit
	}
	result, err := s.ListProducts(ctx, ListProductsInput{
		Filters: filters,
		Sort:    enums.ProductSortNewest,
		Page:    pagination.PageParams{Page: 1, Limit: limit},
	})
	if err != nil {
		return nil, err
	}
	return result.Products, nil
}

// RecordView increments the view counter. The cached copy is left alone; view counts may lag.
func (s *service) RecordView(ctx context.Context, productID uuid.UUID) error {
	affected, err := s.repo.IncrementViewCount(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment view count")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) AvailableSizes(ctx context.Context, productID uuid.UUID, color string) ([]SizeAvailability, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return AvailableSizes(*product, color), nil
}

func (s *service) Stock(ctx context.Context, productID uuid.UUID, color string, size enums.Size) (int, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return StockFor(*product, color, size), nil
}

// UpdateStock applies an admin stock delta (positive restocks, negative consumes).
func (s *service) UpdateStock(ctx context.Context, productID uuid.UUID, color string, size enums.Size, delta int) (*StockLevel, error) {
	entry, err := AdjustStock(ctx, s.repo, productID, color, size, delta)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productID)
	return &StockLevel{
		ProductID: productID,
		Color:     strings.TrimSpace(color),
		Size:      entry.Size,
		Stock:     entry.Stock,
	}, nil
}

func (s *service) cachedProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if cached, ok := s.cache.Get(ctx, productID); ok {
		return cached, nil
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, product)
	return product, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateCreate(input CreateProductInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if err := validateName(input.Name); err != nil {
		return err
	}
	if len(input.Description) > maxDescriptionLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "description cannot exceed 2000 characters")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if strings.TrimSpace(input.Brand) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}
	if !input.Gender.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
	}
	if input.Currency != "" && !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if err := validatePricing(input.BasePriceCents, input.SalePriceCents); err != nil {
		return err
	}
	return validateVariants(input.Variants)
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(trimmed) > maxNameLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "name cannot exceed 100 characters")
	}
	return nil
}

func validatePricing(base int, sale *int) error {
	if base < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "base_price_cents must be >= 0")
	}
	if sale != nil {
		if *sale < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale_price_cents must be >= 0")
		}
		if *sale >= base {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale_price_cents must be below base_price_cents")
		}
	}
	return nil
}

func validateVariants(variants []VariantInput) error {
	seenColors := map[string]struct{}{}
	for _, variant := range variants {
		key := models.ColorKey(variant.Color)
		if key == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant color is required")
		}
		if _, dup := seenColors[key]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate variant color %q", variant.Color))
		}
		seenColors[key] = struct{}{}

		seenSizes := map[enums.Size]struct{}{}
		for _, size := range variant.Sizes {
			if !size.Size.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid size %q", size.Size))
			}
			if _, dup := seenSizes[size.Size]; dup {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate size %s for color %q", size.Size, variant.Color))
			}
			seenSizes[size.Size] = struct{}{}
			if size.Stock < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "stock must be >= 0")
			}
		}
	}
	return nil
}

func buildUpdates(current *models.Product, input UpdateProductInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if err := validateName(*input.Name); err != nil {
			return nil, err
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		if len(*input.Description) > maxDescriptionLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description cannot exceed 2000 characters")
		}
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		updates["category"] = *input.Category
	}
	if input.Brand != nil {
		if strings.TrimSpace(*input.Brand) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
		}
		updates["brand"] = strings.TrimSpace(*input.Brand)
	}
	if input.Gender != nil {
		if !input.Gender.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
		}
		updates["gender"] = *input.Gender
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		updates["currency"] = *input.Currency
	}

	base := current.BasePriceCents
	if input.BasePriceCents != nil {
		base = *input.BasePriceCents
		updates["base_price_cents"] = base
	}
	sale := current.SalePriceCents
	switch {
	case input.ClearSalePrice:
		sale = nil
		updates["sale_price_cents"] = nil
	case input.SalePriceCents != nil:
		sale = input.SalePriceCents
		updates["sale_price_cents"] = *sale
	}
	if err := validatePricing(base, sale); err != nil {
		return nil, err
	}

	if input.Images != nil {
		raw, err := json.Marshal(types.ProductImages(*input.Images))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode images")
		}
		updates["images"] = string(raw)
	}
	if input.Tags != nil {
		updates["tags"] = types.StringList(cleanList(*input.Tags))
	}
	if input.Materials != nil {
		updates["materials"] = types.StringList(cleanList(*input.Materials))
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if input.IsNew != nil {
		updates["is_new"] = *input.IsNew
	}
	return updates, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
