package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const showcaseMaxLimit = 50

// ProductList serves the public catalog with filters, sort and offset pagination.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		input, err := parseProductListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseProductListInput(r *http.Request) (productsvc.ListProductsInput, error) {
	page, err := parsePageParams(r)
	if err != nil {
		return productsvc.ListProductsInput{}, err
	}
	q := r.URL.Query()
	filters := productsvc.ProductListFilters{
		Brand: strings.TrimSpace(q.Get("brand")),
		Query: strings.TrimSpace(q.Get("q")),
	}
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category, err := enums.ParseProductCategory(raw)
		if err != nil {
			return productsvc.ListProductsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		filters.Category = &category
	}
	if raw := strings.TrimSpace(q.Get("gender")); raw != "" {
		gender, err := enums.ParseGender(raw)
		if err != nil {
			return productsvc.ListProductsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender")
		}
		filters.Gender = &gender
	}
	if filters.PriceMinCents, err = validators.ParseQueryOptionalInt(r, "min_price", 0, 1<<31-1); err != nil {
		return productsvc.ListProductsInput{}, err
	}
	if filters.PriceMaxCents, err = validators.ParseQueryOptionalInt(r, "max_price", 0, 1<<31-1); err != nil {
		return productsvc.ListProductsInput{}, err
	}
	for key, dest := range map[string]**bool{"featured": &filters.Featured, "is_new": &filters.IsNew, "on_sale": &filters.OnSale} {
		if strings.TrimSpace(q.Get(key)) == "" {
			continue
		}
		value, err := validators.ParseQueryBool(r, key, false)
		if err != nil {
			return productsvc.ListProductsInput{}, err
		}
		*dest = &value
	}

	var sort enums.ProductSort
	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		parsed, err := enums.ParseProductSort(raw)
		if err != nil {
			return productsvc.ListProductsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
		}
		sort = parsed
	}
	return productsvc.ListProductsInput{Filters: filters, Sort: sort, Page: page}, nil
}

// ProductFeatured returns the newest featured products.
func ProductFeatured(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productShowcase(logg, func(ctx context.Context, limit int) ([]productsvc.ProductDTO, error) {
		return svc.FeaturedProducts(ctx, limit)
	})
}

// ProductNewArrivals returns the newest products flagged as new.
func ProductNewArrivals(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productShowcase(logg, func(ctx context.Context, limit int) ([]productsvc.ProductDTO, error) {
		return svc.NewArrivals(ctx, limit)
	})
}

func productShowcase(logg *logger.Logger, fetch func(ctx context.Context, limit int) ([]productsvc.ProductDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 8, 1, showcaseMaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := fetch(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// ProductGet returns an active product. Admins may read inactive ones.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeInactive := isAdminRequest(r)

		product, err := svc.GetProduct(r.Context(), productID, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductGetBySlug resolves an active product by slug.
func ProductGetBySlug(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}
		product, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductRecordView bumps the view counter.
func ProductRecordView(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RecordView(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProductSizes lists in-stock sizes of one color.
func ProductSizes(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		color := strings.TrimSpace(r.URL.Query().Get("color"))
		if color == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "color is required"))
			return
		}
		sizes, err := svc.AvailableSizes(r.Context(), productID, color)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sizes)
	}
}

// ProductStock reports the stock of one variant size. Unknown variants report zero.
func ProductStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		color := strings.TrimSpace(r.URL.Query().Get("color"))
		size, err := enums.ParseSize(strings.TrimSpace(r.URL.Query().Get("size")))
		if err != nil || color == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "color and size are required"))
			return
		}
		stock, err := svc.Stock(r.Context(), productID, color, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productsvc.StockLevel{ProductID: productID, Color: color, Size: size, Stock: stock})
	}
}

// AdminProductCreate creates a product with its variant matrix.
func AdminProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type createProductRequest struct {
	SKU            string               `json:"sku" validate:"required,max=64"`
	Name           string               `json:"name" validate:"required,max=100"`
	Description    string               `json:"description" validate:"required,max=2000"`
	Category       string               `json:"category" validate:"required"`
	Brand          string               `json:"brand" validate:"required"`
	Gender         string               `json:"gender" validate:"required"`
	BasePriceCents int                  `json:"base_price_cents" validate:"min=0"`
	SalePriceCents *int                 `json:"sale_price_cents,omitempty" validate:"omitempty,min=0"`
	Currency       string               `json:"currency,omitempty"`
	Images         []types.ProductImage `json:"images,omitempty" validate:"omitempty,dive"`
	Variants       []variantRequest     `json:"variants" validate:"required,min=1,dive"`
	Tags           []string             `json:"tags,omitempty"`
	Materials      []string             `json:"materials,omitempty"`
	IsActive       *bool                `json:"is_active,omitempty"`
	IsFeatured     bool                 `json:"is_featured"`
	IsNew          bool                 `json:"is_new"`
}

type variantRequest struct {
	Color     string        `json:"color" validate:"required"`
	ColorCode *string       `json:"color_code,omitempty"`
	Sizes     []sizeRequest `json:"sizes" validate:"required,min=1,dive"`
}

type sizeRequest struct {
	Size                 string `json:"size" validate:"required"`
	Stock                int    `json:"stock" validate:"min=0"`
	PriceAdjustmentCents int    `json:"price_adjustment_cents"`
}

func (p createProductRequest) toInput() (productsvc.CreateProductInput, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(p.Category))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	gender, err := enums.ParseGender(strings.TrimSpace(p.Gender))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender")
	}
	currency := enums.CurrencyUSD
	if raw := strings.TrimSpace(p.Currency); raw != "" {
		if currency, err = enums.ParseCurrency(raw); err != nil {
			return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
	}
	variants, err := parseVariants(p.Variants)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}
	return productsvc.CreateProductInput{
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		Category:       category,
		Brand:          p.Brand,
		Gender:         gender,
		BasePriceCents: p.BasePriceCents,
		SalePriceCents: p.SalePriceCents,
		Currency:       currency,
		Images:         p.Images,
		Variants:       variants,
		Tags:           p.Tags,
		Materials:      p.Materials,
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		IsNew:          p.IsNew,
	}, nil
}

func parseVariants(in []variantRequest) ([]productsvc.VariantInput, error) {
	out := make([]productsvc.VariantInput, 0, len(in))
	for _, v := range in {
		variant := productsvc.VariantInput{Color: v.Color, ColorCode: v.ColorCode, Sizes: make([]productsvc.SizeInput, 0, len(v.Sizes))}
		for _, s := range v.Sizes {
			size, err := enums.ParseSize(strings.TrimSpace(s.Size))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size").WithDetails(map[string]any{"color": v.Color, "size": s.Size})
			}
			variant.Sizes = append(variant.Sizes, productsvc.SizeInput{Size: size, Stock: s.Stock, PriceAdjustmentCents: s.PriceAdjustmentCents})
		}
		out = append(out, variant)
	}
	return out, nil
}

// AdminProductUpdate patches non-identity fields.
func AdminProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	Name           *string               `json:"name,omitempty" validate:"omitempty,max=100"`
	Description    *string               `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category       *string               `json:"category,omitempty"`
	Brand          *string               `json:"brand,omitempty"`
	Gender         *string               `json:"gender,omitempty"`
	BasePriceCents *int                  `json:"base_price_cents,omitempty" validate:"omitempty,min=0"`
	SalePriceCents *int                  `json:"sale_price_cents,omitempty" validate:"omitempty,min=0"`
	ClearSalePrice bool                  `json:"clear_sale_price"`
	Currency       *string               `json:"currency,omitempty"`
	Images         *[]types.ProductImage `json:"images,omitempty"`
	Tags           *[]string             `json:"tags,omitempty"`
	Materials      *[]string             `json:"materials,omitempty"`
	IsActive       *bool                 `json:"is_active,omitempty"`
	IsFeatured     *bool                 `json:"is_featured,omitempty"`
	IsNew          *bool                 `json:"is_new,omitempty"`
}

func (p updateProductRequest) toInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Name:           p.Name,
		Description:    p.Description,
		Brand:          p.Brand,
		BasePriceCents: p.BasePriceCents,
		SalePriceCents: p.SalePriceCents,
		ClearSalePrice: p.ClearSalePrice,
		Images:         p.Images,
		Tags:           p.Tags,
		Materials:      p.Materials,
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		IsNew:          p.IsNew,
	}
	if p.Category != nil {
		category, err := enums.ParseProductCategory(strings.TrimSpace(*p.Category))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	if p.Gender != nil {
		gender, err := enums.ParseGender(strings.TrimSpace(*p.Gender))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender")
		}
		input.Gender = &gender
	}
	if p.Currency != nil {
		currency, err := enums.ParseCurrency(strings.TrimSpace(*p.Currency))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		input.Currency = &currency
	}
	return input, nil
}

// AdminProductDeactivate hides a product from the catalog.
func AdminProductDeactivate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeactivateProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type stockAdjustmentRequest struct {
	Color string `json:"color" validate:"required"`
	Size  string `json:"size" validate:"required"`
	Delta int    `json:"delta" validate:"required"`
}

// AdminProductAdjustStock applies a signed stock delta to one variant size.
func AdminProductAdjustStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := enums.ParseSize(strings.TrimSpace(payload.Size))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size"))
			return
		}
		level, err := svc.UpdateStock(r.Context(), productID, payload.Color, size, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, level)
	}
}
