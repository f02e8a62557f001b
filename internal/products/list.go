package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Category      *enums.ProductCategory `json:"category,omitempty"`
	Gender        *enums.Gender          `json:"gender,omitempty"`
	Brand         string                 `json:"brand,omitempty"`
	PriceMinCents *int                   `json:"price_min_cents,omitempty"`
	PriceMaxCents *int                   `json:"price_max_cents,omitempty"`
	Featured      *bool                  `json:"featured,omitempty"`
	IsNew         *bool                  `json:"is_new,omitempty"`
	OnSale        *bool                  `json:"on_sale,omitempty"`
	Query         string                 `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter the public catalog.
type ListProductsInput struct {
	Filters ProductListFilters
	Sort    enums.ProductSort
	Page    pagination.PageParams
}

// ProductListResult is a page of catalog entries.
type ProductListResult struct {
	Products []ProductDTO         `json:"products"`
	Page     pagination.PageInfo `json:"page"`
}
