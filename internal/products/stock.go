package product

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SizeAvailability is an in-stock size with its effective unit price.
type SizeAvailability struct {
	Size       enums.Size `json:"size"`
	Stock      int        `json:"stock"`
	PriceCents int        `json:"price_cents"`
}

// AvailableSizes lists every size of the color with stock > 0. Colors match
// case-insensitively; an unknown color yields an empty list.
func AvailableSizes(p models.Product, color string) []SizeAvailability {
	variant := p.FindVariant(color)
	if variant == nil {
		return []SizeAvailability{}
	}
	current := p.CurrentPriceCents()
	out := make([]SizeAvailability, 0, len(variant.Sizes))
	for _, size := range variant.Sizes {
		if size.Stock <= 0 {
			continue
		}
		out = append(out, SizeAvailability{
			Size:       size.Size,
			Stock:      size.Stock,
			PriceCents: current + size.PriceAdjustmentCents,
		})
	}
	return out
}

// StockFor returns the stock of a color/size pair, or 0 when either is unknown.
func StockFor(p models.Product, color string, size enums.Size) int {
	variant := p.FindVariant(color)
	if variant == nil {
		return 0
	}
	entry := variant.FindSize(size)
	if entry == nil {
		return 0
	}
	return entry.Stock
}

// UnitPriceFor returns currentPrice plus the size adjustment for a color/size pair.
func UnitPriceFor(p models.Product, color string, size enums.Size) (int, bool) {
	variant := p.FindVariant(color)
	if variant == nil {
		return 0, false
	}
	entry := variant.FindSize(size)
	if entry == nil {
		return 0, false
	}
	return p.CurrentPriceCents() + entry.PriceAdjustmentCents, true
}

// AdjustStock applies delta to one variant size with a single conditional update.
// Unknown color/size maps to NOT_FOUND; a delta that would push stock below zero
// maps to INSUFFICIENT_STOCK and leaves the row untouched.
func AdjustStock(ctx context.Context, repo *Repository, productID uuid.UUID, color string, size enums.Size, delta int) (*models.VariantSize, error) {
	entry, err := repo.FindVariantSize(ctx, productID, color, size)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"product_id": productID, "color": strings.TrimSpace(color), "size": size})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant size")
	}
	if delta == 0 {
		return entry, nil
	}

	affected, err := repo.ApplyStockDelta(ctx, entry.ID, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID, "color": strings.TrimSpace(color), "size": size, "requested": -delta})
	}
	updated, err := repo.FindVariantSizeByID(ctx, entry.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload variant size")
	}
	return updated, nil
}
