package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the per-user cart operations.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	MergeGuestCart(ctx context.Context, userID uuid.UUID, items []AddItemInput) (*CartDTO, error)
}

// AddItemInput identifies the product line to add.
type AddItemInput struct {
	ProductID uuid.UUID
	Color     string
	Size      enums.Size
	Quantity  int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, products: products, logg: logg}, nil
}

// GetCart returns the user's cart, creating it on first access.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCartDTO(cart), nil
}

// AddItem prices the line from the live product and merges it into the cart.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	line, err := PriceLine(product, input)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(repo CartRepository, cart *models.Cart) error {
		return addAndPersist(ctx, repo, cart, line)
	})
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	return s.mutate(ctx, userID, func(repo CartRepository, cart *models.Cart) error {
		item, removed, err := SetLineQuantity(cart, itemID, quantity)
		if err != nil {
			return err
		}
		if removed {
			return repo.DeleteItem(ctx, cart.ID, itemID)
		}
		return repo.UpdateItem(ctx, item)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	return s.mutate(ctx, userID, func(repo CartRepository, cart *models.Cart) error {
		if err := RemoveLine(cart, itemID); err != nil {
			return err
		}
		return repo.DeleteItem(ctx, cart.ID, itemID)
	})
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	return s.mutate(ctx, userID, func(repo CartRepository, cart *models.Cart) error {
		ClearLines(cart)
		return repo.DeleteItems(ctx, cart.ID)
	})
}

// MergeGuestCart applies every guest line to the user's cart with normal add
// semantics. The merge is all-or-nothing.
func (s *service) MergeGuestCart(ctx context.Context, userID uuid.UUID, items []AddItemInput) (*CartDTO, error) {
	if len(items) == 0 {
		return s.GetCart(ctx, userID)
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	lines := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		line, err := PriceLine(product, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	dto, err := s.mutate(ctx, userID, func(repo CartRepository, cart *models.Cart) error {
		for _, line := range lines {
			if err := addAndPersist(ctx, repo, cart, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "lines": len(lines)}), "guest cart merged")
	return dto, nil
}

// PriceLine builds a cart line priced at currentPrice plus the size adjustment.
func PriceLine(product *models.Product, input AddItemInput) (models.CartItem, error) {
	if input.Quantity < 1 {
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if product == nil || !product.IsActive {
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	variant := product.FindVariant(input.Color)
	if variant == nil {
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
			WithDetails(map[string]any{"color": strings.TrimSpace(input.Color)})
	}
	entry := variant.FindSize(input.Size)
	if entry == nil {
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "size not found").
			WithDetails(map[string]any{"color": variant.Color, "size": input.Size})
	}
	return models.CartItem{
		ProductID:      product.ID,
		Color:          variant.Color,
		Size:           entry.Size,
		Quantity:       input.Quantity,
		UnitPriceCents: product.CurrentPriceCents() + entry.PriceAdjustmentCents,
	}, nil
}

// Clear empties a loaded cart inside the caller's transaction.
func Clear(ctx context.Context, repo CartRepository, cart *models.Cart) error {
	ClearLines(cart)
	if err := repo.DeleteItems(ctx, cart.ID); err != nil {
		return err
	}
	return repo.UpdateTotals(ctx, cart)
}

func addAndPersist(ctx context.Context, repo CartRepository, cart *models.Cart, line models.CartItem) error {
	item, created := AddLine(cart, line)
	if created {
		return repo.InsertItem(ctx, item)
	}
	return repo.UpdateItem(ctx, item)
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(repo CartRepository, cart *models.Cart) error) (*CartDTO, error) {
	if _, err := s.ensureCart(ctx, userID); err != nil {
		return nil, err
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(repo, cart); err != nil {
			return err
		}
		if err := repo.UpdateTotals(ctx, cart); err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart")
	}
	return NewCartDTO(result), nil
}

func (s *service) ensureCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart = &models.Cart{UserID: userID}
	Recalculate(cart)
	if err := s.repo.Create(ctx, cart); err != nil {
		if !db.IsUniqueViolation(err, "ux_carts_user", "carts.user_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		existing, findErr := s.repo.FindByUser(ctx, userID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load cart")
		}
		return existing, nil
	}
	return cart, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
