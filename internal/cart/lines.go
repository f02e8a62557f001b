package cart

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 10

func capQuantity(quantity int) int {
	if quantity > MaxLineQuantity {
		return MaxLineQuantity
	}
	return quantity
}

// FindLine returns the line matching the (product, color, size) identity.
func FindLine(cart *models.Cart, productID uuid.UUID, color string, size enums.Size) *models.CartItem {
	key := models.ColorKey(color)
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID == productID && item.Size == size && models.ColorKey(item.Color) == key {
			return item
		}
	}
	return nil
}

// AddLine merges the line into the cart or appends it. Quantities are capped at
// MaxLineQuantity and the unit price is refreshed from the incoming line.
// It returns the affected line and whether it was newly appended.
func AddLine(cart *models.Cart, line models.CartItem) (*models.CartItem, bool) {
	if existing := FindLine(cart, line.ProductID, line.Color, line.Size); existing != nil {
		existing.Quantity = capQuantity(existing.Quantity + line.Quantity)
		existing.UnitPriceCents = line.UnitPriceCents
		existing.TotalPriceCents = existing.Quantity * existing.UnitPriceCents
		Recalculate(cart)
		return existing, false
	}

	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	line.CartID = cart.ID
	line.Quantity = capQuantity(line.Quantity)
	line.TotalPriceCents = line.Quantity * line.UnitPriceCents
	cart.Items = append(cart.Items, line)
	Recalculate(cart)
	return &cart.Items[len(cart.Items)-1], true
}

// SetLineQuantity updates a line's quantity; zero or less removes the line.
// It reports whether the line was removed.
func SetLineQuantity(cart *models.Cart, lineID uuid.UUID, quantity int) (*models.CartItem, bool, error) {
	idx := lineIndex(cart, lineID)
	if idx < 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if quantity <= 0 {
		removeAt(cart, idx)
		return nil, true, nil
	}
	item := &cart.Items[idx]
	item.Quantity = capQuantity(quantity)
	item.TotalPriceCents = item.Quantity * item.UnitPriceCents
	Recalculate(cart)
	return item, false, nil
}

// RemoveLine drops a line from the cart.
func RemoveLine(cart *models.Cart, lineID uuid.UUID) error {
	idx := lineIndex(cart, lineID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	removeAt(cart, idx)
	return nil
}

// ClearLines empties the cart in memory.
func ClearLines(cart *models.Cart) {
	cart.Items = nil
	Recalculate(cart)
}

// Recalculate derives subtotal and item count from the lines.
func Recalculate(cart *models.Cart) {
	subtotal, count := 0, 0
	for _, item := range cart.Items {
		subtotal += item.TotalPriceCents
		count += item.Quantity
	}
	cart.SubtotalCents = subtotal
	cart.ItemCount = count
	cart.LastUpdated = time.Now().UTC()
}

func lineIndex(cart *models.Cart, lineID uuid.UUID) int {
	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			return i
		}
	}
	return -1
}

func removeAt(cart *models.Cart, idx int) {
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	Recalculate(cart)
}
