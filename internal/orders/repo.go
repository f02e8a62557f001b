package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists order reads and lifecycle writes.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads an order with items and its history in append order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.withDetail(ctx).First(&order, "orders.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID loads an order FOR UPDATE inside the caller's transaction.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&order, "orders.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateGuarded writes updates only while the order still has the expected status.
// Zero rows affected means a concurrent writer got there first.
func (r *Repository) UpdateGuarded(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, updates map[string]any) (int64, error) {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// AppendHistory inserts one status history entry.
func (r *Repository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// UserOrderFilters narrows a customer's order listing.
type UserOrderFilters struct {
	UserID uuid.UUID
	Status *enums.OrderStatus
	Cursor *pagination.Cursor
	Limit  int
}

// ListByUser returns a cursor page of the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, f UserOrderFilters) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(f.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items").Where("orders.user_id = ?", f.UserID)
	if f.Status != nil {
		query = query.Where("orders.status = ?", *f.Status)
	}
	if f.Cursor != nil {
		query = query.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)",
			f.Cursor.CreatedAt, f.Cursor.CreatedAt, f.Cursor.ID)
	}

	var rows []models.Order
	err := query.
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(pagination.LimitWithBuffer(f.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// AdminOrderFilters selects orders for back-office listings.
type AdminOrderFilters struct {
	From   *time.Time
	To     *time.Time
	Status *enums.OrderStatus
}

// List returns an offset page of orders created within [From, To).
func (r *Repository) List(ctx context.Context, f AdminOrderFilters, page pagination.PageParams) ([]models.Order, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if f.From != nil {
		query = query.Where("orders.created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("orders.created_at < ?", *f.To)
	}
	if f.Status != nil {
		query = query.Where("orders.status = ?", *f.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Order
	err := query.
		Preload("Items").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type salesRow struct {
	OrderCount   int64
	RevenueCents int64
}

// SalesTotals aggregates orders with a completed payment created within [from, to).
func (r *Repository) SalesTotals(ctx context.Context, from, to time.Time) (orderCount, revenueCents, itemCount int64, err error) {
	var row salesRow
	err = r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS order_count, COALESCE(SUM(pricing_total_cents), 0) AS revenue_cents").
		Where("payment_status = ? AND created_at >= ? AND created_at < ?", enums.PaymentStatusCompleted, from, to).
		Scan(&row).Error
	if err != nil {
		return 0, 0, 0, err
	}

	var items struct{ Quantity int64 }
	err = r.db.WithContext(ctx).
		Table("order_items").
		Select("COALESCE(SUM(order_items.quantity), 0) AS quantity").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_status = ? AND orders.created_at >= ? AND orders.created_at < ?", enums.PaymentStatusCompleted, from, to).
		Scan(&items).Error
	if err != nil {
		return 0, 0, 0, err
	}
	return row.OrderCount, row.RevenueCents, items.Quantity, nil
}

// HasPurchased reports whether the user holds a non-cancelled order containing
// the product, optionally restricted to one order.
func (r *Repository) HasPurchased(ctx context.Context, userID, productID uuid.UUID, orderID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Where("orders.status NOT IN ?", []enums.OrderStatus{enums.OrderStatusCancelled})
	if orderID != nil {
		query = query.Where("orders.id = ?", *orderID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) withDetail(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC").Order("order_items.id ASC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_status_history.created_at ASC").Order("order_status_history.id ASC")
		})
}
