package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"socialapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Order list sort keys.
const (
	OrderSortNewest    = "newest"
	OrderSortOldest    = "oldest"
	OrderSortTotalDesc = "total_desc"
	OrderSortTotalAsc  = "total_asc"
)

// OrderFilter narrows the admin order listing. Zero values mean "no filter".
type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	Search        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Sort          string
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filter OrderFilter, limit, offset int) ([]models.Order, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	// GetByIDs returns the orders that exist among ids, ordered by id.
	GetByIDs(ctx context.Context, ids []uint) ([]models.Order, error)
	// GetByIDForUpdate locks the row for the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, note string) error
	UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) error
	AddHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error)
	StatusSummary(ctx context.Context) (map[models.OrderStatus]int64, error)
	// Stream walks filtered orders in pages of batchSize, stopping after maxRows.
	Stream(ctx context.Context, filter OrderFilter, batchSize, maxRows int, fn func(order *models.Order) error) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := conn(ctx, r.db).Omit("User").Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return models.NewConflictError("order number already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// likeEscaper makes search input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *orderRepository) filtered(db *gorm.DB, filter OrderFilter) *gorm.DB {
	q := db.Model(&models.Order{})
	if filter.Status != "" {
		q = q.Where("orders.status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("orders.payment_status = ?", filter.PaymentStatus)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		q = q.Where(
			`LOWER(orders.order_number) LIKE ? ESCAPE '\' OR orders.user_id IN `+
				`(SELECT id FROM users WHERE LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
			like, like, like,
		)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("orders.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("orders.created_at <= ?", *filter.CreatedTo)
	}
	return q
}

func orderBy(sort string) string {
	switch sort {
	case OrderSortOldest:
		return "orders.created_at asc, orders.id asc"
	case OrderSortTotalDesc:
		return "orders.total_cents desc, orders.id desc"
	case OrderSortTotalAsc:
		return "orders.total_cents asc, orders.id asc"
	default:
		return "orders.created_at desc, orders.id desc"
	}
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	db := readDB(ctx, r.db)

	var total int64
	if err := r.filtered(db, filter).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var orders []models.Order
	if err := r.filtered(db, filter).
		Preload("User").
		Order(orderBy(filter.Sort)).
		Limit(limit).
		Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return orders, total, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(readDB(ctx, r.db), id)
}

func (r *orderRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Order, error) {
	var orders []models.Order
	if len(ids) == 0 {
		return orders, nil
	}
	if err := readDB(ctx, r.db).Preload("User").Where("id IN ?", ids).Order("id asc").Find(&orders).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return orders, nil
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderRepository) first(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("User").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Order", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, note string) error {
	updates := map[string]interface{}{"status": status}
	if note != "" {
		updates["admin_note"] = note
	}
	return r.update(ctx, id, updates)
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) error {
	return r.update(ctx, id, map[string]interface{}{"payment_status": status})
}

func (r *orderRepository) update(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := conn(ctx, r.db).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Order", id)
	}
	return nil
}

func (r *orderRepository) AddHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	if err := conn(ctx, r.db).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *orderRepository) History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var entries []models.OrderStatusHistory
	if err := readDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *orderRepository) StatusSummary(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := readDB(ctx, r.db).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	summary := make(map[models.OrderStatus]int64, len(models.AllOrderStatuses))
	for _, s := range models.AllOrderStatuses {
		summary[s] = 0
	}
	for _, row := range rows {
		summary[row.Status] = row.Count
	}
	return summary, nil
}

func (r *orderRepository) Stream(ctx context.Context, filter OrderFilter, batchSize, maxRows int, fn func(order *models.Order) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	db := readDB(ctx, r.db)
	seen := 0
	for maxRows <= 0 || seen < maxRows {
		size := batchSize
		if maxRows > 0 && maxRows-seen < size {
			size = maxRows - seen
		}

		var batch []models.Order
		if err := r.filtered(db, filter).
			Preload("User").
			Order(orderBy(filter.Sort)).
			Limit(size).
			Offset(seen).
			Find(&batch).Error; err != nil {
			return models.NewInternalError(err)
		}

		for i := range batch {
			if err := fn(&batch[i]); err != nil {
				return err
			}
		}
		seen += len(batch)
		if len(batch) < size {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
