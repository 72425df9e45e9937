package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"socialapp/internal/featureflags"
	"socialapp/internal/middleware"
	"socialapp/internal/models"
	"socialapp/internal/observability"
	"socialapp/internal/repository"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultOrderPageSize = 25
	maxOrderPageSize     = 100
	maxAdminNoteLength   = 1000
	exportBatchSize      = 500
)

// ExportHeader is the first row of every order CSV export.
var ExportHeader = []string{"order_number", "customer", "email", "status", "payment_status", "total", "currency", "created_at"}

// Pagination is a limit/offset window. Zero limit means the default page size.
type Pagination struct {
	Limit  int
	Offset int
}

// OrderPage is one page of the admin order table.
type OrderPage struct {
	Items  []models.Order `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// OrderDetail is an order with its change history.
type OrderDetail struct {
	models.Order
	History []models.OrderStatusHistory `json:"history"`
}

// BulkOrderUpdate changes either the status or the payment status of many orders.
type BulkOrderUpdate struct {
	OrderIDs      []uint `json:"order_ids"`
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
	Note          string `json:"note,omitempty"`
}

// BulkFailure explains why one order in a bulk update was not changed.
type BulkFailure struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

// BulkResult lists which orders were updated and which failed.
type BulkResult struct {
	Updated []uint        `json:"updated"`
	Failed  []BulkFailure `json:"failed"`
}

// OrderAdminConfig bounds bulk updates and exports.
type OrderAdminConfig struct {
	MaxBulkIDs    int
	MaxExportRows int
}

// OrderAdminService backs the admin order dashboard.
type OrderAdminService struct {
	tx     repository.Transactor
	orders repository.OrderRepository
	flags  *featureflags.Manager
	policy *bluemonday.Policy
	cfg    OrderAdminConfig
}

// NewOrderAdminService returns a new OrderAdminService.
func NewOrderAdminService(tx repository.Transactor, orders repository.OrderRepository, flags *featureflags.Manager, cfg OrderAdminConfig) *OrderAdminService {
	if cfg.MaxBulkIDs <= 0 {
		cfg.MaxBulkIDs = 200
	}
	if cfg.MaxExportRows <= 0 {
		cfg.MaxExportRows = 10000
	}
	return &OrderAdminService{
		tx:     tx,
		orders: orders,
		flags:  flags,
		policy: bluemonday.StrictPolicy(),
		cfg:    cfg,
	}
}

// ListOrders returns one filtered, sorted page of orders and the total match count.
func (s *OrderAdminService) ListOrders(ctx context.Context, filter repository.OrderFilter, page Pagination) (*OrderPage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if page.Limit <= 0 {
		page.Limit = defaultOrderPageSize
	}
	if page.Limit > maxOrderPageSize {
		page.Limit = maxOrderPageSize
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	items, total, err := s.orders.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Order{}
	}
	return &OrderPage{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// GetOrder returns one order with its history.
func (s *OrderAdminService) GetOrder(ctx context.Context, id uint) (*OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.orders.History(ctx, id)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.OrderStatusHistory{}
	}
	return &OrderDetail{Order: *order, History: history}, nil
}

// UpdateStatus moves an order along its fulfilment lifecycle and records the change.
func (s *OrderAdminService) UpdateStatus(ctx context.Context, actorID, id uint, rawStatus, note string) (*models.Order, error) {
	status, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	clean, err := s.sanitizeNote(note)
	if err != nil {
		return nil, err
	}
	if err := s.applyStatus(ctx, actorID, id, status, clean); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

// UpdatePaymentStatus changes an order's payment state and records the change.
func (s *OrderAdminService) UpdatePaymentStatus(ctx context.Context, actorID, id uint, rawStatus string) (*models.Order, error) {
	status, err := models.ParsePaymentStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if err := s.applyPayment(ctx, actorID, id, status, ""); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

// BulkUpdate applies one change to many orders. Each order is updated in its
// own transaction, so one failure never rolls back the others.
func (s *OrderAdminService) BulkUpdate(ctx context.Context, actorID uint, req BulkOrderUpdate) (result *BulkResult, err error) {
	if s.flags != nil && !s.flags.Enabled(featureflags.OrderBulkActions, actorID) {
		return nil, models.NewForbiddenError("Bulk order actions are disabled")
	}
	ids := dedupeIDs(req.OrderIDs)
	if len(ids) == 0 {
		return nil, models.NewValidationError("order_ids is required")
	}
	if len(ids) > s.cfg.MaxBulkIDs {
		return nil, models.NewValidationError(fmt.Sprintf("at most %d orders can be updated at once", s.cfg.MaxBulkIDs))
	}
	hasStatus := strings.TrimSpace(req.Status) != ""
	hasPayment := strings.TrimSpace(req.PaymentStatus) != ""
	if hasStatus == hasPayment {
		return nil, models.NewValidationError("exactly one of status or payment_status is required")
	}

	var apply func(ctx context.Context, id uint) error
	if hasStatus {
		status, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			return nil, err
		}
		note, err := s.sanitizeNote(req.Note)
		if err != nil {
			return nil, err
		}
		apply = func(ctx context.Context, id uint) error { return s.applyStatus(ctx, actorID, id, status, note) }
	} else {
		status, err := models.ParsePaymentStatus(req.PaymentStatus)
		if err != nil {
			return nil, err
		}
		note, err := s.sanitizeNote(req.Note)
		if err != nil {
			return nil, err
		}
		apply = func(ctx context.Context, id uint) error { return s.applyPayment(ctx, actorID, id, status, note) }
	}

	ctx, span := observability.StartSpan(ctx, "orders", "bulk_update", attribute.Int("orders.count", len(ids)))
	defer func() { span.End(err) }()

	// Unknown ids are reported up front without opening a transaction.
	found, err := s.orders.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[uint]struct{}, len(found))
	for _, o := range found {
		known[o.ID] = struct{}{}
	}

	result = &BulkResult{Updated: []uint{}, Failed: []BulkFailure{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := known[id]; !ok {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: models.NewNotFoundError("Order", id).Error()})
			continue
		}
		if err := apply(ctx, id); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: publicMessage(err)})
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	middleware.Logger.InfoContext(ctx, "bulk order update",
		"actor", actorID, "updated", len(result.Updated), "failed", len(result.Failed))
	return result, nil
}

// Summary returns the number of orders in every status.
func (s *OrderAdminService) Summary(ctx context.Context) (map[models.OrderStatus]int64, error) {
	return s.orders.StatusSummary(ctx)
}

// ExportCSV writes every order matching filter as CSV, up to the configured
// row cap, and returns the number of data rows written.
func (s *OrderAdminService) ExportCSV(ctx context.Context, filter repository.OrderFilter, w io.Writer) (rows int, err error) {
	if err := validateFilter(filter); err != nil {
		return 0, err
	}
	ctx, span := observability.StartSpan(ctx, "orders", "export_csv")
	defer func() {
		span.AddAttributes(attribute.Int("orders.rows", rows))
		span.End(err)
	}()

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, err
	}
	err = s.orders.Stream(ctx, filter, exportBatchSize, s.cfg.MaxExportRows, func(o *models.Order) error {
		rows++
		return cw.Write([]string{
			csvCell(o.OrderNumber),
			csvCell(o.User.Username),
			csvCell(o.User.Email),
			string(o.Status),
			string(o.PaymentStatus),
			o.TotalFormatted(),
			csvCell(o.Currency),
			o.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return rows, err
	}
	cw.Flush()
	return rows, cw.Error()
}

// csvCell keeps spreadsheets from evaluating user-supplied text as a formula.
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

func (s *OrderAdminService) applyStatus(ctx context.Context, actorID, id uint, status models.OrderStatus, note string) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == status {
			return models.NewValidationError(fmt.Sprintf("order is already %s", status))
		}
		if !order.Status.CanTransitionTo(status) {
			return models.NewValidationError(fmt.Sprintf("cannot change order status from %s to %s", order.Status, status))
		}
		if err := s.orders.UpdateStatus(ctx, id, status, note); err != nil {
			return err
		}
		return s.orders.AddHistory(ctx, &models.OrderStatusHistory{
			OrderID:   id,
			ActorID:   actorID,
			Field:     "status",
			FromValue: string(order.Status),
			ToValue:   string(status),
			Note:      note,
		})
	})
	recordOrderUpdate("status", err)
	return err
}

func (s *OrderAdminService) applyPayment(ctx context.Context, actorID, id uint, status models.PaymentStatus, note string) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.PaymentStatus == status {
			return models.NewValidationError(fmt.Sprintf("payment is already %s", status))
		}
		if !order.PaymentStatus.CanTransitionTo(status) {
			return models.NewValidationError(fmt.Sprintf("cannot change payment status from %s to %s", order.PaymentStatus, status))
		}
		if err := s.orders.UpdatePaymentStatus(ctx, id, status); err != nil {
			return err
		}
		return s.orders.AddHistory(ctx, &models.OrderStatusHistory{
			OrderID:   id,
			ActorID:   actorID,
			Field:     "payment_status",
			FromValue: string(order.PaymentStatus),
			ToValue:   string(status),
			Note:      note,
		})
	})
	recordOrderUpdate("payment_status", err)
	return err
}

// sanitizeNote strips markup and returns plain text. Notes are served as
// JSON, so the entities Sanitize leaves behind are decoded again.
func (s *OrderAdminService) sanitizeNote(note string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(note)))
	if utf8.RuneCountInString(clean) > maxAdminNoteLength {
		return "", models.NewValidationError(fmt.Sprintf("note must be at most %d characters", maxAdminNoteLength))
	}
	return clean, nil
}

func recordOrderUpdate(field string, err error) {
	result := "ok"
	switch models.ErrorCode(err) {
	case "":
		if err != nil {
			result = "error"
		}
	case models.CodeValidation:
		result = "rejected"
	case models.CodeNotFound:
		result = "not_found"
	default:
		result = "error"
	}
	observability.OrderUpdates.WithLabelValues(field, result).Inc()
}

func validateFilter(f repository.OrderFilter) error {
	switch f.Sort {
	case "", repository.OrderSortNewest, repository.OrderSortOldest, repository.OrderSortTotalDesc, repository.OrderSortTotalAsc:
	default:
		return models.NewValidationError(fmt.Sprintf("invalid sort %q", f.Sort))
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return models.NewValidationError("created_from must be before created_to")
	}
	return nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// publicMessage hides internal error details from API callers.
func publicMessage(err error) string {
	code := models.ErrorCode(err)
	if code == "" || code == models.CodeInternal {
		return "Internal server error"
	}
	return err.Error()
}
