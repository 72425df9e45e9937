package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"socialapp/internal/featureflags"
	"socialapp/internal/models"
	"socialapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID uint = 100

func sampleOrders() []*models.Order {
	customer := models.User{ID: 7, Username: "ada", Email: "ada@example.com"}
	created := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	return []*models.Order{
		{ID: 1, OrderNumber: "ORD-1", User: customer, Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending, TotalCents: 1250, Currency: "USD", CreatedAt: created},
		{ID: 2, OrderNumber: "ORD-2", User: customer, Status: models.OrderStatusProcessing, PaymentStatus: models.PaymentStatusPaid, TotalCents: 99, Currency: "EUR", CreatedAt: created},
		{ID: 3, OrderNumber: "ORD-3", User: customer, Status: models.OrderStatusDelivered, PaymentStatus: models.PaymentStatusRefunded, TotalCents: 100000, Currency: "USD", CreatedAt: created},
	}
}

func newOrderService(repo *memOrders, flags string) (*OrderAdminService, *txStub) {
	tx := &txStub{}
	return NewOrderAdminService(tx, repo, featureflags.NewManager(flags), OrderAdminConfig{MaxBulkIDs: 3, MaxExportRows: 2}), tx
}

func TestOrderAdminService_ListOrdersPagination(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, _ := newOrderService(repo, "")

	tests := []struct {
		name       string
		page       Pagination
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", page: Pagination{}, wantLimit: 25, wantOffset: 0},
		{name: "capped", page: Pagination{Limit: 1000, Offset: 50}, wantLimit: 100, wantOffset: 50},
		{name: "negative offset", page: Pagination{Limit: 5, Offset: -3}, wantLimit: 5, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListOrders(context.Background(), repository.OrderFilter{Sort: repository.OrderSortTotalAsc}, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, page.Limit)
			assert.Equal(t, tt.wantOffset, page.Offset)
			assert.Equal(t, tt.wantLimit, repo.lastLimit)
			assert.Equal(t, int64(3), page.Total)
			assert.Equal(t, repository.OrderSortTotalAsc, repo.lastFilter.Sort)
		})
	}
}

func TestOrderAdminService_ListOrdersRejectsBadFilters(t *testing.T) {
	svc, _ := newOrderService(newMemOrders(), "")
	from := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.ListOrders(context.Background(), repository.OrderFilter{Sort: "random"}, Pagination{})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = svc.ListOrders(context.Background(), repository.OrderFilter{CreatedFrom: &from, CreatedTo: &to}, Pagination{})
	assert.EqualError(t, err, "created_from must be before created_to")
}

func TestOrderAdminService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		orderID  uint
		status   string
		wantCode string
		want     models.OrderStatus
	}{
		{name: "pending to processing", orderID: 1, status: "Processing", want: models.OrderStatusProcessing},
		{name: "processing to shipped", orderID: 2, status: "shipped", want: models.OrderStatusShipped},
		{name: "same status", orderID: 1, status: "pending", wantCode: models.CodeValidation},
		{name: "skipping ahead", orderID: 1, status: "delivered", wantCode: models.CodeValidation},
		{name: "terminal", orderID: 3, status: "cancelled", wantCode: models.CodeValidation},
		{name: "unknown status", orderID: 1, status: "lost", wantCode: models.CodeValidation},
		{name: "missing order", orderID: 42, status: "processing", wantCode: models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemOrders(sampleOrders()...)
			svc, _ := newOrderService(repo, "")

			order, err := svc.UpdateStatus(context.Background(), adminID, tt.orderID, tt.status, "")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
				assert.Empty(t, repo.history)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.Status)
			require.Len(t, repo.history, 1)
			assert.Equal(t, "status", repo.history[0].Field)
			assert.Equal(t, adminID, repo.history[0].ActorID)
			assert.Equal(t, string(tt.want), repo.history[0].ToValue)
		})
	}
}

func TestOrderAdminService_UpdateStatusSanitizesNote(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, _ := newOrderService(repo, "")

	order, err := svc.UpdateStatus(context.Background(), adminID, 1, "processing", `  <script>alert(1)</script><b>packed</b> by warehouse  `)
	require.NoError(t, err)
	assert.Equal(t, "packed by warehouse", order.AdminNote)
	assert.Equal(t, "packed by warehouse", repo.history[0].Note)
}

func TestOrderAdminService_UpdateStatusKeepsPlainTextNote(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, _ := newOrderService(repo, "")

	order, err := svc.UpdateStatus(context.Background(), adminID, 1, "processing", `Ship & bill to "Bob's" office <i>asap</i>`)
	require.NoError(t, err)
	assert.Equal(t, `Ship & bill to "Bob's" office asap`, order.AdminNote)
	assert.Equal(t, `Ship & bill to "Bob's" office asap`, repo.history[0].Note)
}

func TestOrderAdminService_NoteLengthCountsPlainText(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, _ := newOrderService(repo, "")

	_, err := svc.UpdateStatus(context.Background(), adminID, 1, "processing", strings.Repeat("&", maxAdminNoteLength))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), adminID, 2, "shipped", strings.Repeat("a", maxAdminNoteLength+1))
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestOrderAdminService_UpdatePaymentStatus(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, _ := newOrderService(repo, "")
	ctx := context.Background()

	order, err := svc.UpdatePaymentStatus(ctx, adminID, 1, "paid")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "payment_status", repo.history[0].Field)
	assert.Equal(t, "pending", repo.history[0].FromValue)

	_, err = svc.UpdatePaymentStatus(ctx, adminID, 3, "paid")
	assert.EqualError(t, err, "cannot change payment status from refunded to paid")

	_, err = svc.UpdatePaymentStatus(ctx, adminID, 2, "failed")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestOrderAdminService_GetOrder(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, _ := newOrderService(repo, "")

	_, err := svc.UpdateStatus(context.Background(), adminID, 1, "cancelled", "customer request")
	require.NoError(t, err)

	detail, err := svc.GetOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", detail.OrderNumber)
	require.Len(t, detail.History, 1)
	assert.Equal(t, "customer request", detail.History[0].Note)

	detail, err = svc.GetOrder(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, detail.History)
	assert.Empty(t, detail.History)
}

func TestOrderAdminService_BulkUpdate(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	repo.failOn[2] = models.NewInternalError(errors.New("deadlock detected"))
	svc, tx := newOrderService(repo, "")

	res, err := svc.BulkUpdate(context.Background(), adminID, BulkOrderUpdate{
		OrderIDs: []uint{1, 2, 3, 1},
		Status:   "cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, res.Updated)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, BulkFailure{ID: 2, Error: "Internal server error"}, res.Failed[0])
	assert.Equal(t, uint(3), res.Failed[1].ID)
	assert.Contains(t, res.Failed[1].Error, "cannot change order status from delivered to cancelled")
	assert.Equal(t, 3, tx.calls, "one transaction per order")
	assert.Equal(t, models.OrderStatusCancelled, repo.orders[1].Status)
}

func TestOrderAdminService_BulkUpdateSkipsUnknownIDs(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, tx := newOrderService(repo, "")

	res, err := svc.BulkUpdate(context.Background(), adminID, BulkOrderUpdate{
		OrderIDs:      []uint{42, 1},
		PaymentStatus: "paid",
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, res.Updated)
	assert.Equal(t, []BulkFailure{{ID: 42, Error: "Order with ID 42 not found"}}, res.Failed)
	assert.Equal(t, 1, tx.calls, "unknown ids never open a transaction")
	assert.Equal(t, models.PaymentStatusPaid, repo.orders[1].PaymentStatus)
}

func TestOrderAdminService_BulkUpdateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  BulkOrderUpdate
		want string
	}{
		{name: "no ids", req: BulkOrderUpdate{Status: "shipped"}, want: "order_ids is required"},
		{name: "too many", req: BulkOrderUpdate{OrderIDs: []uint{1, 2, 3, 4}, Status: "shipped"}, want: "at most 3 orders can be updated at once"},
		{name: "both fields", req: BulkOrderUpdate{OrderIDs: []uint{1}, Status: "shipped", PaymentStatus: "paid"}, want: "exactly one of status or payment_status is required"},
		{name: "neither field", req: BulkOrderUpdate{OrderIDs: []uint{1}}, want: "exactly one of status or payment_status is required"},
		{name: "bad payment", req: BulkOrderUpdate{OrderIDs: []uint{1}, PaymentStatus: "maybe"}, want: `invalid payment status "maybe"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tx := newOrderService(newMemOrders(sampleOrders()...), "")
			_, err := svc.BulkUpdate(context.Background(), adminID, tt.req)
			assert.EqualError(t, err, tt.want)
			assert.Zero(t, tx.calls)
		})
	}
}

func TestOrderAdminService_BulkUpdatePaymentAndFlag(t *testing.T) {
	repo := newMemOrders(sampleOrders()...)
	svc, _ := newOrderService(repo, "")

	res, err := svc.BulkUpdate(context.Background(), adminID, BulkOrderUpdate{OrderIDs: []uint{1, 2}, PaymentStatus: "paid"})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, res.Updated)
	assert.Equal(t, uint(2), res.Failed[0].ID)

	disabled, _ := newOrderService(repo, "order_bulk_actions=off")
	_, err = disabled.BulkUpdate(context.Background(), adminID, BulkOrderUpdate{OrderIDs: []uint{1}, Status: "processing"})
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
}

func TestOrderAdminService_ExportCSV(t *testing.T) {
	svc, _ := newOrderService(newMemOrders(sampleOrders()...), "")

	var buf bytes.Buffer
	rows, err := svc.ExportCSV(context.Background(), repository.OrderFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, rows, "export is capped at the configured row limit")

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, []string{"ORD-1", "ada", "ada@example.com", "pending", "pending", "12.50", "USD", "2026-03-01T09:30:00Z"}, records[1])
	assert.Equal(t, "0.99", records[2][5])
}

func TestOrderAdminService_ExportCSVNeutralizesFormulas(t *testing.T) {
	orders := sampleOrders()
	orders[0].User = models.User{ID: 8, Username: `=HYPERLINK("http://evil","x")`, Email: "@cmd@example.com"}
	orders[1].User = models.User{ID: 9, Username: "-2+3", Email: "\tmail@example.com"}
	svc, _ := newOrderService(newMemOrders(orders...), "")

	var buf bytes.Buffer
	_, err := svc.ExportCSV(context.Background(), repository.OrderFilter{}, &buf)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, `'=HYPERLINK("http://evil","x")`, records[1][1])
	assert.Equal(t, "'@cmd@example.com", records[1][2])
	assert.Equal(t, "'-2+3", records[2][1])
	assert.Equal(t, "'\tmail@example.com", records[2][2])
}

func TestCSVCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"ada", "ada"},
		{"=1+1", "'=1+1"},
		{"+1", "'+1"},
		{"-1", "'-1"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\rx", "'\rx"},
		{"a=b", "a=b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, csvCell(tt.in), tt.in)
	}
}

func TestOrderAdminService_Summary(t *testing.T) {
	svc, _ := newOrderService(newMemOrders(sampleOrders()...), "")

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary, len(models.AllOrderStatuses))
	assert.Equal(t, int64(1), summary[models.OrderStatusPending])
	assert.Equal(t, int64(0), summary[models.OrderStatusShipped])
}
