package server

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"socialapp/internal/models"
	"socialapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// OrderStatusRequest is the body of PATCH /admin/orders/:id/status.
type OrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// PaymentStatusRequest is the body of PATCH /admin/orders/:id/payment.
type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// ListOrders godoc
// @Summary List orders
// @Description Filter by status, payment_status, q (order number, customer name or email) and created_from/created_to.
// @Tags admin-orders
// @Produce json
// @Param status query string false "Order status"
// @Param payment_status query string false "Payment status"
// @Param q query string false "Search"
// @Param created_from query string false "YYYY-MM-DD or RFC3339"
// @Param created_to query string false "YYYY-MM-DD or RFC3339"
// @Param sort query string false "newest, oldest, total_desc, total_asc"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} service.OrderPage
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/orders [get]
// @Security BearerAuth
func (s *Server) ListOrders(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return nil
	}
	// The service owns defaults and caps for the admin listing.
	page := service.Pagination{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}

	result, err := s.orders.ListOrders(c.UserContext(), filter, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetOrderSummary handles GET /api/admin/orders/summary
func (s *Server) GetOrderSummary(c *fiber.Ctx) error {
	summary, err := s.orders.Summary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"by_status": summary})
}

// ExportOrders godoc
// @Summary Export orders as CSV
// @Tags admin-orders
// @Produce text/csv
// @Success 200 {string} string "CSV"
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/orders/export [get]
// @Security BearerAuth
func (s *Server) ExportOrders(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return nil
	}

	var buf bytes.Buffer
	rows, err := s.orders.ExportCSV(c.UserContext(), filter, &buf)
	if err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("orders-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set("X-Export-Rows", strconv.Itoa(rows))
	return c.Send(buf.Bytes())
}

// GetOrder handles GET /api/admin/orders/:id
func (s *Server) GetOrder(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	order, err := s.orders.GetOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// UpdateOrderStatus godoc
// @Summary Move an order to a new status
// @Tags admin-orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body OrderStatusRequest true "New status"
// @Success 200 {object} models.Order
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/orders/{id}/status [patch]
// @Security BearerAuth
func (s *Server) UpdateOrderStatus(c *fiber.Ctx) error {
	actorID, err := requireUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req OrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Status == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("status is required"))
	}

	order, err := s.orders.UpdateStatus(c.UserContext(), actorID, id, req.Status, req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// UpdateOrderPayment handles PATCH /api/admin/orders/:id/payment
func (s *Server) UpdateOrderPayment(c *fiber.Ctx) error {
	actorID, err := requireUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req PaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PaymentStatus == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("payment_status is required"))
	}

	order, err := s.orders.UpdatePaymentStatus(c.UserContext(), actorID, id, req.PaymentStatus)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// BulkUpdateOrders godoc
// @Summary Update the status or payment status of many orders
// @Description Each order is updated in its own transaction; failures are reported per id.
// @Tags admin-orders
// @Accept json
// @Produce json
// @Param request body service.BulkOrderUpdate true "Bulk update"
// @Success 200 {object} service.BulkResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/orders/bulk [post]
// @Security BearerAuth
func (s *Server) BulkUpdateOrders(c *fiber.Ctx) error {
	actorID, err := requireUser(c)
	if err != nil {
		return nil
	}

	var req service.BulkOrderUpdate
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.orders.BulkUpdate(c.UserContext(), actorID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
