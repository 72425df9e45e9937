package server

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"socialapp/internal/models"
	"socialapp/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "requestId" -> "request ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// currentUserID returns the authenticated user id set by the auth middleware.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id > 0
}

// requireUser is currentUserID that writes a 401 on failure.
func requireUser(c *fiber.Ctx) (uint, error) {
	id, ok := currentUserID(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return 0, errResponseWritten
	}
	return id, nil
}

// statusForError maps an AppError code to its HTTP status.
func statusForError(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its code implies. Errors that are
// not AppErrors are reported as internal so raw driver messages never leak.
func respondError(c *fiber.Ctx, err error) error {
	if models.ErrorCode(err) == "" {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, statusForError(err), err)
}

const dateOnly = "2006-01-02"

// parseTimeParam accepts RFC3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parseOrderFilter reads the admin order filters from the query string.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseOrderFilter(c *fiber.Ctx) (repository.OrderFilter, error) {
	filter := repository.OrderFilter{
		Search: strings.TrimSpace(c.Query("q")),
		Sort:   c.Query("sort"),
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return filter, writeBadRequest(c, err)
		}
		filter.Status = status
	}
	if raw := c.Query("payment_status"); raw != "" {
		status, err := models.ParsePaymentStatus(raw)
		if err != nil {
			return filter, writeBadRequest(c, err)
		}
		filter.PaymentStatus = status
	}

	from, err := parseTimeParam(c.Query("created_from"), false)
	if err != nil {
		return filter, writeBadRequest(c, models.NewValidationError("created_from must be a date (YYYY-MM-DD) or RFC3339 timestamp"))
	}
	to, err := parseTimeParam(c.Query("created_to"), true)
	if err != nil {
		return filter, writeBadRequest(c, models.NewValidationError("created_to must be a date (YYYY-MM-DD) or RFC3339 timestamp"))
	}
	filter.CreatedFrom = from
	filter.CreatedTo = to
	return filter, nil
}

func writeBadRequest(c *fiber.Ctx, err error) error {
	if models.ErrorCode(err) == "" {
		err = models.NewValidationError(err.Error())
	}
	_ = models.RespondWithError(c, fiber.StatusBadRequest, err)
	return errResponseWritten
}
