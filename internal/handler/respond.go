package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"printerp-service/internal/service"

	"github.com/labstack/echo/v4"
)

// parseID parses a numeric path parameter
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// userIDFromContext returns the authenticated user id set by AuthMiddleware
func userIDFromContext(c echo.Context) (uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	return userID, ok
}

// serviceErrorResponse maps a domain rule violation from the service layer to
// an HTTP response. Unknown errors fall through to 500 with a generic body so
// storage details never leak to clients.
func serviceErrorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Record not found"})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrPaymentNotPositive),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrQuantityNotPositive):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrQuotationConverted),
		errors.Is(err, service.ErrOrderNotEditable),
		errors.Is(err, service.ErrOrderNotPayable),
		errors.Is(err, service.ErrOrderNotReceivable),
		errors.Is(err, service.ErrPaymentExceedsRemaining),
		errors.Is(err, service.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

// parseDate accepts both date-only and RFC3339 timestamps. A zero time is
// returned for empty input so services can default to now.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
