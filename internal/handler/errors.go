package handler

import (
	"errors"
	"net/http"

	"marketplace-api/internal/service"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// respondError maps service errors onto the `{error: string}` body the
// frontend expects. Anything unrecognized is a plain 500 so internals never
// leak to the client.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingPaymentIntent):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing payment intent id"})
	case errors.Is(err, service.ErrPaymentNotSucceeded):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Payment not completed"})
	case errors.Is(err, service.ErrMissingSplitData):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing split order data"})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrMixedCurrencyCart),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrMerchantNotApproved):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}
