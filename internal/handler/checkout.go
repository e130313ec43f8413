package handler

import (
	"errors"
	"io"
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) Split(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SplitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	resp, err := h.checkoutService.CreateSplit(ctx, middleware.UserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	resp, err := h.checkoutService.ConfirmOrder(ctx, middleware.UserID(c), req.PaymentIntentID, c.RealIP())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Webhook accepts gateway event deliveries. Duplicate deliveries are
// acknowledged with 200 so the gateway stops resending; unsigned or badly
// signed deliveries are rejected before any processing.
func (h *CheckoutHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.checkoutService.HandleWebhook(ctx, body, signature); err != nil {
		if errors.Is(err, service.ErrInvalidWebhookSignature) {
			return c.NoContent(http.StatusBadRequest)
		}
		c.Logger().Errorf("handle webhook: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
