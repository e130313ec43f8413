package handler

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/model"
	"marketplace-api/internal/service"

	"github.com/labstack/echo/v4"
)

type MerchantHandler struct {
	merchantService service.MerchantService
	orderService    service.OrderService
}

func NewMerchantHandler(merchantService service.MerchantService, orderService service.OrderService) *MerchantHandler {
	return &MerchantHandler{
		merchantService: merchantService,
		orderService:    orderService,
	}
}

// Register starts the merchant onboarding wizard: any customer can apply,
// the store stays PENDING until an admin approves it.
func (h *MerchantHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterMerchantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	merchant, err := h.merchantService.Register(ctx, middleware.UserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, merchant)
}

func (h *MerchantHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	merchant, err := h.merchantService.GetByOwner(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, merchant)
}

func (h *MerchantHandler) Orders(c echo.Context) error {
	ctx := c.Request().Context()

	merchant, err := h.merchantService.GetByOwner(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	subOrders, err := h.orderService.ListSubOrdersForMerchant(ctx, merchant.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, subOrders)
}

func (h *MerchantHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	merchant, err := h.merchantService.GetByOwner(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	err = h.orderService.UpdateSubOrderStatus(ctx, merchant.ID, c.Param("id"), model.OrderStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *MerchantHandler) Payouts(c echo.Context) error {
	ctx := c.Request().Context()

	merchant, err := h.merchantService.GetByOwner(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	payouts, err := h.merchantService.Payouts(ctx, merchant.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, payouts)
}

func (h *MerchantHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	merchant, err := h.merchantService.GetByOwner(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	stats, err := h.merchantService.Stats(ctx, merchant.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
