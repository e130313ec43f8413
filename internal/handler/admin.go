package handler

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	adminService    service.AdminService
	merchantService service.MerchantService
	productService  service.ProductService
	orderService    service.OrderService
}

func NewAdminHandler(
	adminService service.AdminService,
	merchantService service.MerchantService,
	productService service.ProductService,
	orderService service.OrderService,
) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		merchantService: merchantService,
		productService:  productService,
		orderService:    orderService,
	}
}

func (h *AdminHandler) Users(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.adminService.ListUsers(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) UpdateUserRole(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.adminService.UpdateUserRole(ctx, c.Param("id"), req.Role); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) Merchants(c echo.Context) error {
	ctx := c.Request().Context()

	merchants, err := h.merchantService.List(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, merchants)
}

func (h *AdminHandler) UpdateMerchantStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	err := h.merchantService.UpdateStatus(ctx, c.Param("id"), model.MerchantStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) ModerateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	err := h.productService.Moderate(ctx, c.Param("id"), model.ProductStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) Orders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.adminService.Stats(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	category, err := h.adminService.CreateCategory(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, category)
}

func (h *AdminHandler) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	category, err := h.adminService.UpdateCategory(ctx, c.Param("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, category)
}

func (h *AdminHandler) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.adminService.DeleteCategory(ctx, c.Param("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) GetSettings(c echo.Context) error {
	ctx := c.Request().Context()

	settings, err := h.adminService.GetSettings(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.adminService.UpdateSettings(ctx, req); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) PublishTerms(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PublishTermsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	version, err := h.adminService.PublishTerms(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, version)
}
