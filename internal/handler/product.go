package handler

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/model"
	"marketplace-api/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService  service.ProductService
	merchantService service.MerchantService
}

func NewProductHandler(productService service.ProductService, merchantService service.MerchantService) *ProductHandler {
	return &ProductHandler{
		productService:  productService,
		merchantService: merchantService,
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var filter dto.ProductFilter
	if err := c.Bind(&filter); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query"})
	}

	products, err := h.productService.ListPublished(ctx, &filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	merchantID, isAdmin := h.callerScope(c)
	product, err := h.productService.Get(ctx, merchantID, isAdmin, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	merchant, err := h.merchantService.GetByOwner(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	var req dto.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	product, err := h.productService.Create(ctx, merchant.ID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	merchantID, isAdmin := h.callerScope(c)
	product, err := h.productService.Update(ctx, merchantID, isAdmin, c.Param("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	merchantID, isAdmin := h.callerScope(c)
	if err := h.productService.Delete(ctx, merchantID, isAdmin, c.Param("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *ProductHandler) Categories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.productService.ListCategories(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, categories)
}

// callerScope resolves how widely the caller may touch products: admins see
// everything, merchants only their own listings, everyone else nothing.
func (h *ProductHandler) callerScope(c echo.Context) (merchantID string, isAdmin bool) {
	if middleware.UserRole(c) == model.RoleAdmin {
		return "", true
	}

	merchant, err := h.merchantService.GetByOwner(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return "", false
	}

	return merchant.ID, false
}
