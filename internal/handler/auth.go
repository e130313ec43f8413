package handler

import (
	"net/http"
	"time"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/model"
	"marketplace-api/internal/service"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	userService service.UserService
	tokenExpiry time.Duration
}

func NewAuthHandler(userService service.UserService, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokenExpiry: tokenExpiry,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	user, token, err := h.userService.Register(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	h.setTokenCookie(c, token)
	return c.JSON(http.StatusCreated, authResponse(user))
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	user, token, err := h.userService.Login(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	h.setTokenCookie(c, token)
	return c.JSON(http.StatusOK, authResponse(user))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.userService.GetProfile(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, authResponse(user))
}

func (h *AuthHandler) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()

	addresses, err := h.userService.ListAddresses(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *AuthHandler) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	address, err := h.userService.CreateAddress(ctx, middleware.UserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, address)
}

func (h *AuthHandler) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.userService.DeleteAddress(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHandler) setTokenCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.tokenExpiry),
	})
}

func authResponse(user *model.User) *dto.AuthResponse {
	return &dto.AuthResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}
