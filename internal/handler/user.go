package handler

import (
	"net/http"
	"storefront-backend/internal/dto"
	"storefront-backend/internal/middleware"
	"storefront-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	session, err := h.userService.Signup(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse(session))
}

func (h *UserHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	session, err := h.userService.Login(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse(session))
}

func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.userService.Me(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()

	profile, err := h.userService.GetProfile(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewProfileResponse(profile))
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	profile, err := h.userService.UpdateProfile(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewProfileResponse(profile))
}

func authResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      dto.NewUserResponse(s.User),
	}
}
