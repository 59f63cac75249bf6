package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usermanager/user-management/internal/api/metrics"
	"github.com/usermanager/user-management/internal/api/middleware"
	"github.com/usermanager/user-management/internal/core/domain"
	"github.com/usermanager/user-management/internal/core/ports"
)

// HeaderRefreshToken optionally carries "Bearer <refresh token>" on /auth/refresh.
const HeaderRefreshToken = "Authorization-Refresh"

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		City:     req.City,
		Role:     req.Role,
	})
	observeAuth("register", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userResponse{
		StatusCode: http.StatusOK,
		Message:    "User saved successfully",
		User:       user,
	})
}

// Login authenticates a user and returns an access and a refresh token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	observeAuth("login", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTokenResponse(res, "Successfully logged in"))
}

// Refresh issues a new access token for a valid refresh token. The token is
// read from the body, or from the Authorization-Refresh header when the body
// omits it.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body                   body      refreshRequest  false  "Refresh token"
// @Param        Authorization-Refresh  header    string          false  "Bearer refresh token"
// @Success      200                    {object}  tokenResponse
// @Failure      401                    {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	tok := req.RefreshToken
	if tok == "" {
		tok, _ = middleware.BearerToken(c.Request().Header.Get(HeaderRefreshToken))
	}
	if tok == "" {
		observeAuth("refresh", domain.ErrInvalidRefreshToken)
		return domain.ErrInvalidRefreshToken
	}

	res, err := h.authService.Refresh(c.Request().Context(), tok)
	observeAuth("refresh", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTokenResponse(res, "Successfully refreshed token"))
}

func toTokenResponse(res *ports.AuthResult, msg string) tokenResponse {
	return tokenResponse{
		StatusCode:   http.StatusOK,
		Message:      msg,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Role:         res.Role,
		ExpiresIn:    res.ExpiresIn,
	}
}

func observeAuth(op string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserExists):
		result = "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		result = "invalid"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidRefreshToken):
		result = "unauthorized"
	default:
		result = "error"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(op, result).Inc()
}
