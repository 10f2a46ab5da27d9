package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/services/user/internal/domain"
	"github.com/Skotchmaster/marketplace/services/user/internal/service"
)

type AuthHTTP struct {
	Svc *service.SessionService
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	case errors.Is(err, domain.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "email already registered")
	case errors.Is(err, domain.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "concurrent session update")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func (h *AuthHTTP) setPairCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(createCookie(accessCookieName, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(createCookie(refreshCookieName, pair.RefreshToken, "/", pair.RefreshExp))
}

func clearPairCookies(c echo.Context) {
	c.SetCookie(deleteCookie(accessCookieName, "/"))
	c.SetCookie(deleteCookie(refreshCookieName, "/"))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, pair, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.setPairCookies(c, pair)
	return c.JSON(http.StatusCreated, echo.Map{
		"id":           user.ID,
		"access_token": pair.AccessToken,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.setPairCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": pair.AccessToken,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	refreshCookie, err := c.Cookie(refreshCookieName)
	if err != nil || refreshCookie.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "refresh cookie missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(ctx, refreshCookie.Value)
	if err != nil {
		clearPairCookies(c)
		return httpError(err)
	}

	h.setPairCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": pair.AccessToken,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	refreshCookie, err := c.Cookie(refreshCookieName)
	if err == nil && refreshCookie.Value != "" {
		if err := h.Svc.LogoutByToken(ctx, refreshCookie.Value); err != nil {
			clearPairCookies(c)
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}

	clearPairCookies(c)
	l.Info("logout_successful")
	return c.NoContent(http.StatusNoContent)
}
