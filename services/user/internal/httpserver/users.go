package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/services/user/internal/service"
)

type UserHTTP struct {
	Svc          *service.SessionService
	Deactivation *service.DeactivationService
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_user_failed", "status", 400, "reason", "id is not uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not uuid")
	}

	user, err := h.Svc.UserByID(ctx, id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_update")

	callerID, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(callerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity claim")
	}

	var req struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.UpdateUser(ctx, id, service.UpdateUserParams{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// SetActive deactivates or reactivates the calling user. The identity comes
// from the access-token claim set by the auth middleware, never the body.
func (h *UserHTTP) SetActive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_set_active")

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("set_active_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	callerID, _ := c.Get("user_id").(string)
	if err := h.Deactivation.SetActive(ctx, callerID, req.Active); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
