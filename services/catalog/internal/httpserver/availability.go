package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/services/catalog/internal/transport"
)

// UpdateAvailability is the deactivation-cascade target called by the user
// service. The single-statement UPDATE makes it idempotent, so redelivery
// under the same Idempotency-Key just reapplies the same state.
func (h *CatalogHTTP) UpdateAvailability(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(
		"handler", "product.update_availability",
		"idempotency_key", c.Request().Header.Get("Idempotency-Key"),
	)

	var req transport.AvailabilityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_availability_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	affected, err := h.Svc.MarkOwnerProductsUnavailable(ctx, req.UserID)
	if err != nil {
		l.Error("update_availability_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update availability")
	}

	l.Info("update_availability_successful", "user_id", req.UserID, "affected", affected)
	return c.JSON(http.StatusOK, echo.Map{"affected": affected})
}
