package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/services/catalog/internal/events"
	"github.com/Skotchmaster/marketplace/services/catalog/internal/models"
	"github.com/Skotchmaster/marketplace/services/catalog/internal/service"
	"github.com/Skotchmaster/marketplace/services/catalog/internal/transport"
)

type CatalogHTTP struct {
	Svc      *service.CatalogService
	Producer *events.Producer
}

func (h *CatalogHTTP) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("event_publish_failed", "error", err)
	}
}

func callerID(c echo.Context) (uuid.UUID, error) {
	raw, _ := c.Get("user_id").(string)
	return uuid.Parse(raw)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not uuid")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("get_product_failed", "status", 404, "reason", "product does not exist")
			return echo.NewHTTPError(http.StatusNotFound, "product does not exist")
		}
		l.Error("get_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetUserProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_user_products")

	ownerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_user_products_failed", "status", 400, "reason", "id is not uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not uuid")
	}

	items, err := h.Svc.GetUserProducts(ctx, ownerID)
	if err != nil {
		l.Error("get_user_products_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get products")
	}

	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	owner, err := callerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity claim")
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod := &models.Product{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		IsAvailable: true,
		OwnerID:     owner,
		CreatedAt:   time.Now().UTC(),
	}

	prod, err = h.Svc.CreateProduct(ctx, prod)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPrice) {
			l.Warn("product_create_failed", "status", 400, "reason", "invalid price")
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("product_create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	h.publish(c, prod.OwnerID.String(), map[string]any{
		"type":       events.EventProductCreated,
		"product_id": prod.ID,
		"owner_id":   prod.OwnerID,
		"title":      prod.Title,
	})

	l.Info("create_product_successful", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_patch_failed", "status", 400, "reason", "id is not uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not uuid")
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.requireOwnerOrAdmin(c, id); err != nil {
		return err
	}

	prod, err := h.Svc.PatchProduct(ctx, req, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product does not exist")
		}
		if errors.Is(err, service.ErrInvalidPrice) {
			l.Warn("product_patch_failed", "status", 400, "reason", "invalid price")
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("product_patch_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot patch product")
	}

	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_failed", "status", 400, "reason", "id is not uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not uuid")
	}

	if err := h.requireOwnerOrAdmin(c, id); err != nil {
		return err
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product does not exist")
		}
		l.Error("product_delete_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	h.publish(c, id.String(), map[string]any{
		"type":       events.EventProductDeleted,
		"product_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) requireOwnerOrAdmin(c echo.Context, productID uuid.UUID) error {
	if role, _ := c.Get("role").(string); role == "admin" {
		return nil
	}

	caller, err := callerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity claim")
	}

	prod, err := h.Svc.GetProduct(c.Request().Context(), productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}
	if prod.OwnerID != caller {
		return echo.NewHTTPError(http.StatusForbidden, "not the product owner")
	}
	return nil
}
