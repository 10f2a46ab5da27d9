package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/services/catalog/internal/middleware"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	Secret         []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMw := middleware.NewSimpleAuth(d.Secret)

	products := e.Group("/products")
	products.GET("/:id", d.CatalogHandler.GetProduct)

	// Cascade endpoint, called service-to-service by the user service.
	products.PATCH("/availability", d.CatalogHandler.UpdateAvailability)

	private := products.Group("", authMw.RequireAuth)
	private.POST("", d.CatalogHandler.CreateProduct)
	private.PATCH("/:id", d.CatalogHandler.PatchProduct)
	private.DELETE("/:id", d.CatalogHandler.DeleteProduct)

	e.GET("/users/:id/products", d.CatalogHandler.GetUserProducts)
}
