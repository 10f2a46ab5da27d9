package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/gateway/internal/middleware"
)

type Deps struct {
	UserURL    string
	CatalogURL string

	JWTSecret []byte
	Logger    *slog.Logger
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, m := range middleware.Common(d.Logger) {
		e.Use(m)
	}

	userProxy, err := newProxy(d.UserURL, "/api/v1")
	if err != nil {
		return err
	}

	catalogProxy, err := newProxy(d.CatalogURL, "/api/v1")
	if err != nil {
		return err
	}

	e.Any("/api/v1/auth/*", userProxy)
	e.GET("/api/v1/users/:id", userProxy)
	e.GET("/api/v1/users/:id/products", catalogProxy)
	e.GET("/api/v1/products/:id", catalogProxy)

	api := e.Group("/api/v1")
	api.Use(middleware.Middleware(d.JWTSecret))

	api.PUT("/users", userProxy)
	api.PATCH("/users/active", userProxy)

	// The availability cascade is service-to-service only; it never goes
	// through the gateway.
	api.PATCH("/products/availability", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	api.POST("/products", catalogProxy)
	api.PATCH("/products/:id", catalogProxy)
	api.DELETE("/products/:id", catalogProxy)

	return nil
}
