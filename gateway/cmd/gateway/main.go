package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	pkgcfg "github.com/Skotchmaster/marketplace/pkg/config"
	"github.com/Skotchmaster/marketplace/pkg/logging"

	"github.com/Skotchmaster/marketplace/gateway/internal/config"
	"github.com/Skotchmaster/marketplace/gateway/internal/httpserver"
)

func main() {
	if err := godotenv.Load("gateway/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	pkgcfg.MustNonEmpty(cfg.UserURL, "USER_URL")
	pkgcfg.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	pkgcfg.MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", "gateway")
	slog.SetDefault(logger)

	e := echo.New()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	if err := httpserver.Register(e, &httpserver.Deps{
		UserURL:    cfg.UserURL,
		CatalogURL: cfg.CatalogURL,
		JWTSecret:  []byte(cfg.JWTSecret),
		Logger:     logger,
	}); err != nil {
		log.Fatalf("routes: %v", err)
	}

	go func() {
		log.Printf("gateway listening on %s", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}

	log.Println("gateway stopped")
}
