package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/marketplace/pkg/catalogclient"
	pkgcfg "github.com/Skotchmaster/marketplace/pkg/config"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	loggingmw "github.com/Skotchmaster/marketplace/pkg/middleware/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"

	usercfg "github.com/Skotchmaster/marketplace/services/user/internal/config"
	"github.com/Skotchmaster/marketplace/services/user/internal/events"
	"github.com/Skotchmaster/marketplace/services/user/internal/httpserver"
	"github.com/Skotchmaster/marketplace/services/user/internal/models"
	"github.com/Skotchmaster/marketplace/services/user/internal/outbox"
	"github.com/Skotchmaster/marketplace/services/user/internal/repo"
	"github.com/Skotchmaster/marketplace/services/user/internal/service"
)

func main() {
	if err := godotenv.Load("services/user/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := usercfg.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	pkgcfg.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgcfg.MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")
	pkgcfg.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Credential{}, &models.OutboxMessage{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}
	codec := tokens.NewCodec([]byte(cfg.JWTSecret), cfg.AccessTokenMinutes, cfg.RefreshTokenMinutes)
	producer := events.NewProducer(cfg.KafkaBrokers)

	sessions := &service.SessionService{Repo: gormRepo, Codec: codec}
	deactivation := &service.DeactivationService{Repo: gormRepo, Events: producer}

	dispatcher := &outbox.Dispatcher{
		Repo:     gormRepo,
		Notifier: catalogclient.NewClient(cfg.CatalogURL),
		Interval: time.Duration(cfg.OutboxIntervalSeconds) * time.Second,
	}

	dispatcherCtx, dispatcherCancel := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go dispatcher.Run(dispatcherCtx)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: sessions},
		UserHandler: &httpserver.UserHTTP{Svc: sessions, Deactivation: deactivation},
		Secret:      []byte(cfg.JWTSecret),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("user service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	dispatcherCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	_ = producer.Close()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("user service stopped")
}
