package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/octobees/contacts-manager/api/internal/config"
	"github.com/octobees/contacts-manager/api/internal/database"
	"github.com/octobees/contacts-manager/api/internal/handler"
	"github.com/octobees/contacts-manager/api/internal/metrics"
	middlewarepkg "github.com/octobees/contacts-manager/api/internal/middleware"
	"github.com/octobees/contacts-manager/api/internal/repository"
	"github.com/octobees/contacts-manager/api/internal/router"
	"github.com/octobees/contacts-manager/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	contactsRepo, closeStore, err := openContactsStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open contact store: %v", err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []service.ContactsServiceOption{service.WithMetrics(m)}
	if cfg.PhoneRegion != "" {
		opts = append(opts, service.WithNormalizer(service.NewContactNormalizer(cfg.PhoneRegion)))
	}
	contactsService := service.NewContactsService(contactsRepo, opts...)
	contactsHandler := handler.NewContactsHandler(contactsService)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(middlewarepkg.Metrics(m))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, "X-Request-ID"},
	}))

	router.Register(e, cfg, reg, router.Handlers{Contacts: contactsHandler})

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s store=%s", cfg.Port, cfg.StoreDriver)
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// openContactsStore connects the configured backend and returns a cleanup func.
func openContactsStore(ctx context.Context, cfg *config.Config) (repository.ContactsRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Printf("mongodb disconnect failed: %v", err)
			}
		}
		return repository.NewMongoContactsRepository(client.Database(cfg.MongoDatabase)), closeFn, nil
	case config.DriverMemory:
		log.Printf("using in-memory contact store; data is lost on restart")
		return repository.NewInmemContactsRepository(), func() {}, nil
	case config.DriverPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureContactsSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPGXContactsRepository(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
