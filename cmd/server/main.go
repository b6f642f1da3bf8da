package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/config"
	"github.com/kahvecikaan/product-catalog/internal/domain"
	"github.com/kahvecikaan/product-catalog/internal/events"
	"github.com/kahvecikaan/product-catalog/internal/files"
	"github.com/kahvecikaan/product-catalog/internal/metrics"
	"github.com/kahvecikaan/product-catalog/internal/repository"
	"github.com/kahvecikaan/product-catalog/internal/service"
	httpTransport "github.com/kahvecikaan/product-catalog/internal/transport/http"
	websocketTransport "github.com/kahvecikaan/product-catalog/internal/transport/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		hclog.Default().Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize the logger
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "product-catalog",
		Level: cfg.LogLevel,
	})

	// Create a standard logger for the HTTP server
	standardLogger := logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})

	// The event bus is shared between the product service and websocket clients
	eventBus := events.NewEventBus[any]()
	eventBus.OnDrop = func(event any) {
		metrics.EventsDropped.Inc()
		logger.Named("events").Warn("Dropped event for slow subscriber", "event", events.Name(event))
	}

	prodRepo := repository.NewMemoryProductRepository()
	factory := domain.NewFactory(domain.NewValidation())

	ps := service.NewProductService(
		prodRepo,
		factory,
		eventBus,
		logger.Named("product-service"),
	)

	imageStore, err := files.NewLocal(cfg.ImageBasePath, cfg.ImageMaxBytes)
	if err != nil {
		logger.Error("Unable to create image storage", "path", cfg.ImageBasePath, "error", err)
		os.Exit(1)
	}

	ih := httpTransport.NewImageHandler(ps, imageStore, logger.Named("images"))

	router := httpTransport.NewRouter(httpTransport.RouterOptions{
		Products:    httpTransport.NewProductHandler(ps, ih, logger.Named("http-handler")),
		Images:      ih,
		WebSocket:   websocketTransport.NewHandler(logger.Named("websocket-handler"), eventBus, cfg.CORSOrigins),
		Logger:      logger.Named("http"),
		CORSOrigins: cfg.CORSOrigins,
	})

	// Create the HTTP Server
	server := &http.Server{
		Addr:         cfg.BindAddress,
		Handler:      router,
		ErrorLog:     standardLogger,
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "bind_address", cfg.BindAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error starting server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutting down server", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// closing the bus ends open websocket streams; Shutdown does not wait for hijacked connections
	eventBus.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", "error", err)
	}
}
