package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/vibesync/internal/app"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// Entry point for one paired endpoint.
// Joins the shared command channel
// Serves the control API and device sockets
//
// @title VibeSync Endpoint API
// @version 1.0
// @description Control surface of one paired haptic endpoint.
// @BasePath /
func main() {
	// fetch cfg
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// load global logger
	logger := Logger.BuildLogger(cfg.Debug, &Logger.FileSink{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logger.Sync()
	logger.Info("Logger initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// shared pub/sub primitive
	broker, err := app.NewBroker(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to connect broker: %v", err)
	}
	defer broker.Close()

	endpoint, err := app.NewApp(ctx, cfg, logger, broker)
	if err != nil {
		logger.Fatalf("Failed to build endpoint: %v", err)
	}
	endpoint.Start()

	// listen with graceful exit
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: endpoint.Router().Handler(),
	}
	go func() {
		logger.Infof("Serving %s on %s", cfg.EndpointName, cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server exiting: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown err %v", err)
	}
	if err := endpoint.Close(); err != nil {
		logger.Errorf("Endpoint close err %v", err)
	}
	logger.Info("Shutdown system")
}
