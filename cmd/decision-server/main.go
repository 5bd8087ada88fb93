// restockd/cmd/decision-server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/autopo-py/restockd/internal/api"
	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
	"github.com/andresuchdata/autopo-py/restockd/internal/cache"
	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/pipeline/decision"
	"github.com/andresuchdata/autopo-py/restockd/internal/service"
	"github.com/andresuchdata/autopo-py/restockd/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Configure("decision-server", cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load artifacts; missing ones only disable the endpoints that need them
	store := artifact.Load(context.Background(), cfg, artifact.DecisionCapabilities...)

	decisionCache, err := cache.NewDecisionCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Decision cache unavailable, continuing without it")
		decisionCache = cache.NewNoopDecisionCache()
	}

	// Initialize services
	pipeline := decision.NewPipeline(store, cfg.Forecast)
	services := &api.Services{
		Decision:  service.NewDecisionService(pipeline, decisionCache),
		Inventory: service.NewInventoryService(cfg.Artifacts.DataPath(cfg.Artifacts.ShipmentsFile)),
		Status:    store,
	}

	// Initialize HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(services, cfg.Server.AllowedOrigins),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting decision server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
