// restockd/cmd/restock-server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/pipeline/restock"
	"github.com/andresuchdata/autopo-py/restockd/internal/restockapi"
	"github.com/andresuchdata/autopo-py/restockd/internal/service"
	"github.com/andresuchdata/autopo-py/restockd/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Configure("restock-server", cfg.Server.Mode)

	store := artifact.Load(context.Background(), cfg, artifact.RestockCapabilities...)
	if !store.Available(artifact.RestockCapabilities...) {
		logger.Log.Warn().Msg("Restock model is not loaded; /api/recommend_batch will return 500")
	}

	engine := restock.NewEngine(store, cfg.Restock)
	handler := restockapi.NewRouter(service.NewRestockService(engine), store, cfg.Server.RestockAllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.RestockPort,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.RestockPort).Msg("Starting restock server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

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
