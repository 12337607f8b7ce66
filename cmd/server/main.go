// admin API: marketplace import, csv/archive import and catalog export
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"catalog-sync/internal/adapters/archive"
	"catalog-sync/internal/adapters/media"
	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/adapters/wildberries"
	"catalog-sync/internal/api"
	"catalog-sync/internal/app/usecases"
	"catalog-sync/internal/config"
	infrahttp "catalog-sync/internal/infra/http"
	"catalog-sync/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("error %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Printf("error %v\n", err)
		os.Exit(1)
	}
	defer logger.Zap().Sync()

	st, closeStore, err := store.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.LogError("Failed to open store", err)
		os.Exit(1)
	}
	defer closeStore()

	httpClient := infrahttp.NewClient(cfg.HTTPTimeout())
	wbClient := wildberries.NewClient(cfg.Marketplace, httpClient, logger)
	downloader := media.NewDownloader(cfg.Media, httpClient, logger)

	services := api.Services{
		Marketplace: usecases.NewImportMarketplace(wbClient, wildberries.NewNormalizer(wbClient.Images()), st, logger),
		CSV:         usecases.NewImportCSV(st, logger),
		Archive:     usecases.NewImportArchive(st, media.NewLocalStorage(cfg.Media), logger),
		Export:      usecases.NewExportCatalog(st, archive.NewWriter(downloader, logger, cfg.Media.Workers), logger),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(cfg, services, logger),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError("Failed to start server", err)
			os.Exit(1)
		}
	}()
	logger.Log("Server started", zap.String("address", srv.Addr), zap.String("store", cfg.StoreDriver))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.LogError("Server forced to shutdown", err)
	}
	logger.Log("Server exited")
}
