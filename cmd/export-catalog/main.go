// one-shot catalog export: go run ./cmd/export-catalog -format zip -out catalog.zip
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"catalog-sync/internal/adapters/archive"
	"catalog-sync/internal/adapters/media"
	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/app/usecases"
	"catalog-sync/internal/config"
	infrahttp "catalog-sync/internal/infra/http"
	"catalog-sync/internal/logging"
)

func main() {
	rawFormat := flag.String("format", "zip", "zip, json or xlsx")
	out := flag.String("out", "", "output file (default catalog-export.<format>)")
	flag.Parse()

	format, err := usecases.ParseExportFormat(*rawFormat)
	if err != nil {
		fmt.Printf("error %v\n", err)
		os.Exit(2)
	}
	if *out == "" {
		*out = "catalog-export." + string(format)
	}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.LogError("Failed to open store", err)
		os.Exit(1)
	}
	defer closeStore()

	f, err := os.Create(*out)
	if err != nil {
		logger.LogError("Failed to create output", err)
		os.Exit(1)
	}
	defer f.Close()

	downloader := media.NewDownloader(cfg.Media, infrahttp.NewClient(cfg.Media.Timeout), logger)
	exporter := usecases.NewExportCatalog(st, archive.NewWriter(downloader, logger, cfg.Media.Workers), logger)

	attempts, err := exporter.Run(ctx, f, format)
	if err != nil {
		logger.LogError("Catalog export failed", err)
		os.Exit(1)
	}
	for _, a := range attempts.Failed() {
		logger.LogWarning("Media not exported", zap.String("url", a.Target), zap.Error(a.Err))
	}
	logger.Log("Export written", zap.String("file", *out), zap.Int("media_failed", len(attempts.Failed())))
}
