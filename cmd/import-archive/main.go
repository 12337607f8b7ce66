// one-shot archive restore: go run ./cmd/import-archive -file export.zip [-update] [-media]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog-sync/internal/adapters/media"
	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/app/usecases"
	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
)

func main() {
	file := flag.String("file", "", "export zip to import")
	skip := flag.Bool("skip", false, "leave existing records untouched")
	update := flag.Bool("update", false, "update records that already exist")
	importMedia := flag.Bool("media", false, "restore media files into the upload dir")
	flag.Parse()

	if *file == "" {
		fmt.Println("usage: import-archive -file export.zip [-skip] [-update] [-media]")
		os.Exit(2)
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

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.LogError("Failed to read archive", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.LogError("Failed to open store", err)
		os.Exit(1)
	}
	defer closeStore()

	importer := usecases.NewImportArchive(st, media.NewLocalStorage(cfg.Media), logger)
	result, err := importer.Run(ctx, data, usecases.ArchiveOptions{
		SkipExisting:   *skip,
		UpdateExisting: *update,
		ImportMedia:    *importMedia,
	})
	if err != nil {
		logger.LogError("Archive import failed", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
