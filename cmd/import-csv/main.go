// one-shot csv import: go run ./cmd/import-csv -file products.csv [-category-map map.yaml]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/app/usecases"
	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
)

func main() {
	file := flag.String("file", "", "csv file to import")
	mappingFile := flag.String("category-map", "", "yaml file mapping category names to ids")
	validateOnly := flag.Bool("validate-only", false, "validate rows without writing")
	update := flag.Bool("update", false, "update products that already exist")
	skipInvalid := flag.Bool("skip-invalid", false, "continue past invalid rows")
	flag.Parse()

	if *file == "" {
		fmt.Println("usage: import-csv -file products.csv [-category-map map.yaml] [-validate-only] [-update] [-skip-invalid]")
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

	opts := usecases.CSVOptions{
		ValidateOnly:   *validateOnly,
		UpdateExisting: *update,
		SkipInvalid:    *skipInvalid,
	}
	if *mappingFile != "" {
		if opts.CategoryMapping, err = config.LoadCategoryMapping(*mappingFile); err != nil {
			logger.LogError("Failed to load category mapping", err)
			os.Exit(1)
		}
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.LogError("Failed to open csv", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.LogError("Failed to open store", err)
		os.Exit(1)
	}
	defer closeStore()

	result, err := usecases.NewImportCSV(st, logger).Run(ctx, f, opts)
	if err != nil {
		logger.LogError("CSV import failed", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	if result.HasErrors() {
		os.Exit(3)
	}
}
