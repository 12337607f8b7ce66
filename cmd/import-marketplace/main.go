// one-shot marketplace import: go run ./cmd/import-marketplace -category <id> <url|id>...
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog-sync/internal/adapters/store"
	"catalog-sync/internal/adapters/wildberries"
	"catalog-sync/internal/app/usecases"
	"catalog-sync/internal/config"
	infrahttp "catalog-sync/internal/infra/http"
	"catalog-sync/internal/logging"
)

func main() {
	categoryID := flag.String("category", "", "target category id")
	listFile := flag.String("file", "", "file with one marketplace url or id per line")
	update := flag.Bool("update", false, "update products that already exist")
	skip := flag.Bool("skip", false, "leave existing products untouched")
	flag.Parse()

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

	urls := flag.Args()
	if *listFile != "" {
		lines, err := readLines(*listFile)
		if err != nil {
			logger.LogError("Failed to read url list", err)
			os.Exit(1)
		}
		urls = append(urls, lines...)
	}
	if len(urls) == 0 {
		fmt.Println("usage: import-marketplace -category <id> [-file urls.txt] <url|id>...")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.LogError("Failed to open store", err)
		os.Exit(1)
	}
	defer closeStore()

	httpClient := infrahttp.NewClient(cfg.Marketplace.Timeout)
	wbClient := wildberries.NewClient(cfg.Marketplace, httpClient, logger)
	importer := usecases.NewImportMarketplace(wbClient, wildberries.NewNormalizer(wbClient.Images()), st, logger)

	result, err := importer.Run(ctx, urls, usecases.MarketplaceOptions{
		CategoryID:     *categoryID,
		SkipExisting:   *skip,
		UpdateExisting: *update,
		VerifyImages:   cfg.Marketplace.VerifyImages,
	})
	if err != nil {
		logger.LogError("Marketplace import failed", err)
		os.Exit(1)
	}
	printResult(result)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func printResult(result any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
