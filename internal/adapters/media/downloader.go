package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
)

// MaxFileSize caps a single media file read into memory.
const MaxFileSize = 50 << 20

type DownloaderService interface {
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// Downloader fetches media by URL. Relative URLs are resolved against the
// public base URL, or read from the upload directory when no base is set.
type Downloader struct {
	config     config.MediaConfig
	httpClient *http.Client
	logger     logging.LoggerService
	retryMax   int
}

func NewDownloader(cfg config.MediaConfig, httpClient *http.Client, logger logging.LoggerService) *Downloader {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Downloader{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		retryMax:   downloadRetryMax,
	}
}

func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return nil, fmt.Errorf("empty media url")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		base := strings.TrimRight(d.config.PublicBaseUrl, "/")
		if base == "" {
			return d.readLocal(target)
		}
		target = base + "/" + strings.TrimLeft(target, "/")
	}

	var lastErr error
	for attempt := 0; attempt < d.retryMax; attempt++ {
		body, err := d.get(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryableHTTPError(err) {
			break
		}
		d.logger.LogWarning("media download retry", zap.String("url", target), zap.Int("attempt", attempt+1), zap.Error(err))
		if err := sleepWithContext(ctx, retryDelay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (d *Downloader) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, newHTTPStatusError(resp.StatusCode, resp.Status, body)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxFileSize {
		return nil, fmt.Errorf("media %s exceeds %d bytes", target, MaxFileSize)
	}
	return body, nil
}

func (d *Downloader) readLocal(rawPath string) ([]byte, error) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(u.Path)
	if name == "." || name == "/" {
		return nil, fmt.Errorf("media path %q has no file name", rawPath)
	}
	return os.ReadFile(filepath.Join(d.config.UploadDir, name))
}
