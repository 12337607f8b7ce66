package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog-sync/internal/config"
)

type StorageService interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
}

// LocalStorage writes files into the upload directory and returns their public URL.
type LocalStorage struct {
	dir     string
	baseUrl string
}

func NewLocalStorage(cfg config.MediaConfig) *LocalStorage {
	return &LocalStorage{
		dir:     cfg.UploadDir,
		baseUrl: strings.TrimRight(cfg.PublicBaseUrl, "/"),
	}
}

func (s *LocalStorage) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.Base(filepath.Clean("/" + fileName))
	if name == "/" || name == "." || name == "" {
		return "", fmt.Errorf("invalid media file name %q", fileName)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write media %s: %w", name, err)
	}
	return s.baseUrl + "/uploads/" + name, nil
}
