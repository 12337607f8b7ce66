package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
)

func TestDownloader_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	d := NewDownloader(config.MediaConfig{}, srv.Client(), logging.Nop())
	body, err := d.Download(context.Background(), srv.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDownloader_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(config.MediaConfig{}, srv.Client(), logging.Nop())
	_, err := d.Download(context.Background(), srv.URL+"/missing.jpg")
	require.Error(t, err)
	assert.False(t, isRetryableHTTPError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownloader_RelativeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/uploads/b.png", r.URL.Path)
		_, _ = w.Write([]byte("png"))
	}))
	defer srv.Close()

	d := NewDownloader(config.MediaConfig{PublicBaseUrl: srv.URL + "/"}, srv.Client(), logging.Nop())
	body, err := d.Download(context.Background(), "/uploads/b.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(body))
}

func TestDownloader_LocalFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.webp"), []byte("webp"), 0o644))

	d := NewDownloader(config.MediaConfig{UploadDir: dir}, nil, nil)
	body, err := d.Download(context.Background(), "/uploads/c.webp")
	require.NoError(t, err)
	assert.Equal(t, "webp", string(body))
}

func TestRetryDelay_Capped(t *testing.T) {
	assert.Equal(t, downloadRetryBaseDelay, retryDelay(0))
	assert.Equal(t, downloadRetryMaxDelay, retryDelay(10))
	assert.Equal(t, time.Duration(0), retryDelay(-1))
}

func TestLocalStorage_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewLocalStorage(config.MediaConfig{UploadDir: dir, PublicBaseUrl: "https://shop.example/"})

	url, err := s.Save(context.Background(), "../../etc/photo.jpg", []byte("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/uploads/photo.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpg", string(data))

	_, err = s.Save(context.Background(), "", []byte("x"))
	assert.Error(t, err)
}
