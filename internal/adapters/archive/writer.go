package archive

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalog-sync/internal/adapters/media"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
)

const (
	DataFile   = "data.json"
	MediaDir   = "media/"
	ReadmeFile = "README.md"
)

type Writer struct {
	downloader media.DownloaderService
	logger     logging.LoggerService
	workers    int
}

func NewWriter(downloader media.DownloaderService, logger logging.LoggerService, workers int) *Writer {
	if logger == nil {
		logger = logging.Nop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Writer{
		downloader: downloader,
		logger:     logger,
		workers:    workers,
	}
}

// WriteJSON writes the document pretty-printed.
func (w *Writer) WriteJSON(out io.Writer, doc *model.ExportDocument) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export document: %w", err)
	}
	return nil
}

type downloaded struct {
	data    []byte
	attempt model.Attempt
}

// WriteZIP writes data.json, the media folder and README.md. Media downloads
// run on a bounded pool but entries are written in media index order, so the
// archive layout does not depend on download timing. Failed downloads are
// left out and reported in the returned attempts.
func (w *Writer) WriteZIP(ctx context.Context, out io.Writer, doc *model.ExportDocument) (model.Attempts, error) {
	files := w.download(ctx, doc.MediaIndex)

	zw := zip.NewWriter(out)

	dataEntry, err := zw.Create(DataFile)
	if err != nil {
		return nil, err
	}
	if err := w.WriteJSON(dataEntry, doc); err != nil {
		return nil, err
	}

	if _, err := zw.CreateHeader(&zip.FileHeader{Name: MediaDir, Method: zip.Store, Modified: doc.ExportedAt}); err != nil {
		return nil, err
	}

	attempts := make(model.Attempts, 0, len(files))
	written := 0
	for i, entry := range doc.MediaIndex {
		f := files[i]
		attempts = append(attempts, f.attempt)
		if f.data == nil {
			continue
		}
		header := &zip.FileHeader{Name: MediaDir + entry.FileName, Method: zip.Deflate, Modified: doc.ExportedAt}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return attempts, err
		}
		if _, err := fw.Write(f.data); err != nil {
			return attempts, err
		}
		written++
	}

	readme, err := zw.Create(ReadmeFile)
	if err != nil {
		return attempts, err
	}
	if _, err := io.WriteString(readme, renderReadme(doc, written)); err != nil {
		return attempts, err
	}

	if err := zw.Close(); err != nil {
		return attempts, fmt.Errorf("close zip: %w", err)
	}

	failed := attempts.Failed()
	w.logger.Log("Export archive written",
		zap.Int("products", len(doc.Products)),
		zap.Int("categories", len(doc.Categories)),
		zap.Int("media", written),
		zap.Int("media_failed", len(failed)),
	)
	return attempts, nil
}

func (w *Writer) download(ctx context.Context, entries []model.MediaEntry) []downloaded {
	results := make([]downloaded, len(entries))
	if w.downloader == nil {
		for i, entry := range entries {
			results[i].attempt = model.Attempt{Target: entry.OriginalURL, Err: fmt.Errorf("no media downloader configured")}
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(w.workers)
	for i, entry := range entries {
		g.Go(func() error {
			started := time.Now()
			data, err := w.downloader.Download(ctx, entry.OriginalURL)
			results[i] = downloaded{
				data: data,
				attempt: model.Attempt{
					Target:   entry.OriginalURL,
					Err:      err,
					Duration: time.Since(started),
				},
			}
			if err != nil {
				results[i].data = nil
				w.logger.LogWarning("Media download failed", zap.String("url", entry.OriginalURL), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func renderReadme(doc *model.ExportDocument, mediaWritten int) string {
	variants := 0
	for _, p := range doc.Products {
		variants += len(p.Variants)
	}
	var b strings.Builder
	b.WriteString("# Catalog export\n\n")
	fmt.Fprintf(&b, "Exported at: %s\n", doc.ExportedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Schema version: %s\n\n", doc.SchemaVersion)
	b.WriteString("## Contents\n\n")
	fmt.Fprintf(&b, "- Products: %d\n", len(doc.Products))
	fmt.Fprintf(&b, "- Variants: %d\n", variants)
	fmt.Fprintf(&b, "- Categories: %d\n", len(doc.Categories))
	fmt.Fprintf(&b, "- Media files: %d of %d\n\n", mediaWritten, len(doc.MediaIndex))
	b.WriteString("## Files\n\n")
	fmt.Fprintf(&b, "- `%s`: the catalog document. Variant prices are deltas from the product price.\n", DataFile)
	fmt.Fprintf(&b, "- `%s`: media files named as in `mediaIndex[].fileName`.\n", MediaDir)
	return b.String()
}
