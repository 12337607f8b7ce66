package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog-sync/internal/app/usecases"
	"catalog-sync/internal/logging"
	"catalog-sync/pkg/errors"
)

type handlers struct {
	services Services
	logger   logging.LoggerService
}

type marketplaceRequest struct {
	URLs           []string `json:"urls" binding:"required,min=1,dive,required"`
	CategoryID     string   `json:"categoryId" binding:"required"`
	SkipExisting   bool     `json:"skipExisting"`
	UpdateExisting bool     `json:"updateExisting"`
	VerifyImages   bool     `json:"verifyImages"`
}

// importMarketplace handles POST /v1/marketplace/import
func (h *handlers) importMarketplace(c *gin.Context) {
	var req marketplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	result, err := h.services.Marketplace.Run(c.Request.Context(), req.URLs, usecases.MarketplaceOptions{
		CategoryID:     req.CategoryID,
		SkipExisting:   req.SkipExisting,
		UpdateExisting: req.UpdateExisting,
		VerifyImages:   req.VerifyImages,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// importCSV handles POST /v1/import/csv. The file comes as multipart field
// "file" or as the raw request body.
func (h *handlers) importCSV(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := usecases.CSVOptions{
		ValidateOnly:   flag(c, "validateOnly"),
		UpdateExisting: flag(c, "updateExisting"),
		SkipInvalid:    flag(c, "skipInvalid"),
	}
	if raw := param(c, "categoryMapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.CategoryMapping); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "categoryMapping must be a JSON object", "details": err.Error()})
			return
		}
	}

	result, err := h.services.CSV.Run(c.Request.Context(), bytes.NewReader(data), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// importArchive handles POST /v1/import/archive
func (h *handlers) importArchive(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if mtype := mimetype.Detect(data); !isZip(mtype) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "archive must be a zip file", "details": mtype.String()})
		return
	}

	result, err := h.services.Archive.Run(c.Request.Context(), data, usecases.ArchiveOptions{
		SkipExisting:   flag(c, "skipExisting"),
		UpdateExisting: flag(c, "updateExisting"),
		ImportMedia:    flag(c, "importMedia"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// export handles GET /v1/export?format=zip|json|xlsx. The file is built in
// memory first so a failure still gets a JSON error response.
func (h *handlers) export(c *gin.Context) {
	format, err := usecases.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	attempts, err := h.services.Export.Run(c.Request.Context(), &buf, format)
	if err != nil {
		h.fail(c, err)
		return
	}
	if failed := attempts.Failed(); len(failed) > 0 {
		c.Header("X-Media-Failed", strconv.Itoa(len(failed)))
	}

	name := fmt.Sprintf("catalog-export-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *handlers) fail(c *gin.Context, err error) {
	var (
		structural *errors.ErrStructural
		validation *errors.ErrValidation
		notFound   *errors.ErrNotFound
	)
	switch {
	case stderrors.As(err, &structural):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": structural.Error()})
	case stderrors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "fields": validation.Fields})
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	default:
		h.logger.LogError("Request failed", err, zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func readUpload(c *gin.Context) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxUploadSize {
			return nil, fmt.Errorf("file is larger than %d bytes", maxUploadSize)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, stderrors.New("file is required")
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("file is larger than %d bytes", maxUploadSize)
	}
	return data, nil
}

// param reads a multipart form value, falling back to the query string.
func param(c *gin.Context, name string) string {
	if v, ok := c.GetPostForm(name); ok {
		return v
	}
	return c.Query(name)
}

func flag(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(param(c, name))
	return err == nil && v
}

// isZip accepts zip and every zip-based format (xlsx, jar, ...).
func isZip(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}
