package wildberries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalog-sync/internal/adapters/wildberries/dto"
	"catalog-sync/internal/config"
	"catalog-sync/internal/domain/model"
	"catalog-sync/internal/logging"
)

var ErrUnavailable = errors.New("marketplace product unavailable")

// UnavailableError carries the full endpoint attempt history of a failed fetch.
type UnavailableError struct {
	ProductID int64
	Attempts  model.Attempts
}

func (e *UnavailableError) Error() string {
	last, ok := e.Attempts.Last()
	if !ok {
		return fmt.Sprintf("marketplace product %d unavailable: no endpoints configured", e.ProductID)
	}
	return fmt.Sprintf("marketplace product %d unavailable after %d attempts: %v", e.ProductID, len(e.Attempts), last.Err)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) Unwrap() error {
	if last, ok := e.Attempts.Last(); ok {
		return last.Err
	}
	return nil
}

type FetcherService interface {
	FetchProduct(ctx context.Context, productID int64) (*Payload, model.Attempts, error)
	ImageExists(ctx context.Context, url string) bool
}

type Client struct {
	config     config.MarketplaceConfig
	httpClient *http.Client
	images     *ImageResolver
	logger     logging.LoggerService
}

func NewClient(cfg config.MarketplaceConfig, httpClient *http.Client, logger logging.LoggerService) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.ImageHost == "" {
		cfg.ImageHost = config.DefaultImageHost
	}
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = config.DefaultEndpoints
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		images:     NewImageResolver(cfg.ImageHost),
		logger:     logger,
	}
}

func (c *Client) Images() *ImageResolver {
	return c.images
}

// FetchProduct tries each endpoint in order and stops at the first one that
// returns a product. Endpoints are never queried in parallel.
func (c *Client) FetchProduct(ctx context.Context, productID int64) (*Payload, model.Attempts, error) {
	attempts := make(model.Attempts, 0, len(c.config.Endpoints)+1)

	for _, tpl := range c.config.Endpoints {
		endpoint := fmt.Sprintf(tpl, productID)
		started := time.Now()
		status, body, err := c.get(ctx, endpoint)
		attempt := model.Attempt{Target: endpoint, StatusCode: status, Duration: time.Since(started)}

		if err == nil {
			var card dto.Card
			var schema string
			card, schema, err = decodeCardResponse(body)
			if err == nil {
				attempts = append(attempts, attempt)
				payload := toPayload(card, schema)
				if payload.ID == 0 {
					payload.ID = productID
				}
				attempts = append(attempts, c.enrich(ctx, payload))
				return payload, attempts, nil
			}
		}

		attempt.Err = err
		attempts = append(attempts, attempt)
		c.logger.LogWarning("marketplace endpoint failed",
			zap.Int64("product_id", productID),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	return nil, attempts, &UnavailableError{ProductID: productID, Attempts: attempts}
}

// enrich fetches card.json from the basket host. Its failure never fails the fetch.
func (c *Client) enrich(ctx context.Context, payload *Payload) model.Attempt {
	target := c.images.CardInfoURL(payload.ID)
	started := time.Now()
	status, body, err := c.get(ctx, target)
	attempt := model.Attempt{Target: target, StatusCode: status}
	if err == nil {
		var info dto.CardInfo
		if err = json.Unmarshal(body, &info); err == nil {
			payload.enrich(info)
		}
	}
	attempt.Err = err
	attempt.Duration = time.Since(started)
	if err != nil {
		c.logger.Log("marketplace card info unavailable", zap.Int64("product_id", payload.ID), zap.Error(err))
	}
	return attempt
}

// ImageExists probes an image URL with HEAD.
func (c *Client) ImageExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) setHeaders(req *http.Request) {
	origin := strings.TrimRight(c.config.Origin, "/")
	if origin == "" {
		origin = config.DefaultOrigin
	}
	userAgent := c.config.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")
}

func (c *Client) get(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil, fmt.Errorf("marketplace request failed: %s", resp.Status)
	}
	return resp.StatusCode, respBody, nil
}
