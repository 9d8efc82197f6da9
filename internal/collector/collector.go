// Package collector fetches product listing state from the storefront API.
// It serves both ends of a verification: capturing the baseline when the
// agent first views a product, and re-collecting current state later.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/baitwatch/baitwatch/internal/models"
)

// ShopClient provides access to the storefront product API.
type ShopClient struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// productResponse is the storefront's product payload.
type productResponse struct {
	ProductID   string         `json:"product_id"`
	Price       float64        `json:"price"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// NewShopClient creates a storefront client.
func NewShopClient(baseURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *ShopClient {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &ShopClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// ProductURL returns the public URL of a product listing, suitable for
// snapshot provenance.
func (c *ShopClient) ProductURL(productID string) string {
	return c.baseURL + "/api/products/" + url.PathEscape(productID)
}

// CollectCurrent fetches the current state of a listing. A listing that no
// longer exists yields (nil, nil): being gone is an expected outcome, not a
// collection failure.
func (c *ShopClient) CollectCurrent(ctx context.Context, productID string) (*models.ProductRecord, error) {
	resp, err := c.doRequest(ctx, c.ProductURL(productID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching product %s: %d", productID, resp.StatusCode)
	}

	var payload productResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", productID, err)
	}

	record := &models.ProductRecord{
		ProductID:   payload.ProductID,
		Price:       payload.Price,
		Description: payload.Description,
		Attributes:  payload.Attributes,
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid product payload for %s: %w", productID, err)
	}
	return record, nil
}

// doRequest performs HTTP request with retry logic
func (c *ShopClient) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
