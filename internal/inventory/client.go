package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/pauljones0/stockwatch/internal/models"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) stockwatch/1.0"

// maxBodyBytes bounds how much of an inventory response is read.
const maxBodyBytes = 2 << 20

type Fetcher interface {
	FetchInventory(ctx context.Context, url string) (models.ProductInventory, error)
}

type Client struct {
	httpClient *http.Client
}

func New() *Client {
	// The shop API hands out session cookies on the first response and
	// expects them back on later polls.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		jar = nil
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// FetchInventory performs one GET against url and extracts the first
// product's inventory status. Any non-200 response, even with a valid body,
// yields ErrUnexpectedStatus; an empty product list or missing status yields
// ErrNoResult.
func (c *Client) FetchInventory(ctx context.Context, url string) (models.ProductInventory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.ProductInventory{}, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ProductInventory{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return models.ProductInventory{}, fmt.Errorf("%w: %d from %s", models.ErrUnexpectedStatus, resp.StatusCode, url)
	}

	var body models.InventoryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return models.ProductInventory{}, fmt.Errorf("failed to decode inventory from %s: %w", url, err)
	}

	return firstProduct(body)
}

func firstProduct(body models.InventoryResponse) (models.ProductInventory, error) {
	if len(body.Products.Product) == 0 {
		return models.ProductInventory{}, fmt.Errorf("%w: empty product list", models.ErrNoResult)
	}
	p := body.Products.Product[0]
	if p.InventoryStatus == nil || p.InventoryStatus.Status == "" {
		return models.ProductInventory{}, fmt.Errorf("%w: product %d has no inventory status", models.ErrNoResult, p.ID)
	}

	name := p.DisplayName
	if name == "" {
		name = p.Name
	}
	return models.ProductInventory{
		ProductID: p.ID,
		Name:      name,
		SKU:       p.SKU,
		Status:    p.InventoryStatus.Status,
	}, nil
}
