package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/ordershop/pkg/models"
	"go.uber.org/zap"
)

// CatalogClient fetches product records from the catalog service and requests
// stock decrements on them. DeductStock is not idempotent: a lost
// acknowledgment is indistinguishable from a failed decrement, so callers
// must not blindly retry it.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewCatalogClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

// GetProduct resolves a product by id via GET {catalog}/products/{id}.
func (c *CatalogClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUnreachable, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUnreachable, url, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding product response: %v", ErrMalformed, err)
	}

	var product models.Product
	if err := json.Unmarshal(env.Data, &product); err != nil {
		return nil, fmt.Errorf("%w: decoding product payload: %v", ErrMalformed, err)
	}

	c.logger.Debug("Resolved product",
		zap.String("product_id", id),
		zap.Float64("price", product.Price),
		zap.Int("stock", product.Stock))

	return &product, nil
}

// DeductStock requests a stock decrement via
// PATCH {catalog}/products/{id}/stock with body {"quantity": n}.
func (c *CatalogClient) DeductStock(ctx context.Context, id string, quantity int) error {
	url := fmt.Sprintf("%s/products/%s/stock", c.baseURL, id)

	body, err := json.Marshal(map[string]int{"quantity": quantity})
	if err != nil {
		return fmt.Errorf("%w: encoding stock request: %v", ErrUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: PATCH %s: %v", ErrUnreachable, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		c.logger.Debug("Stock deducted",
			zap.String("product_id", id),
			zap.Int("quantity", quantity))
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	case resp.StatusCode == http.StatusBadRequest:
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("%w: stock deduction for product %s", ErrRejected, id)
		}
		return fmt.Errorf("%w: %s", ErrRejected, env.Error)
	default:
		return fmt.Errorf("%w: PATCH %s returned %d", ErrUnreachable, url, resp.StatusCode)
	}
}
