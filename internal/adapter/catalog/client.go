// Package catalog implements the client for the remote content catalog:
// token authentication, purchased-product enumeration, and issuance of
// time-limited download URLs.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tmstorey/libmirror/internal/domain"
	"github.com/tmstorey/libmirror/internal/port"
)

const (
	defaultPageSize  = 50
	defaultRateLimit = 4 // API requests per second
)

// Client is a catalog API client
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter

	sessionMu sync.RWMutex
	session   string
}

// Ensure Client implements port.CatalogClient
var _ port.CatalogClient = (*Client)(nil)

// ClientConfig contains optional client configuration
type ClientConfig struct {
	Timeout   time.Duration // per-request timeout for API calls (default: 30s)
	RateLimit float64       // API requests per second (default: 4)
	PageSize  int           // products per listing page (default: 50)
}

// NewClient creates a new catalog API client authenticated by token
func NewClient(baseURL, token string, cfg *ClientConfig) *Client {
	timeout := 30 * time.Second
	limit := float64(defaultRateLimit)
	pageSize := defaultPageSize
	if cfg != nil {
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.RateLimit > 0 {
			limit = cfg.RateLimit
		}
		if cfg.PageSize > 0 {
			pageSize = cfg.PageSize
		}
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		baseURL:  baseURL,
		token:    token,
		pageSize: pageSize,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
	}
}

func (c *Client) getSession(ctx context.Context) (string, error) {
	c.sessionMu.RLock()
	session := c.session
	c.sessionMu.RUnlock()

	if session == "" {
		if err := c.Authenticate(ctx); err != nil {
			return "", err
		}
		c.sessionMu.RLock()
		session = c.session
		c.sessionMu.RUnlock()
	}

	return session, nil
}

func (c *Client) setSession(session string) {
	c.sessionMu.Lock()
	c.session = session
	c.sessionMu.Unlock()
}

// Authenticate exchanges the configured API token for a session token
func (c *Client) Authenticate(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", nil)
	if err != nil {
		return fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("auth request failed: status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	if auth.AccessToken == "" {
		return fmt.Errorf("auth response contained no access token")
	}

	c.setSession(auth.AccessToken)
	return nil
}

// ListPurchasedProducts enumerates every purchased product and its files,
// walking the listing page by page
func (c *Client) ListPurchasedProducts(ctx context.Context) ([]domain.Product, error) {
	session, err := c.getSession(ctx)
	if err != nil {
		return nil, err
	}

	var products []domain.Product

	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(c.pageSize))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/customer/products?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build listing request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+session)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("listing request failed: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("listing request failed: status %d", resp.StatusCode)
		}

		var payload productsResponse
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode listing page %d: %w", page, err)
		}

		for i := range payload.Products {
			products = append(products, payload.Products[i].toDomain())
		}

		if len(payload.Products) < c.pageSize {
			break
		}
	}

	return products, nil
}

// PrepareDownloadURL asks the catalog to issue a time-limited download URL
// for one item. Failures are reported as domain.ErrPrepareDownload so the
// pipeline can classify them.
func (c *Client) PrepareDownloadURL(ctx context.Context, productID, itemID int64) (string, error) {
	session, err := c.getSession(ctx)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]int64{
		"productId": productID,
		"itemId":    itemID,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/file-tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build file-task request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPrepareDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: status %d", domain.ErrPrepareDownload, resp.StatusCode)
	}

	var payload downloadURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPrepareDownload, err)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("%w: empty url in response", domain.ErrPrepareDownload)
	}

	return payload.URL, nil
}
