package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tmstorey/libmirror/internal/port"
)

const defaultDownloadTimeout = 5 * time.Minute

// Fetcher downloads file content from issued URLs. It uses its own client
// so download timeouts and transport tuning stay independent from the API
// client.
type Fetcher struct {
	httpClient *http.Client
}

// Ensure Fetcher implements port.Fetcher
var _ port.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a content fetcher with the given total-download
// timeout. Zero means the default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &Fetcher{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Fetch retrieves the full content at url, following redirects. Any
// transport error or non-2xx status is returned as an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	// Accept-Encoding is left to the transport so decompression stays
	// transparent and the bytes we hash match what the server reported on.
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "*/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download request failed: status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}

	return content, nil
}
