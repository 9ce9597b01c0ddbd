package storage

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"
)

const (
	httpFetchAttempts = 3
	userAgent         = "Go-RealTone/1.0"
)

// HTTPImageFetcher downloads images over HTTP(S), retrying transient failures
type HTTPImageFetcher struct {
	client  *http.Client
	backoff time.Duration
}

// NewHTTPImageFetcher creates a fetcher whose client gives up after timeout
func NewHTTPImageFetcher(timeout time.Duration) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		// Single-image downloads; keep the pool small
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
	}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", userAgent)

	var lastErr error
	for attempt := 0; attempt < httpFetchAttempts; attempt++ {
		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			return decodeImage(resp.Body)
		} else {
			resp.Body.Close()
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				// client errors will not improve on retry
				return nil, fmt.Errorf("failed to fetch image after %d attempts: client error: status code %d",
					attempt+1, resp.StatusCode)
			}
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}

		if attempt < httpFetchAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", httpFetchAttempts, lastErr)
}
