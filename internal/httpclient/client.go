package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDocumentSize caps how much of a response body Get will read.
const maxDocumentSize = 8 << 20

// HTTPClient defines the interface for an HTTP client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Default returns a client with a conservative timeout.
func Default() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// Document is a fetched response body with its declared media type.
type Document struct {
	Body        []byte
	ContentType string
	URL         string
}

// Get fetches url and returns its body. Non-2xx statuses become an *UpstreamError.
func Get(ctx context.Context, client HTTPClient, url string, headers map[string]string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			URL:        url,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, maxDocumentSize)
	}

	return &Document{Body: body, ContentType: resp.Header.Get("Content-Type"), URL: url}, nil
}
