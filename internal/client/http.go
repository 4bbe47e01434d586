package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient is a client for the reasons HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client targeting baseURL (e.g.
// "http://localhost:3456").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Load returns the current document, or nil when the server has none.
func (c *HTTPClient) Load(ctx context.Context) (json.RawMessage, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/data", nil, &resp); err != nil {
		return nil, err
	}
	if string(resp.Data) == "null" {
		return nil, nil
	}
	return resp.Data, nil
}

// Save replaces the document. An empty message lets the server pick the
// default snapshot label.
func (c *HTTPClient) Save(ctx context.Context, reasons json.RawMessage, message string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/save", saveRequest{Reasons: reasons, Message: message}, nil)
}

// Version replaces the document and records a version snapshot.
func (c *HTTPClient) Version(ctx context.Context, reasons json.RawMessage, label string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/version", versionRequest{Reasons: reasons, Label: label}, nil)
}

// Status returns recent snapshots and remote detection.
func (c *HTTPClient) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.doJSON(ctx, http.MethodGet, "/api/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Health returns the server's snapshot counters.
func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// doJSON performs an HTTP request with an optional JSON body and decodes the
// response into result. If result is nil, only the envelope is checked.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.OK {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
