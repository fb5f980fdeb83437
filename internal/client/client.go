// Package client is a typed REST client for the asset registry API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nerrad567/asset-registry/internal/asset"
)

const (
	// DefaultTimeout applies when New is given a non-positive timeout.
	DefaultTimeout = 10 * time.Second

	// fallbackMessage is used when a failed response carries no message.
	fallbackMessage = "Request failed"

	assetsPath = "/api/assets"
)

// APIError is a non-2xx answer from the server. Message is the server's
// user-facing message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Total   int             `json:"total"`
}

// Client calls the /api/assets endpoints. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// New creates a client for the server at baseURL.
//
// Requests are never retried: a retried create could report a conflict
// for a row the first attempt wrote.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
}

// List returns every asset, newest first, and the server-reported total.
func (c *Client) List(ctx context.Context) ([]asset.Asset, int, error) {
	env, err := c.do(ctx, http.MethodGet, assetsPath, nil)
	if err != nil {
		return nil, 0, err
	}
	var assets []asset.Asset
	if err := decodeData(env, &assets); err != nil {
		return nil, 0, err
	}
	return assets, env.Total, nil
}

// Get fetches one asset.
func (c *Client) Get(ctx context.Context, id string) (*asset.Asset, error) {
	env, err := c.do(ctx, http.MethodGet, assetPath(id), nil)
	if err != nil {
		return nil, err
	}
	var a asset.Asset
	if err := decodeData(env, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create stores a new asset.
func (c *Client) Create(ctx context.Context, p asset.Payload) (*asset.Asset, error) {
	env, err := c.do(ctx, http.MethodPost, assetsPath, p)
	if err != nil {
		return nil, err
	}
	var a asset.Asset
	if err := decodeData(env, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update replaces every writable field of asset id.
func (c *Client) Update(ctx context.Context, id string, p asset.Payload) (*asset.Asset, error) {
	env, err := c.do(ctx, http.MethodPut, assetPath(id), p)
	if err != nil {
		return nil, err
	}
	var a asset.Asset
	if err := decodeData(env, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes asset id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, assetPath(id), nil)
	return err
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return nil, fmt.Errorf("client: GET /health: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: fallbackMessage}
	}
	var h Health
	if err := json.Unmarshal(resp.Body(), &h); err != nil {
		return nil, fmt.Errorf("client: decoding health response: %w", err)
	}
	return &h, nil
}

// do performs a request and unwraps the envelope. Non-2xx responses and
// envelopes with success=false become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.IsError() {
		// Non-JSON error bodies (proxies, load balancers) get the fallback.
		return nil, &APIError{Status: resp.StatusCode(), Message: messageOr(env.Message)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("client: decoding %s %s response: %w", method, path, decodeErr)
	}
	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode(), Message: messageOr(env.Message)}
	}
	return &env, nil
}

func decodeData(env *envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("client: response has no data")
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("client: decoding response data: %w", err)
	}
	return nil
}

func assetPath(id string) string {
	return assetsPath + "/" + url.PathEscape(id)
}

func messageOr(msg string) string {
	if msg == "" {
		return fallbackMessage
	}
	return msg
}
