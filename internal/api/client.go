// Package api is the JSON-over-HTTP client for the sales agent backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is where the backend listens in a local setup.
const DefaultBaseURL = "http://localhost:8000/api"

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL    string
	Headers    map[string]string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client from opts, applying defaults for unset fields.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	return &Client{
		baseURL:    baseURL,
		headers:    headers,
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the normalized base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs method on path. A non-nil body is JSON encoded; a
// non-nil out receives the decoded JSON response. Every failure is
// returned as *Error.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	reqID := uuid.New().String()
	start := time.Now()

	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return &Error{Method: method, Path: path, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Method: method, Path: path, Err: fmt.Errorf("build request: %w", err)}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "req_id", reqID, "method", method, "path", path,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return &Error{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("api response",
		"req_id", reqID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		c.logger.Error("api request failed", "req_id", reqID, "method", method, "path", path, "status", resp.StatusCode)
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Message: parseErrorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, out)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// TestConnection probes the backend and never fails; the outcome is
// reported in the returned Connection.
func (c *Client) TestConnection(ctx context.Context) Connection {
	h, err := c.Health(ctx)
	if err != nil {
		return Connection{Connected: false, Error: err.Error()}
	}
	return Connection{
		Connected: true,
		Status:    h.Status,
		Service:   h.Service,
		Version:   h.Version,
	}
}

// ListCustomers calls GET /customers.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	if err := c.Get(ctx, "/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// GetCustomer calls GET /customers/{id}.
func (c *Client) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	var customer Customer
	if err := c.Get(ctx, "/customers/"+strconv.Itoa(id), &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListProducts calls GET /products.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.Get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct calls GET /products/{id}.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	var product Product
	if err := c.Get(ctx, "/products/"+strconv.Itoa(id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListEmailTemplates calls GET /email-templates.
func (c *Client) ListEmailTemplates(ctx context.Context) ([]EmailTemplate, error) {
	var templates []EmailTemplate
	if err := c.Get(ctx, "/email-templates", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// AnalyzeCustomer calls POST /analyze-customer.
func (c *Client) AnalyzeCustomer(ctx context.Context, customerID int) (*Analysis, error) {
	var analysis Analysis
	if err := c.Post(ctx, "/analyze-customer", AnalyzeRequest{CustomerID: customerID}, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// RecommendProducts calls POST /recommend-products.
func (c *Client) RecommendProducts(ctx context.Context, req RecommendRequest) (*Recommendations, error) {
	var recs Recommendations
	if err := c.Post(ctx, "/recommend-products", req, &recs); err != nil {
		return nil, err
	}
	return &recs, nil
}

// GenerateEmail calls POST /generate-email.
func (c *Client) GenerateEmail(ctx context.Context, req EmailRequest) (*Email, error) {
	var email Email
	if err := c.Post(ctx, "/generate-email", req, &email); err != nil {
		return nil, err
	}
	return &email, nil
}

// CreateMockup calls POST /create-mockup.
func (c *Client) CreateMockup(ctx context.Context, req MockupRequest) (*Mockup, error) {
	var mockup Mockup
	if err := c.Post(ctx, "/create-mockup", req, &mockup); err != nil {
		return nil, err
	}
	return &mockup, nil
}
