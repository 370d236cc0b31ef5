package ynab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
)

const (
	DefaultBaseURL = "https://api.ynab.com/v1"
	// DefaultRequestsPerHour matches the per-token allowance of the YNAB API.
	DefaultRequestsPerHour = 200

	maxErrorBody = 4 << 10
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
}

// Ensure interface conformance
var _ ledger.Reader = (*Client)(nil)

type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRequestsPerHour throttles outgoing requests. Zero or less disables
// throttling.
func WithRequestsPerHour(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(n)), n)
	}
}

// New creates a client authenticated with a personal access token.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("missing personal access token")
	}
	c := &Client{
		httpClient: newHTTPClientWithPooling(),
		baseURL:    DefaultBaseURL,
		token:      token,
	}
	WithRequestsPerHour(DefaultRequestsPerHour)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// timeouts and keep-alive suited to a handful of sequential API calls.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("YNAB API returned %s for %s: %s", e.Status, e.URL, e.Body)
}

func (c *Client) Budgets(ctx context.Context) ([]core.BudgetSummary, error) {
	var resp struct {
		Data struct {
			Budgets []core.BudgetSummary `json:"budgets"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/budgets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Budgets, nil
}

func (c *Client) CategoryGroups(ctx context.Context, budgetID string) ([]core.CategoryGroup, error) {
	var resp struct {
		Data struct {
			CategoryGroups []core.CategoryGroup `json:"category_groups"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/budgets/%s/categories", url.PathEscape(budgetID))
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.CategoryGroups, nil
}

// MonthCategory fetches a category as budgeted in the month containing month.
func (c *Client) MonthCategory(ctx context.Context, budgetID string, month core.Date, categoryID string) (core.Category, error) {
	var resp struct {
		Data struct {
			Category core.Category `json:"category"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/budgets/%s/months/%s/categories/%s",
		url.PathEscape(budgetID), month.FirstOfMonth(), url.PathEscape(categoryID))
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return core.Category{}, err
	}
	return resp.Data.Category, nil
}

func (c *Client) TransactionsSince(ctx context.Context, budgetID string, since core.Date) ([]core.Transaction, error) {
	var resp struct {
		Data struct {
			Transactions []core.Transaction `json:"transactions"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/budgets/%s/transactions", url.PathEscape(budgetID))
	query := url.Values{"since_date": {since.String()}}
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Transactions, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", u, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "YNAB request completed",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        u,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response from %s: %w", u, err)
	}
	return nil
}
