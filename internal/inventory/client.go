package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API defines the backend operations tally uses.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	FetchProducts(ctx context.Context) ([]Product, error)
	FetchProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p NewProduct) (*Product, error)
	UpdateStock(ctx context.Context, id string, stock int) error
	DeleteProduct(ctx context.Context, id string) error
	RecordSale(ctx context.Context, sale SaleInput) error
	FetchSalesPage(ctx context.Context, page, limit int) ([]SaleRecord, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Observer is told about every completed request. endpoint is a stable label
// such as "sales.page"; err is nil on success.
type Observer func(endpoint string, err error)

// Client talks to the inventory HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	observe   Observer
}

const (
	defaultBaseURL    = "http://127.0.0.1:4000/api"
	defaultAPIPrefix  = "/api"
	defaultUserAgent  = "tally/0.1"
	defaultTimeout    = 10 * time.Second
	maxErrorBodyBytes = 4 << 10
	maxErrorTextRunes = 200
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver registers a hook called after every request.
func WithObserver(fn Observer) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient builds a Client for the API rooted at baseURL. A bare host:port
// gets http:// and the /api prefix.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchProducts retrieves the full product list.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Product
	if err := c.do(ctx, "products.list", http.MethodGet, "inventory", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchProduct retrieves a single product.
func (c *Client) FetchProduct(ctx context.Context, id string) (*Product, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("product id required")
	}
	var payload Product
	if err := c.doURL(ctx, "products.get", http.MethodGet, productURL(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateProduct adds a product and returns the stored version.
func (c *Client) CreateProduct(ctx context.Context, p NewProduct) (*Product, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Product
	if err := c.do(ctx, "products.create", http.MethodPost, "inventory", p, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateStock sets the stock level of a product.
func (c *Client) UpdateStock(ctx context.Context, id string, stock int) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("product id required")
	}
	if stock < 0 {
		return fmt.Errorf("stock must be non-negative, got %d", stock)
	}
	body := struct {
		Stock int `json:"stock"`
	}{Stock: stock}
	return c.doURL(ctx, "products.stock", http.MethodPut, productURL(id), body, nil)
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("product id required")
	}
	return c.doURL(ctx, "products.delete", http.MethodDelete, productURL(id), nil, nil)
}

// RecordSale posts a sale. Each call carries a fresh Idempotency-Key.
func (c *Client) RecordSale(ctx context.Context, sale SaleInput) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(sale.ProductID) == "" {
		return fmt.Errorf("product id required")
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	req, err := c.newRequest(ctx, http.MethodPost, &url.URL{Path: "sales"}, sale)
	if err != nil {
		return err
	}
	req.Header.Set("Idempotency-Key", uuid.NewString())
	err = c.send(req, nil)
	c.notify("sales.record", err)
	return err
}

// FetchSalesPage retrieves one page of recorded sales. Pages start at 1.
func (c *Client) FetchSalesPage(ctx context.Context, page, limit int) ([]SaleRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if page < 1 || limit <= 0 {
		return nil, fmt.Errorf("%w: page=%d limit=%d", ErrInvalidPage, page, limit)
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("limit", strconv.Itoa(limit))
	rel := &url.URL{Path: "sales", RawQuery: values.Encode()}

	req, err := c.newRequest(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	err = c.send(req, &raw)
	if err == nil {
		var records []SaleRecord
		records, err = decodeSalesPage(raw)
		if err != nil {
			err = &ServerError{Path: req.URL.Path, StatusCode: http.StatusOK, Err: err}
		} else {
			c.notify("sales.page", nil)
			return records, nil
		}
	}
	c.notify("sales.page", err)
	return nil, err
}

func (c *Client) do(ctx context.Context, endpoint, method, relPath string, body, dest any) error {
	return c.doURL(ctx, endpoint, method, &url.URL{Path: relPath}, body, dest)
}

func (c *Client) doURL(ctx context.Context, endpoint, method string, rel *url.URL, body, dest any) error {
	req, err := c.newRequest(ctx, method, rel, body)
	if err != nil {
		return err
	}
	err = c.send(req, dest)
	c.notify(endpoint, err)
	return err
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL, body any) (*http.Request, error) {
	// Join the escaped forms so an escaped segment never collapses into "..".
	escaped := path.Join(c.baseURL.EscapedPath(), rel.EscapedPath())
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	reqURL := *c.baseURL
	reqURL.Path = decoded
	reqURL.RawPath = escaped
	reqURL.RawQuery = rel.RawQuery

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) send(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &ServerError{Path: req.URL.Path, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) notify(endpoint string, err error) {
	if c.observe != nil {
		c.observe(endpoint, err)
	}
}

// readErrorMessage extracts {"error": ...} or {"message": ...} from an error
// body, falling back to the trimmed text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
	if runes := []rune(text); len(runes) > maxErrorTextRunes {
		text = string(runes[:maxErrorTextRunes])
	}
	return text
}

// productURL addresses one product; id is a single escaped path segment.
func productURL(id string) *url.URL {
	return &url.URL{Path: "inventory/" + id, RawPath: "inventory/" + url.PathEscape(id)}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = defaultAPIPrefix
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
