// Package client реализует HTTP-клиент API регистратора для табло и CLI сканера.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	defaultTimeout = 5 * time.Second
	versionHeader  = "X-Products-Version"
	maxErrorBody   = 4 << 10
)

// StatusError описывает ответ сервера с неожиданным статусом.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, strings.TrimSpace(e.Body))
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent задаёт User-Agent запросов.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client ходит в API регистратора.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// New создаёт клиента для сервера по адресу baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse api url: unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ProductList содержит список товаров и его версию на сервере.
type ProductList struct {
	Products []domain.Product
	Raw      []json.RawMessage
	Version  uint64
}

// ListProducts запрашивает GET /product.
func (c *Client) ListProducts(ctx context.Context) (ProductList, error) {
	resp, err := c.do(ctx, http.MethodGet, "/product", "", nil)
	if err != nil {
		return ProductList{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProductList{}, statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ProductList{}, fmt.Errorf("read products: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProductList{}, fmt.Errorf("decode products: %w", err)
	}
	products, err := domain.DecodeProducts(data)
	if err != nil {
		return ProductList{}, err
	}

	return ProductList{
		Products: products,
		Raw:      raw,
		Version:  parseVersion(resp.Header),
	}, nil
}

// AddProduct отправляет товар как JSON и возвращает новую версию списка.
func (c *Client) AddProduct(ctx context.Context, product any) (uint64, error) {
	body, err := json.Marshal(product)
	if err != nil {
		return 0, fmt.Errorf("encode product: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/product", "application/json", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp)
	}
	return parseVersion(resp.Header), nil
}

// ClearProducts безусловно очищает список.
func (c *Client) ClearProducts(ctx context.Context) error {
	return c.clear(ctx, "/product")
}

// ClearProductsIfVersion очищает список, только если версия не изменилась.
// При конфликте возвращает ошибку, совместимую с domain.ErrVersionConflict.
func (c *Client) ClearProductsIfVersion(ctx context.Context, version uint64) error {
	return c.clear(ctx, "/product?version="+strconv.FormatUint(version, 10))
}

func (c *Client) clear(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case http.StatusConflict:
		return fmt.Errorf("%w: server version %d", domain.ErrVersionConflict, parseVersion(resp.Header))
	default:
		return statusError(resp)
	}
}

// RecordCheckout отправляет запись об оплате на POST /checkout.
func (c *Client) RecordCheckout(ctx context.Context, order any) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/checkout", "application/json", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method: resp.Request.Method,
		Path:   resp.Request.URL.Path,
		Code:   resp.StatusCode,
		Body:   string(body),
	}
}

func parseVersion(h http.Header) uint64 {
	v, err := strconv.ParseUint(h.Get(versionHeader), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// IsStatus сообщает, что err содержит ответ сервера с кодом code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
