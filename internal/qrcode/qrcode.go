// Package qrcode запрашивает картинку QR-кода с суммой к оплате у внешнего сервиса.
package qrcode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// DefaultEndpoint указывает на публичный генератор QR-кодов.
const DefaultEndpoint = "https://api.qrserver.com/v1/create-qr-code/"

const (
	imageSize       = "400x400"
	foregroundColor = "02c8db"
	backgroundColor = "ecf0f3"
	maxImageBytes   = 2 << 20
	defaultTimeout  = 10 * time.Second
)

// PayableText формирует текст, который кодируется в QR.
func PayableText(currency string, total decimal.Decimal) string {
	return fmt.Sprintf("Total Payable: %s %s", currency, domain.FormatAmount(total))
}

// Image хранит полученную картинку QR-кода.
type Image struct {
	SourceURL   string
	ContentType string
	Data        []byte
}

// Client ходит в генератор QR-кодов.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient создаёт клиента. Пустой endpoint означает DefaultEndpoint.
func NewClient(endpoint string, hc *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{endpoint: endpoint, http: hc}
}

// URL строит адрес запроса картинки для текста.
func (c *Client) URL(text string) string {
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	return c.endpoint + sep +
		"data=" + encodeURIComponent(text) +
		"&size=" + imageSize +
		"&color=" + foregroundColor +
		"&bgcolor=" + backgroundColor
}

// Fetch скачивает картинку QR-кода для текста одним запросом.
func (c *Client) Fetch(ctx context.Context, text string) (Image, error) {
	target := c.URL(text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build qr request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch qr image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxImageBytes))
		return Image{}, fmt.Errorf("fetch qr image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read qr image: %w", err)
	}
	if len(data) > maxImageBytes {
		return Image{}, fmt.Errorf("read qr image: larger than %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return Image{SourceURL: target, ContentType: contentType, Data: data}, nil
}

var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent кодирует строку так же, как одноимённая функция браузера.
func encodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}
