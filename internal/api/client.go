// Package api fetches single pages from the remote product listing endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal"
)

// FilterBasic is the listing filter requested for every page.
const FilterBasic = "basic"

var (
	// ErrMalformedPage is returned when a response lacks the paging block.
	ErrMalformedPage = errors.New("malformed page")
)

// StatusError is returned for non 2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Page       int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("page %d: unexpected response status %s", e.Page, e.Status)
}

type Paging struct {
	Pages *int `json:"pages"`
}

// Page is one decoded response of the listing endpoint.
type Page struct {
	Data   []*internal.Record `json:"data"`
	Paging *Paging            `json:"paging"`
}

// TotalPages is the page count reported by the remote service.
func (p *Page) TotalPages() int {
	return *p.Paging.Pages
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRestyClient replaces the underlying HTTP client, mostly for tests.
func WithRestyClient(rc *resty.Client) Option {
	return func(c *Client) {
		c.http = rc
	}
}

type Client struct {
	logger    *zap.Logger
	http      *resty.Client
	baseURL   string
	timeout   time.Duration
	userAgent string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		logger:    zap.NewNop(),
		timeout:   60 * time.Second,
		userAgent: "shop-extractor",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = resty.New()
	}
	c.http.
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", c.userAgent)

	return c
}

// FetchPage issues GET <baseURL>?client_id=..&filter=basic&page=n and
// decodes the response. Transport errors are returned unwrapped enough for
// errors.Is to reach the underlying syscall error.
func (c *Client) FetchPage(ctx context.Context, clientID string, page int) (*Page, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client_id": clientID,
			"filter":    FilterBasic,
			"page":      strconv.Itoa(page),
		}).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetching page %d: %w", page, err)
	}

	c.logger.Debug("page response",
		zap.Int("page", page),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
		zap.Int("bytes", len(resp.Body())),
	)

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Page:       page,
		}
	}

	return DecodePage(resp.Body())
}

// DecodePage parses a listing response body.
func DecodePage(body []byte) (*Page, error) {
	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	if p.Paging == nil || p.Paging.Pages == nil {
		return nil, fmt.Errorf("%w: missing paging.pages", ErrMalformedPage)
	}
	return &p, nil
}
