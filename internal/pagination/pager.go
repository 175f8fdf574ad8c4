// Package pagination walks a paged listing endpoint one page at a time.
//
// A Pager is a pull based iterator: every call to Next sleeps the configured
// delay, fetches the next page and returns its records. Iteration ends with
// io.EOF once the current page number exceeds the page count reported by the
// most recent response.
//
//	p := pagination.New(client, shop.ClientID, pagination.WithDelay(time.Second))
//	for {
//		batch, err := p.Next(ctx)
//		if err == io.EOF {
//			break
//		}
//		...
//	}
package pagination

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal"
	"github.com/turbolytics/shop-extractor/internal/api"
)

const (
	DefaultMaxFailsPerCall = 3

	// initialTotalPages only has to be greater than the first page number so
	// the first request is always issued.
	initialTotalPages = 2
)

var (
	// ErrRepeatedlyFailed is returned when one page keeps failing with a
	// connection reset more than the configured number of times.
	ErrRepeatedlyFailed = errors.New("request repeatedly failed")
)

// Fetcher fetches a single page for a client credential.
type Fetcher interface {
	FetchPage(ctx context.Context, clientID string, page int) (*api.Page, error)
}

type Option func(*Pager)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pager) {
		p.logger = l
	}
}

func WithDelay(d time.Duration) Option {
	return func(p *Pager) {
		p.delay = d
	}
}

func WithMaxFailsPerCall(n int) Option {
	return func(p *Pager) {
		p.maxFails = n
	}
}

// WithSleep replaces the delay implementation, mostly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pager) {
		p.sleep = fn
	}
}

type Pager struct {
	fetcher  Fetcher
	clientID string
	logger   *zap.Logger
	delay    time.Duration
	maxFails int
	sleep    func(ctx context.Context, d time.Duration) error

	pageNum    int
	totalPages int

	failedPage     int
	failedAttempts int

	requests int
	err      error
}

func New(fetcher Fetcher, clientID string, opts ...Option) *Pager {
	p := &Pager{
		fetcher:    fetcher,
		clientID:   clientID,
		logger:     zap.NewNop(),
		maxFails:   DefaultMaxFailsPerCall,
		sleep:      sleepContext,
		pageNum:    1,
		totalPages: initialTotalPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next returns the records of the next page. It returns io.EOF when all pages
// were read. Once Next returned an error every later call returns it again.
func (p *Pager) Next(ctx context.Context) ([]*internal.Record, error) {
	if p.err != nil {
		return nil, p.err
	}

	for p.pageNum <= p.totalPages {
		if err := p.sleep(ctx, p.delay); err != nil {
			p.err = err
			return nil, err
		}

		p.requests++
		page, err := p.fetcher.FetchPage(ctx, p.clientID, p.pageNum)
		if err != nil {
			if !IsConnectionReset(err) {
				p.err = err
				return nil, err
			}
			if err := p.recordFailure(err); err != nil {
				p.err = err
				return nil, err
			}
			// retry the same page
			continue
		}

		p.totalPages = page.TotalPages()
		p.logger.Info(
			fmt.Sprintf("Page %d of %d downloaded.", p.pageNum, p.totalPages),
			zap.Int("page", p.pageNum),
			zap.Int("total_pages", p.totalPages),
			zap.Int("records", len(page.Data)),
		)
		p.pageNum++
		return page.Data, nil
	}

	p.err = io.EOF
	return nil, io.EOF
}

// Requests is the number of page requests issued so far.
func (p *Pager) Requests() int {
	return p.requests
}

// Page is the number of the next page to fetch.
func (p *Pager) Page() int {
	return p.pageNum
}

func (p *Pager) recordFailure(err error) error {
	p.logger.Error("connection reset while fetching page",
		zap.Int("page", p.pageNum),
		zap.Error(err),
	)

	if p.pageNum == p.failedPage {
		p.failedAttempts++
	} else {
		p.failedAttempts = 1
	}
	p.failedPage = p.pageNum

	if p.failedAttempts > p.maxFails {
		return fmt.Errorf("%w: page %d failed more than %d times: %w",
			ErrRepeatedlyFailed, p.pageNum, p.maxFails, err)
	}
	return nil
}

// IsConnectionReset reports whether err was caused by the peer resetting the
// connection.
func IsConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
