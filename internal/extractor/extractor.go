package extractor

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal"
	"github.com/turbolytics/shop-extractor/internal/catalog"
	"github.com/turbolytics/shop-extractor/internal/pagination"
)

// Sink receives the annotated records of a run.
type Sink interface {
	WriteHeader() error
	Write(r *internal.Record) error
	Flush() error
}

type Option func(*Extractor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

func WithFetcher(f pagination.Fetcher) Option {
	return func(e *Extractor) {
		e.fetcher = f
	}
}

func WithSink(s Sink) Option {
	return func(e *Extractor) {
		e.sink = s
	}
}

func WithShops(shops []internal.Shop) Option {
	return func(e *Extractor) {
		e.shops = shops
	}
}

func WithDelay(d time.Duration) Option {
	return func(e *Extractor) {
		e.delay = d
	}
}

func WithMaxFailsPerCall(n int) Option {
	return func(e *Extractor) {
		e.maxFails = n
	}
}

func WithRunID(id string) Option {
	return func(e *Extractor) {
		e.runID = id
	}
}

func WithSource(source string) Option {
	return func(e *Extractor) {
		e.source = source
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithPagerOptions appends options to every pager the extractor creates.
func WithPagerOptions(opts ...pagination.Option) Option {
	return func(e *Extractor) {
		e.pagerOpts = append(e.pagerOpts, opts...)
	}
}

type Extractor struct {
	logger    *zap.Logger
	fetcher   pagination.Fetcher
	sink      Sink
	shops     []internal.Shop
	delay     time.Duration
	maxFails  int
	runID     string
	source    string
	now       func() time.Time
	pagerOpts []pagination.Option
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger:   zap.NewNop(),
		maxFails: pagination.DefaultMaxFailsPerCall,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run extracts every configured shop, in order, into the sink. The returned
// catalog is never nil; on failure it describes how far the run got.
func (e *Extractor) Run(ctx context.Context) (*catalog.Catalog, error) {
	start := e.now()
	c := &catalog.Catalog{
		RunID:     e.runID,
		StartTime: start,
		Timestamp: start.UTC().Format(internal.TimestampLayout),
		Source:    e.source,
	}

	err := e.run(ctx, c)

	c.EndTime = e.now()
	if err != nil {
		c.Error = err.Error()
		return c, err
	}
	c.Completed = true
	return c, nil
}

func (e *Extractor) run(ctx context.Context, c *catalog.Catalog) error {
	if e.fetcher == nil {
		return fmt.Errorf("extractor: fetcher is required")
	}
	if e.sink == nil {
		return fmt.Errorf("extractor: sink is required")
	}

	if err := e.sink.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, shop := range e.shops {
		if err := e.extractShop(ctx, c, shop); err != nil {
			return fmt.Errorf("vendor_id %s: %w", shop.VendorID, err)
		}
	}

	return e.sink.Flush()
}

func (e *Extractor) extractShop(ctx context.Context, c *catalog.Catalog, shop internal.Shop) error {
	l := e.logger.With(zap.String("vendor_id", shop.VendorID))
	l.Info(fmt.Sprintf("Processing vendor_id %s", shop.VendorID), zap.String("country", shop.Country))

	stats := c.Shop(shop.VendorID, shop.Country)

	opts := []pagination.Option{
		pagination.WithLogger(l),
		pagination.WithDelay(e.delay),
		pagination.WithMaxFailsPerCall(e.maxFails),
	}
	opts = append(opts, e.pagerOpts...)
	pager := pagination.New(e.fetcher, shop.ClientID, opts...)
	defer func() {
		stats.Requests = pager.Requests()
	}()

	for {
		batch, err := pager.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		for _, record := range batch {
			annotated := internal.Annotate(record, c.Timestamp, shop.VendorID, shop.Country)
			if err := e.sink.Write(annotated); err != nil {
				return err
			}
		}
		if err := e.sink.Flush(); err != nil {
			return err
		}

		stats.NumPages++
		stats.NumRecords += len(batch)
		c.NumRecords += len(batch)
	}

	l.Debug("vendor extracted",
		zap.Int("pages", stats.NumPages),
		zap.Int("records", stats.NumRecords),
	)
	return nil
}
