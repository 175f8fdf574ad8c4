package extractor

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbolytics/shop-extractor/internal"
	"github.com/turbolytics/shop-extractor/internal/api"
	lcsv "github.com/turbolytics/shop-extractor/internal/csv"
	"github.com/turbolytics/shop-extractor/internal/fixtures"
	"github.com/turbolytics/shop-extractor/internal/pagination"
)

var fixedNow = func() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

func readRows(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExtractor_Run(t *testing.T) {
	products := func(prefix string, n int) []map[string]any {
		out := make([]map[string]any, n)
		for i := range out {
			out[i] = map[string]any{
				"id":      fmt.Sprintf("%s-%d", prefix, i+1),
				"name":    fmt.Sprintf("Product %d", i+1),
				"ignored": "x",
				// collides with an annotation column
				"country": "XX",
			}
		}
		return out
	}

	srv := fixtures.New(
		fixtures.WithPageSize(2),
		fixtures.WithShop("secret-a", products("a", 3)),
		fixtures.WithShop("secret-b", products("b", 1)),
	)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	var buf bytes.Buffer
	columns := []string{"id", "name", "utc_timestamp", "vendor_id", "country", "missing"}
	sink := lcsv.NewWriter(&buf, columns)

	e := New(
		WithFetcher(api.New(ts.URL+fixtures.ProductsPath)),
		WithSink(sink),
		WithShops([]internal.Shop{
			{VendorID: "va", Country: "CZ", ClientID: "secret-a"},
			{VendorID: "vb", Country: "SK", ClientID: "secret-b"},
		}),
		WithRunID("run-1"),
		WithSource(ts.URL),
		WithClock(fixedNow),
	)

	c, err := e.Run(context.Background())
	require.NoError(t, err)

	ts0 := "2024-05-06 07:08:09"
	want := [][]string{
		columns,
		{"a-1", "Product 1", ts0, "va", "CZ", ""},
		{"a-2", "Product 2", ts0, "va", "CZ", ""},
		{"a-3", "Product 3", ts0, "va", "CZ", ""},
		{"b-1", "Product 1", ts0, "vb", "SK", ""},
	}
	if diff := cmp.Diff(want, readRows(t, &buf)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, c.Completed)
	assert.Equal(t, "run-1", c.RunID)
	assert.Equal(t, ts0, c.Timestamp)
	assert.Equal(t, 4, c.NumRecords)
	require.Len(t, c.Shops, 2)
	assert.Equal(t, 2, c.Shops[0].NumPages)
	assert.Equal(t, 3, c.Shops[0].NumRecords)
	assert.Equal(t, 2, c.Shops[0].Requests)
	assert.Equal(t, 1, c.Shops[1].NumPages)

	var pages []int
	for _, r := range srv.Requests() {
		assert.Equal(t, "basic", r.Filter)
		pages = append(pages, r.Page)
	}
	assert.Equal(t, []int{1, 2, 1}, pages)
}

func TestExtractor_NoShops(t *testing.T) {
	var buf bytes.Buffer
	e := New(
		WithFetcher(api.New("http://127.0.0.1:0")),
		WithSink(lcsv.NewWriter(&buf, []string{"a", "b"})),
	)

	c, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Completed)
	assert.Equal(t, [][]string{{"a", "b"}}, readRows(t, &buf))
}

type resettingFetcher struct {
	calls int
}

func (f *resettingFetcher) FetchPage(ctx context.Context, clientID string, page int) (*api.Page, error) {
	f.calls++
	return nil, fmt.Errorf("read: %w", os.NewSyscallError("read", syscall.ECONNRESET))
}

func TestExtractor_RepeatedFailureAborts(t *testing.T) {
	var buf bytes.Buffer
	f := &resettingFetcher{}
	e := New(
		WithFetcher(f),
		WithSink(lcsv.NewWriter(&buf, []string{"id"})),
		WithShops([]internal.Shop{
			{VendorID: "va", ClientID: "a"},
			{VendorID: "vb", ClientID: "b"},
		}),
		WithMaxFailsPerCall(2),
	)

	c, err := e.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pagination.ErrRepeatedlyFailed)
	assert.Contains(t, err.Error(), "vendor_id va")

	assert.Equal(t, 3, f.calls)
	assert.False(t, c.Completed)
	assert.NotEmpty(t, c.Error)
	assert.Len(t, c.Shops, 1)
}

func TestExtractor_Misconfigured(t *testing.T) {
	_, err := New().Run(context.Background())
	assert.Error(t, err)
}
