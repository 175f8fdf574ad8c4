package archiver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbolytics/shop-extractor/internal/catalog"
	"github.com/turbolytics/shop-extractor/internal/local"
)

func writeResults(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(p, []byte("id,vendor_id\r\n1,v-1\r\n2,\r\n"), 0644))
	return p
}

func testCatalog() *catalog.Catalog {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &catalog.Catalog{
		RunID:      "run-1",
		StartTime:  start,
		EndTime:    start.Add(time.Second),
		NumRecords: 2,
		Completed:  true,
	}
}

func TestArchiver_Archive(t *testing.T) {
	columns := []string{"id", "vendor_id"}

	t.Run("csv", func(t *testing.T) {
		dir := t.TempDir()
		a := New(WithRepository(local.New(dir)))

		require.NoError(t, a.Archive(context.Background(), writeResults(t), columns, testCatalog()))

		bs, err := os.ReadFile(filepath.Join(dir, "run-1", "results.csv"))
		require.NoError(t, err)
		assert.Equal(t, "id,vendor_id\r\n1,v-1\r\n2,\r\n", string(bs))

		bs, err = os.ReadFile(filepath.Join(dir, "run-1", CatalogFileName))
		require.NoError(t, err)
		var c catalog.Catalog
		require.NoError(t, json.Unmarshal(bs, &c))
		assert.Equal(t, "run-1", c.RunID)
		assert.Equal(t, 2, c.NumRecords)
	})

	t.Run("parquet", func(t *testing.T) {
		dir := t.TempDir()
		a := New(
			WithRepository(local.New(dir, local.WithPrefix("archive"))),
			WithFormat(FormatParquet),
		)

		require.NoError(t, a.Archive(context.Background(), writeResults(t), columns, testCatalog()))

		bs, err := os.ReadFile(filepath.Join(dir, "archive", "run-1", "results.parquet"))
		require.NoError(t, err)
		assert.Equal(t, "PAR1", string(bs[:4]))
		assert.Equal(t, "PAR1", string(bs[len(bs)-4:]))
		assert.FileExists(t, filepath.Join(dir, "archive", "run-1", CatalogFileName))
	})

	t.Run("parquet header mismatch", func(t *testing.T) {
		a := New(WithRepository(local.New(t.TempDir())), WithFormat(FormatParquet))
		err := a.Archive(context.Background(), writeResults(t), []string{"other"}, testCatalog())
		assert.Error(t, err)
	})

	t.Run("missing results", func(t *testing.T) {
		a := New(WithRepository(local.New(t.TempDir())))
		err := a.Archive(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), columns, testCatalog())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("repository failure", func(t *testing.T) {
		a := New(WithRepository(failingRepository{}))
		err := a.Archive(context.Background(), writeResults(t), columns, testCatalog())
		assert.ErrorIs(t, err, errUnavailable)
	})

	t.Run("no repository", func(t *testing.T) {
		err := New().Archive(context.Background(), writeResults(t), columns, testCatalog())
		assert.Error(t, err)
	})
}

var errUnavailable = errors.New("unavailable")

type failingRepository struct{}

func (failingRepository) Write(ctx context.Context, key string, r io.Reader) error {
	return errUnavailable
}
