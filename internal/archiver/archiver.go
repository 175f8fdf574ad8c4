package archiver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal"
	"github.com/turbolytics/shop-extractor/internal/catalog"
	"github.com/turbolytics/shop-extractor/internal/parquet"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"

	CatalogFileName = "catalog.json"
)

type Option func(*Archiver)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Archiver) {
		a.logger = logger
	}
}

func WithRepository(r internal.Repository) Option {
	return func(a *Archiver) {
		a.repository = r
	}
}

func WithFormat(format string) Option {
	return func(a *Archiver) {
		a.format = format
	}
}

// Archiver copies the output of a finished run, together with its catalog,
// into a repository under a directory named after the run id.
type Archiver struct {
	logger     *zap.Logger
	repository internal.Repository
	format     string
}

func New(opts ...Option) *Archiver {
	a := &Archiver{
		logger: zap.NewNop(),
		format: FormatCSV,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Archiver) Archive(ctx context.Context, resultsPath string, columns []string, c *catalog.Catalog) error {
	if a.repository == nil {
		return fmt.Errorf("archiver: repository is required")
	}

	l := a.logger.With(zap.String("run_id", c.RunID))

	key, err := a.archiveResults(ctx, resultsPath, columns, c.RunID)
	if err != nil {
		return fmt.Errorf("archiving results: %w", err)
	}
	l.Info("results archived", zap.String("key", key), zap.String("format", a.format))

	bs, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := a.repository.Write(ctx, path.Join(c.RunID, CatalogFileName), bytes.NewReader(bs)); err != nil {
		return fmt.Errorf("archiving catalog: %w", err)
	}
	l.Info("catalog archived")
	return nil
}

func (a *Archiver) archiveResults(ctx context.Context, resultsPath string, columns []string, runID string) (string, error) {
	f, err := os.Open(resultsPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	switch a.format {
	case FormatCSV:
		key := path.Join(runID, "results.csv")
		return key, a.repository.Write(ctx, key, f)
	case FormatParquet:
		key := path.Join(runID, "results.parquet")
		pr, pw := io.Pipe()
		go func() {
			_, err := parquet.New(
				parquet.StringSchema(columns),
				parquet.WithLogger(a.logger),
			).Convert(f, pw)
			pw.CloseWithError(err)
		}()
		err := a.repository.Write(ctx, key, pr)
		pr.CloseWithError(err)
		return key, err
	default:
		return "", fmt.Errorf("unknown archive format: %q", a.format)
	}
}
