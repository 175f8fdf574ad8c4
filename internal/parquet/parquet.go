package parquet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
)

var ErrHeaderMismatch = errors.New("csv header does not match schema")

type Option func(*Converter)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

func WithParallelism(np int64) Option {
	return func(c *Converter) {
		c.np = np
	}
}

// Converter re-encodes a results CSV as a parquet file.
type Converter struct {
	logger *zap.Logger
	schema Schema
	np     int64
}

func New(schema Schema, opts ...Option) *Converter {
	c := &Converter{
		logger: zap.NewNop(),
		schema: schema,
		np:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert reads CSV rows from r, whose header must equal the schema
// column names, and writes a parquet file to w. Empty cells become nulls.
func (c *Converter) Convert(r io.Reader, w io.Writer) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(c.schema)

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	if !slices.Equal(header, c.schema.Names()) {
		return 0, fmt.Errorf("%w: got %v", ErrHeaderMismatch, header)
	}

	pw, err := writer.NewCSVWriterFromWriter(c.schema.ToGoParquetSchema(), w, c.np)
	if err != nil {
		return 0, err
	}

	rows := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}

		values := make([]*string, len(row))
		for i := range row {
			if row[i] != "" {
				values[i] = &row[i]
			}
		}
		if err := pw.WriteString(values); err != nil {
			return rows, err
		}
		rows++
	}

	if err := pw.WriteStop(); err != nil {
		return rows, err
	}

	c.logger.Debug("parquet written",
		zap.Int("rows", rows),
		zap.Int("columns", len(c.schema)),
	)
	return rows, nil
}
