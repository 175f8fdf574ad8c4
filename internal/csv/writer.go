// Package csv writes records as rows of a CSV table with a fixed column list.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal"
)

type Option func(*Writer)

func WithLogger(l *zap.Logger) Option {
	return func(w *Writer) {
		w.logger = l
	}
}

// WithCRLF toggles \r\n line endings. Enabled by default.
func WithCRLF(crlf bool) Option {
	return func(w *Writer) {
		w.csv.UseCRLF = crlf
	}
}

// Writer projects records onto columns. Fields that are not columns are
// dropped and missing columns are written as empty cells.
type Writer struct {
	logger  *zap.Logger
	columns []string
	csv     *csv.Writer
	closer  io.Closer
	path    string
	rows    int
}

func NewWriter(w io.Writer, columns []string, opts ...Option) *Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	writer := &Writer{
		logger:  zap.NewNop(),
		columns: columns,
		csv:     cw,
	}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// Create creates (or truncates) the file at path, including missing parent
// directories, and returns a Writer owning it.
func Create(path string, columns []string, opts ...Option) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := NewWriter(f, columns, opts...)
	w.closer = f
	w.path = path
	w.logger.Info("writing file", zap.String("path", path))
	return w, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Columns() []string {
	return w.columns
}

// Rows is the number of data rows written, excluding the header.
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) WriteHeader() error {
	return w.csv.Write(w.columns)
}

func (w *Writer) Write(r *internal.Record) error {
	if err := w.csv.Write(w.Row(r)); err != nil {
		return fmt.Errorf("writing row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Row returns the cells of r in column order.
func (w *Writer) Row(r *internal.Record) []string {
	row := make([]string, len(w.columns))
	if r == nil {
		return row
	}
	for i, column := range w.columns {
		if v, ok := r.Get(column); ok {
			row[i] = internal.FormatValue(v)
		}
	}
	return row
}

func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes buffered rows and closes the underlying file, if any.
// Closing twice is a no-op.
func (w *Writer) Close() error {
	closer := w.closer
	w.closer = nil

	if err := w.Flush(); err != nil {
		if closer != nil {
			closer.Close()
		}
		return err
	}
	if closer == nil {
		return nil
	}
	return closer.Close()
}
