package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"vehicle-dashboard/models"
)

const utf8BOM = "\uFEFF"

// CSVReader reads a delimited vehicle listing file with a header row.
type CSVReader struct {
	path  string
	comma rune
}

// NewCSVReader creates a reader for the comma-separated file at path.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path, comma: ','}
}

// Path returns the file the reader loads.
func (c *CSVReader) Path() string {
	return c.path
}

// ReadRaw loads the whole file. A missing file, a syntax error, a ragged
// row or an empty file yields models.ErrDataUnavailable.
func (c *CSVReader) ReadRaw(ctx context.Context) (*models.RawTable, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: csv: open %q: %w", models.ErrDataUnavailable, c.path, err)
	}
	defer f.Close()

	table, err := readTable(ctx, f, c.comma)
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %q: %w", models.ErrDataUnavailable, c.path, err)
	}
	return table, nil
}

func readTable(ctx context.Context, r io.Reader, comma rune) (*models.RawTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		columns[i] = strings.TrimSpace(h)
	}

	table := &models.RawTable{Columns: columns}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(table.Rows)+2, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
