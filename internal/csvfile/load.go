// Package csvfile reads contact CSV files and persists the live set and the
// removal audit trail back to disk.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

// ErrInput indicates the contact file cannot be used: missing, unreadable,
// empty or without any email or phone column.
var ErrInput = errors.New("invalid input file")

const bom = "\uFEFF"

// Load reads path and resolves the matching columns using aliases.
// Rows shorter than the header are padded with empty values. Extra trailing
// cells and values under a repeated header name are kept in Dataset.Rows; the
// keyed record only sees the first column of a given name.
func Load(path string, aliases models.ColumnAliases) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrInput, path, err)
	}
	defer f.Close()

	data, err := Read(f, aliases)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data.Source = path
	return data, nil
}

// Read parses CSV content from r. See Load.
func Read(r io.Reader, aliases models.ColumnAliases) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrInput, err)
	}
	header[0] = strings.TrimPrefix(header[0], bom)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var (
		records []models.Record
		rows    [][]string
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row %d: %w", ErrInput, len(records)+1, err)
		}
		if isBlank(row) {
			continue
		}
		row = models.PadRow(row, len(header))
		rec := make(models.Record, len(header))
		for i, name := range header {
			if _, dup := rec[name]; !dup {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
		rows = append(rows, row)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInput)
	}

	cols := aliases.Resolve(header)
	if !cols.HasContactColumn() {
		return nil, fmt.Errorf("%w: no email or phone column in header %q", ErrInput, header)
	}

	return &models.Dataset{
		Header:  header,
		Records: records,
		Rows:    rows,
		Columns: cols,
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
