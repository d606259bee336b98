package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04:05",
	"1/2/2006",
	"02-01-2006",
	time.RFC3339,
}

// table reads a CSV file with a header row and resolves columns by name,
// ignoring case and surrounding whitespace.
type table struct {
	reader  *csv.Reader
	columns map[string]int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeColumn(name)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := columns[normalizeColumn(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	return &table{reader: reader, columns: columns}, nil
}

// next returns io.EOF once the file is exhausted.
func (t *table) next() (row, error) {
	record, err := t.reader.Read()
	if err != nil {
		return row{}, err
	}
	return row{record: record, columns: t.columns}, nil
}

type row struct {
	record  []string
	columns map[string]int
}

func (r row) str(column string) string {
	i, ok := r.columns[normalizeColumn(column)]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r row) required(column string) (string, error) {
	v := r.str(column)
	if v == "" {
		return "", fmt.Errorf("%s is empty", column)
	}
	return v, nil
}

// integer accepts integral decimals such as "24.0", which spreadsheet exports produce.
func (r row) integer(column string) (int64, error) {
	v, err := r.required(column)
	if err != nil {
		return 0, err
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%s: invalid integer %q", column, v)
	}
	return d.IntPart(), nil
}

func (r row) number(column string) (decimal.Decimal, error) {
	v, err := r.required(column)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid number %q", column, v)
	}
	return d, nil
}

func (r row) date(column string) (time.Time, error) {
	v, err := r.required(column)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: invalid date %q", column, v)
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}
