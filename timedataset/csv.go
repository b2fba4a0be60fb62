package timedataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingDateColumn = errors.New("date column not found in csv header")
	ErrEmptyCSV          = errors.New("csv has no rows")
)

// CSVOptions configures how a frame is read from csv
type CSVOptions struct {
	DateColumn string
	DateFormat string

	// ValueColumns restricts the value columns read. All non date columns are read when empty.
	ValueColumns []string
	Delimiter    rune
}

// NewDefaultCSVOptions reads Date as an ISO date and every other column as values
func NewDefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn: ColumnDate,
		DateFormat: time.DateOnly,
		Delimiter:  ',',
	}
}

// LoadCSV reads a frame from a csv file with a header row
func LoadCSV(path string, opt *CSVOptions) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file, opt)
}

// ReadCSV reads a frame from csv with a header row. Rows are sorted chronologically.
func ReadCSV(r io.Reader, opt *CSVOptions) (*Frame, error) {
	if opt == nil {
		opt = NewDefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opt.Delimiter != 0 {
		reader.Comma = opt.Delimiter
	}
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv, %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyCSV
	}

	header := records[0]
	dateIdx := slices.Index(header, opt.DateColumn)
	if dateIdx < 0 {
		return nil, fmt.Errorf("%s, %w", opt.DateColumn, ErrMissingDateColumn)
	}

	var valueIdxs []int
	for i, col := range header {
		if i == dateIdx {
			continue
		}
		if len(opt.ValueColumns) > 0 && !slices.Contains(opt.ValueColumns, col) {
			continue
		}
		valueIdxs = append(valueIdxs, i)
	}
	for _, col := range opt.ValueColumns {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%s, %w", col, ErrUnknownColumn)
		}
	}

	rows := records[1:]
	type row struct {
		t    time.Time
		vals []float64
	}
	parsed := make([]row, 0, len(rows))
	for i, rec := range rows {
		t, err := time.Parse(opt.DateFormat, strings.TrimSpace(rec[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("unable to parse date on row %d, %w", i+1, err)
		}
		vals := make([]float64, len(valueIdxs))
		for j, idx := range valueIdxs {
			vals[j], err = strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("unable to parse %s on row %d, %w", header[idx], i+1, err)
			}
		}
		parsed = append(parsed, row{t: t, vals: vals})
	}
	slices.SortStableFunc(parsed, func(a, b row) int {
		return a.t.Compare(b.t)
	})

	dates := make([]time.Time, len(parsed))
	for i, r := range parsed {
		dates[i] = r.t
	}
	f := NewFrame(header[dateIdx], dates)
	for j, idx := range valueIdxs {
		col := make([]float64, len(parsed))
		for i, r := range parsed {
			col[i] = r.vals[j]
		}
		if err := f.AddColumn(header[idx], col); err != nil {
			return nil, err
		}
	}
	return f, nil
}
