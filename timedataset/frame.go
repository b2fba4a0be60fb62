package timedataset

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	ColumnDate        = "Date"
	ColumnConsumption = "Consumption"

	ColumnDS = "ds"
	ColumnY  = "y"
)

var (
	ErrColumnLenMismatch = errors.New("column length does not match date column")
	ErrColumnExists      = errors.New("column already exists in frame")
	ErrUnknownColumn     = errors.New("unknown column")
)

// Frame is a column oriented table whose first column is the date column. All value
// columns share the length of the date column and rows are kept in chronological order.
type Frame struct {
	dateName string
	dates    []time.Time

	names  []string
	values [][]float64
}

// NewFrame creates a frame with only the date column.
func NewFrame(dateName string, dates []time.Time) *Frame {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &Frame{
		dateName: dateName,
		dates:    d,
	}
}

// NewConsumptionFrame builds the canonical two column Date/Consumption frame
func NewConsumptionFrame(dates []time.Time, consumption []float64) (*Frame, error) {
	f := NewFrame(ColumnDate, dates)
	if err := f.AddColumn(ColumnConsumption, consumption); err != nil {
		return nil, err
	}
	return f, nil
}

// AddColumn appends a value column. The values are copied.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != len(f.dates) {
		return fmt.Errorf("column %s has length %d, expected %d, %w", name, len(values), len(f.dates), ErrColumnLenMismatch)
	}
	if name == f.dateName || slices.Contains(f.names, name) {
		return fmt.Errorf("%s, %w", name, ErrColumnExists)
	}
	v := make([]float64, len(values))
	copy(v, values)
	f.names = append(f.names, name)
	f.values = append(f.values, v)
	return nil
}

// NumColumns returns the number of columns including the date column
func (f *Frame) NumColumns() int {
	if f == nil {
		return 0
	}
	return len(f.names) + 1
}

// NumRows returns the number of rows in the frame
func (f *Frame) NumRows() int {
	if f == nil {
		return 0
	}
	return len(f.dates)
}

// Columns returns the column names starting with the date column
func (f *Frame) Columns() []string {
	cols := make([]string, 0, f.NumColumns())
	cols = append(cols, f.dateName)
	return append(cols, f.names...)
}

// Dates returns a copy of the date column
func (f *Frame) Dates() []time.Time {
	d := make([]time.Time, len(f.dates))
	copy(d, f.dates)
	return d
}

// Column returns a copy of the named value column
func (f *Frame) Column(name string) ([]float64, error) {
	idx := slices.Index(f.names, name)
	if idx < 0 {
		return nil, fmt.Errorf("%s, %w", name, ErrUnknownColumn)
	}
	v := make([]float64, len(f.values[idx]))
	copy(v, f.values[idx])
	return v, nil
}

// Rename returns a copy of the frame with columns renamed by the mapping. Columns not in
// the mapping keep their name.
func (f *Frame) Rename(mapping map[string]string) *Frame {
	out := f.Copy()
	if name, exists := mapping[out.dateName]; exists {
		out.dateName = name
	}
	for i, n := range out.names {
		if name, exists := mapping[n]; exists {
			out.names[i] = name
		}
	}
	return out
}

// Copy returns a deep copy of the frame
func (f *Frame) Copy() *Frame {
	out := NewFrame(f.dateName, f.dates)
	out.names = slices.Clone(f.names)
	out.values = make([][]float64, len(f.values))
	for i, v := range f.values {
		out.values[i] = slices.Clone(v)
	}
	return out
}

// SetIndex indexes the named value column by the date column producing a univariate
// dataset.
func (f *Frame) SetIndex(valueColumn string) (*TimeDataset, error) {
	y, err := f.Column(valueColumn)
	if err != nil {
		return nil, err
	}
	return NewUnivariateDataset(f.dates, y)
}

// Univariate renames Date/Consumption to ds/y and returns the y column indexed by ds.
// When the frame has exactly one value column under another name that column is used.
func (f *Frame) Univariate() (*TimeDataset, error) {
	renamed := f.Rename(map[string]string{
		ColumnDate:        ColumnDS,
		ColumnConsumption: ColumnY,
	})
	if !slices.Contains(renamed.names, ColumnY) && len(renamed.names) == 1 {
		return renamed.SetIndex(renamed.names[0])
	}
	return renamed.SetIndex(ColumnY)
}
