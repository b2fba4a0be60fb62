// Package timedataset holds the date indexed series and column tables consumed by the
// forecasting strategies.
package timedataset

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrInvalidSlice       = errors.New("invalid slice bounds")
)

// TimeDataset represents a univariate time series indexed by date. Both slices must be of
// the same length and T is strictly increasing.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
// The inputs are copied.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	td := &TimeDataset{
		T: make([]time.Time, len(t)),
		Y: make([]float64, len(y)),
	}
	copy(td.T, t)
	copy(td.Y, y)
	return td, nil
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.Y)
}

// Copy returns a deep copy of the dataset
func (td *TimeDataset) Copy() *TimeDataset {
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.Y))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Slice returns a copy of the observations in [start, end)
func (td *TimeDataset) Slice(start, end int) (*TimeDataset, error) {
	if start < 0 || end > td.Len() || start >= end {
		return nil, fmt.Errorf("start %d, end %d, length %d, %w", start, end, td.Len(), ErrInvalidSlice)
	}
	return NewUnivariateDataset(td.T[start:end], td.Y[start:end])
}

// Split divides the dataset into a training set and a trailing test set of testSize
// observations.
func (td *TimeDataset) Split(testSize int) (*TimeDataset, *TimeDataset, error) {
	n := td.Len()
	if testSize <= 0 || testSize >= n {
		return nil, nil, fmt.Errorf("test size %d with %d observations, %w", testSize, n, ErrInvalidSlice)
	}
	train, err := td.Slice(0, n-testSize)
	if err != nil {
		return nil, nil, err
	}
	test, err := td.Slice(n-testSize, n)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
