package stats

import (
	"gonum.org/v1/gonum/stat"
)

// ACF calculates the sample autocorrelation for lags 0 through maxLag. Returns nil for a
// constant or empty series.
func ACF(y []float64, maxLag int) []float64 {
	n := len(y)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(y, nil)
	variance := 0.0
	for _, v := range y {
		variance += (v - mean) * (v - mean)
	}
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (y[i] - mean) * (y[i-k] - mean)
		}
		acf[k] = sum / variance
	}
	return acf
}
