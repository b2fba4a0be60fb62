// Package stats contains the series transforms and statistical tests used when fitting
// and selecting seasonal ARIMA models.
package stats

// Diff returns the lag differenced series y[t] - y[t-lag]. The result is lag points
// shorter than the input and empty when the input is too short.
func Diff(y []float64, lag int) []float64 {
	if lag <= 0 || len(y) <= lag {
		return []float64{}
	}
	out := make([]float64, len(y)-lag)
	for i := lag; i < len(y); i++ {
		out[i-lag] = y[i] - y[i-lag]
	}
	return out
}

// Difference applies d first differences followed by sd seasonal differences of period m.
func Difference(y []float64, d, sd, m int) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	for i := 0; i < d; i++ {
		out = Diff(out, 1)
	}
	for i := 0; i < sd; i++ {
		out = Diff(out, m)
	}
	return out
}

// Integrate undoes Difference for values that continue after the end of history. The
// history is the undifferenced series the differenced values extend.
func Integrate(diffed, history []float64, d, sd, m int) []float64 {
	// levels[k] holds history after k first differences
	levels := make([][]float64, d+1)
	levels[0] = history
	for k := 1; k <= d; k++ {
		levels[k] = Diff(levels[k-1], 1)
	}

	// seasonal levels on top of the fully first differenced history
	sLevels := make([][]float64, sd+1)
	sLevels[0] = levels[d]
	for k := 1; k <= sd; k++ {
		sLevels[k] = Diff(sLevels[k-1], m)
	}

	out := make([]float64, len(diffed))
	copy(out, diffed)

	for k := sd - 1; k >= 0; k-- {
		out = undiff(out, sLevels[k], m)
	}
	for k := d - 1; k >= 0; k-- {
		out = undiff(out, levels[k], 1)
	}
	return out
}

// undiff reverses a single lag difference given the series the difference was taken from.
func undiff(diffed, base []float64, lag int) []float64 {
	ext := make([]float64, 0, len(base)+len(diffed))
	ext = append(ext, base...)
	n := len(base)
	for i, v := range diffed {
		var prev float64
		if idx := n + i - lag; idx >= 0 {
			prev = ext[idx]
		}
		ext = append(ext, v+prev)
	}
	return ext[n:]
}
