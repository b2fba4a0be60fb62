package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	KPSSAlpha = 0.05

	// SeasonalACFThreshold is the autocorrelation at the seasonal lag above which a series
	// is considered to need seasonal differencing.
	SeasonalACFThreshold = 0.5

	minKPSSSamples = 10
)

var ErrInsufficientSamples = errors.New("insufficient samples for stationarity test")

// KPSSResult holds the outcome of a level stationarity test
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	IsStationary bool
}

// KPSS runs the Kwiatkowski-Phillips-Schmidt-Shin test for level stationarity. The null
// hypothesis is stationarity so the series is stationary when the p-value is at least
// KPSSAlpha. nlags <= 0 selects the Schwert rule.
func KPSS(y []float64, nlags int) (*KPSSResult, error) {
	n := len(y)
	if n < minKPSSSamples {
		return nil, ErrInsufficientSamples
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	mean := stat.Mean(y, nil)
	residuals := make([]float64, n)
	for i, v := range y {
		residuals[i] = v - mean
	}

	// long run variance with Bartlett weights
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1.0 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	var cumSum, etaSq float64
	for _, r := range residuals {
		cumSum += r
		etaSq += cumSum * cumSum
	}
	kpssStat := etaSq / (float64(n) * float64(n) * s2)

	pValue := kpssPValue(kpssStat)
	return &KPSSResult{
		Statistic:    kpssStat,
		PValue:       pValue,
		Lags:         nlags,
		IsStationary: pValue >= KPSSAlpha,
	}, nil
}

// kpssPValue interpolates the level stationarity table
// 10%: 0.347, 5%: 0.463, 2.5%: 0.574, 1%: 0.739
func kpssPValue(s float64) float64 {
	switch {
	case s > 0.739:
		return 0.01
	case s > 0.574:
		return 0.025
	case s > 0.463:
		return 0.05
	case s > 0.347:
		return 0.10
	default:
		return math.Min(0.10+(0.347-s)*0.5, 1.0)
	}
}

// NDiffs returns the number of first differences, at most maxD, needed for the series to
// pass the KPSS test.
func NDiffs(y []float64, maxD int) int {
	cur := y
	for d := 0; d < maxD; d++ {
		res, err := KPSS(cur, 0)
		if err != nil || res.IsStationary {
			return d
		}
		cur = Diff(cur, 1)
	}
	return maxD
}

// NSDiffs returns the number of seasonal differences of period m, at most maxD, needed
// before the autocorrelation at lag m drops below SeasonalACFThreshold.
func NSDiffs(y []float64, m, maxD int) int {
	if m < 2 {
		return 0
	}
	cur := y
	for d := 0; d < maxD; d++ {
		acf := ACF(cur, m)
		if len(acf) <= m || math.Abs(acf[m]) < SeasonalACFThreshold {
			return d
		}
		next := Diff(cur, m)
		if len(next) <= m {
			return d
		}
		cur = next
	}
	return maxD
}
