package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

// GenerateMonthlyT returns n month starts beginning at the month of start
func GenerateMonthlyT(n int, start time.Time) []time.Time {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, first.AddDate(0, i, 0))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, n)
	floats.AddConst(val, y)
	return Series(y)
}

// GenerateTrendY generates a linear ramp of slope per observation
func GenerateTrendY(n int, slope float64) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = slope * float64(i)
	}
	return Series(y)
}

// GenerateSeasonalY generates a sine wave repeating every period observations
func GenerateSeasonalY(n int, amp float64, period int, phase float64) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = amp * math.Sin(2.0*math.Pi*float64(i)/float64(period)+phase)
	}
	return Series(y)
}

// GenerateNoise generates gaussian noise with a fixed seed so simulated series are
// reproducible
func GenerateNoise(n int, scale float64, seed uint64) Series {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = rng.NormFloat64() * scale
	}
	return Series(y)
}
