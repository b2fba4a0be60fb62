package timedataset

import (
	"errors"
	"math"
	"time"
)

var ErrCannotInferFreq = errors.New("cannot infer frequency from time slice")

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}
	return t[len(t)-1]
}

// EstimateFreq returns the most common spacing between consecutive points. Ties resolve to
// the smaller spacing.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		frequencies[t[i].Sub(t[i-1])]++
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// IsMonthly reports whether every point falls on the same day of consecutive months.
func (t TimeSlice) IsMonthly() bool {
	if len(t) < 2 {
		return false
	}
	for i := 1; i < len(t); i++ {
		if t[i].Day() != t[0].Day() || !t[i-1].AddDate(0, 1, 0).Equal(t[i]) {
			return false
		}
	}
	return true
}

// Extend generates n time points continuing after the last point of the slice, stepping
// by calendar month for monthly series and by the estimated frequency otherwise.
func (t TimeSlice) Extend(n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	last := t.EndTime()
	out := make([]time.Time, 0, n)
	if t.IsMonthly() {
		for i := 1; i <= n; i++ {
			out = append(out, last.AddDate(0, i, 0))
		}
		return out, nil
	}

	freq, err := t.EstimateFreq()
	if err != nil {
		return nil, err
	}
	for i := 1; i <= n; i++ {
		out = append(out, last.Add(time.Duration(i)*freq))
	}
	return out, nil
}
