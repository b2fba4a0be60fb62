package forecaster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/aouyang1/go-sarima-forecaster/timedataset"
)

var ErrEvalLenMismatch = errors.New("predictions do not match evaluation rows")

// EvalFrame aligns the ground truth of a train and test split with the in-sample fit on the
// training rows and the forecast on the test rows. Model is NaN on test rows and Forecast is
// NaN on training rows.
type EvalFrame struct {
	T        []time.Time `json:"time"`
	GT       []float64   `json:"gt"`
	Model    []float64   `json:"model"`
	Forecast []float64   `json:"forecast"`

	// TrainLen is the number of training rows; test rows start at this index
	TrainLen int `json:"train_len"`
}

// NewEvalFrame concatenates the train and test rows. fitted is aligned to the training rows
// by position and padded with NaN when shorter. forecast must have one value per test row.
func NewEvalFrame(train, test *timedataset.TimeDataset, fitted, forecast []float64) (*EvalFrame, error) {
	if len(forecast) != test.Len() {
		return nil, fmt.Errorf("expected %d forecasts, but got %d, %w", test.Len(), len(forecast), ErrEvalLenMismatch)
	}
	n := train.Len() + test.Len()
	f := &EvalFrame{
		T:        make([]time.Time, 0, n),
		GT:       make([]float64, 0, n),
		Model:    make([]float64, 0, n),
		Forecast: make([]float64, 0, n),
		TrainLen: train.Len(),
	}

	for i := 0; i < train.Len(); i++ {
		f.T = append(f.T, train.T[i])
		f.GT = append(f.GT, train.Y[i])
		fit := math.NaN()
		if i < len(fitted) {
			fit = fitted[i]
		}
		f.Model = append(f.Model, fit)
		f.Forecast = append(f.Forecast, math.NaN())
	}
	for i := 0; i < test.Len(); i++ {
		f.T = append(f.T, test.T[i])
		f.GT = append(f.GT, test.Y[i])
		f.Model = append(f.Model, math.NaN())
		f.Forecast = append(f.Forecast, forecast[i])
	}
	return f, nil
}

// Len returns the total number of rows
func (f *EvalFrame) Len() int {
	return len(f.T)
}

// TestGT returns the ground truth of the test rows
func (f *EvalFrame) TestGT() []float64 {
	return f.GT[f.TrainLen:]
}

// TestForecast returns the forecasts of the test rows
func (f *EvalFrame) TestForecast() []float64 {
	return f.Forecast[f.TrainLen:]
}

// WriteCSV writes one row per time point with empty cells for missing values
func (f *EvalFrame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{timedataset.ColumnDS, "gt", "model", "forecast"}); err != nil {
		return err
	}
	for i := range f.T {
		rec := []string{
			f.T[i].Format(time.RFC3339),
			formatCell(f.GT[i]),
			formatCell(f.Model[i]),
			formatCell(f.Forecast[i]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
