package forecaster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores are the error metrics of a set of predictions
type Scores struct {
	MAE  float64 `json:"mean_absolute_error"`
	MSE  float64 `json:"mean_squared_error"`
	RMSE float64 `json:"root_mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// NewScores calculates the scores given the predicted and actual input slice values. Points
// where either value is NaN are ignored.
func NewScores(predicted, actual []float64) (*Scores, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	p, a := dropNaN(predicted, actual)

	mse := MSE(p, a)
	rs, err := RSquared(p, a)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}
	return &Scores{
		MAE:  MAE(p, a),
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAPE: MAPE(p, a),
		R2:   rs,
	}, nil
}

func dropNaN(predicted, actual []float64) ([]float64, []float64) {
	p := make([]float64, 0, len(predicted))
	a := make([]float64, 0, len(actual))
	for i := range actual {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		p = append(p, predicted[i])
		a = append(a, actual[i])
	}
	return p, a
}

// MAE computes the mean absolute error. A score of 0 means a perfect match with no errors.
func MAE(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var mae float64
	for i := range actual {
		mae += math.Abs(actual[i] - predicted[i])
	}
	return mae / float64(len(actual))
}

// MSE computes the mean squared error. This is the same as sum((y-yhat)^2)/n.
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var mse float64
	for i := range actual {
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	return mse / float64(len(actual))
}

// MAPE calculates the mean average percent error. Points with an actual value of zero are
// skipped. A score of 0 means a perfect match with no errors.
func MAPE(predicted, actual []float64) float64 {
	var mape float64
	var n int
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return mape / float64(n)
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit and 0 represents no relationship
func RSquared(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	if len(actual) == 0 {
		return 0, nil
	}
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 1.0, nil
	}
	return r2, nil
}
