package forecaster

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-sarima-forecaster/autoarima"
	"github.com/aouyang1/go-sarima-forecaster/sarima"
)

// FittedModel is the handle produced by a SeasonalEstimator fit
type FittedModel interface {
	// FittedValues returns the in-sample one step predictions aligned to the training
	// series, NaN where no prediction exists
	FittedValues() []float64
	// Predict returns values for the inclusive index range [start, end] counted from the
	// first training observation
	Predict(start, end int) ([]float64, error)
	Forecast(steps int) ([]float64, error)
	Save(path string, codec sarima.Codec) error
}

// SeasonalEstimator fits seasonal ARIMA models and searches for their orders
type SeasonalEstimator interface {
	Fit(y []float64, order sarima.Order, opt *sarima.FitOptions) (FittedModel, error)
	Search(y []float64, cfg *autoarima.Config) (sarima.Order, error)
}

// ModelLoader is implemented by estimators that can restore a saved FittedModel
type ModelLoader interface {
	Load(path string, codec sarima.Codec) (FittedModel, error)
}

// TablePrinter is implemented by fitted models that can summarise themselves
type TablePrinter interface {
	TablePrint(w io.Writer, prefix, indent string) error
}

type estimator struct{}

// NewEstimator returns the conditional sum of squares SARIMA estimator
func NewEstimator() SeasonalEstimator {
	return estimator{}
}

func (estimator) Fit(y []float64, order sarima.Order, opt *sarima.FitOptions) (FittedModel, error) {
	m := sarima.New(order)
	if err := m.Fit(y, opt); err != nil {
		return nil, fmt.Errorf("unable to fit SARIMA%s, %w", order, err)
	}
	return m, nil
}

func (estimator) Search(y []float64, cfg *autoarima.Config) (sarima.Order, error) {
	res, err := autoarima.Search(y, cfg)
	if err != nil {
		return sarima.Order{}, fmt.Errorf("unable to search SARIMA orders, %w", err)
	}
	return res.Order, nil
}

func (estimator) Load(path string, codec sarima.Codec) (FittedModel, error) {
	m, err := sarima.Load(path, codec)
	if err != nil {
		return nil, fmt.Errorf("unable to load SARIMA model, %w", err)
	}
	return m, nil
}
