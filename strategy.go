// Package forecaster provides interchangeable forecasting strategies sharing a fit,
// evaluate, forecast and save lifecycle over date indexed consumption series.
package forecaster

import (
	"errors"
	"time"

	"github.com/aouyang1/go-sarima-forecaster/timedataset"
)

// TrainDateFormat is the layout of the training date stamped at fit time and embedded in
// saved model file names.
const TrainDateFormat = "20060102-150405"

var (
	ErrInputShape     = errors.New("univariate models cannot fit with datasets with more than 1 feature")
	ErrNotFitted      = errors.New("model has not been fit")
	ErrInvalidHorizon = errors.New("forecast horizon must be at least 1")
)

// Strategy is the lifecycle every forecasting model exposes
type Strategy interface {
	Name() string
	Univariate() bool

	// Fit trains the model on a chronological Date/value frame
	Fit(dataset *timedataset.Frame) error

	// Evaluate scores in-sample fit on train and out-of-sample forecasts on test, optionally
	// writing artifacts to saveDir
	Evaluate(train, test *timedataset.Frame, saveDir string) (*Evaluation, error)

	// Forecast predicts the next days values after the training data. Strategies that need
	// recent observations to seed a forecast read them from recent.
	Forecast(days int, recent *timedataset.Frame) ([]float64, error)

	// SaveModel persists the fit model under saveDir. It is a no-op before fitting.
	SaveModel(saveDir string) error
}

// Base holds the bookkeeping shared by strategies
type Base struct {
	name       string
	univariate bool
	logDir     string

	trainDate string
}

func NewBase(name string, univariate bool, logDir string) Base {
	return Base{
		name:       name,
		univariate: univariate,
		logDir:     logDir,
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Univariate() bool {
	return b.univariate
}

func (b *Base) LogDir() string {
	return b.logDir
}

// TrainDate returns the stamp recorded by the last successful fit, empty before fitting
func (b *Base) TrainDate() string {
	return b.trainDate
}

func (b *Base) stampTrainDate(t time.Time) {
	b.trainDate = t.Format(TrainDateFormat)
}

// ModelFilename is the strategy name followed by the training date and extension
func (b *Base) ModelFilename(ext string) string {
	return b.name + b.trainDate + ext
}
