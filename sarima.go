package forecaster

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aouyang1/go-sarima-forecaster/sarima"
	"github.com/aouyang1/go-sarima-forecaster/timedataset"
)

const SARIMAName = "SARIMA"

var (
	ErrInvalidModelFile = errors.New("model file name does not match strategy")
	ErrLoadUnsupported  = errors.New("estimator cannot load saved models")
)

// SARIMAOptions configures the collaborators of a SARIMAModel
type SARIMAOptions struct {
	Estimator SeasonalEstimator
	Codec     sarima.Codec
	Metrics   *ForecastMetrics

	// FitOptions is passed to every fit including the ones run by order search
	FitOptions *sarima.FitOptions

	// Now stamps the training date, defaults to time.Now
	Now    func() time.Time
	Logger *slog.Logger
}

// NewDefaultSARIMAOptions uses the conditional sum of squares estimator with relaxed
// stationarity and invertibility constraints and saves models as json.
func NewDefaultSARIMAOptions() *SARIMAOptions {
	return &SARIMAOptions{
		Estimator:  NewEstimator(),
		Codec:      sarima.JSONCodec,
		FitOptions: sarima.NewDefaultFitOptions(),
		Now:        time.Now,
		Logger:     slog.Default(),
	}
}

func (o *SARIMAOptions) fillDefaults() {
	def := NewDefaultSARIMAOptions()
	if o.Estimator == nil {
		o.Estimator = def.Estimator
	}
	if o.Codec == nil {
		o.Codec = def.Codec
	}
	if o.FitOptions == nil {
		o.FitOptions = def.FitOptions
	}
	if o.Now == nil {
		o.Now = def.Now
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	if o.Metrics == nil {
		o.Metrics = NewForecastMetrics(o.Logger)
	}
}

// SARIMAModel is a univariate seasonal ARIMA forecasting strategy
type SARIMAModel struct {
	Base

	hparams *SARIMAHParams
	opt     SARIMAOptions

	fitted    FittedModel
	order     sarima.Order
	savedPath string
}

var _ Strategy = (*SARIMAModel)(nil)

// NewSARIMAModel resolves the hyperparameters falling back to defaults for missing keys.
// A nil opt uses NewDefaultSARIMAOptions.
func NewSARIMAModel(hparams map[string]any, logDir string, opt *SARIMAOptions) (*SARIMAModel, error) {
	hp, err := NewSARIMAHParams(hparams)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve SARIMA hyperparameters, %w", err)
	}

	var o SARIMAOptions
	if opt != nil {
		o = *opt
	}
	o.fillDefaults()

	return &SARIMAModel{
		Base:    NewBase(SARIMAName, true, logDir),
		hparams: hp,
		opt:     o,
	}, nil
}

// HParams returns the resolved hyperparameters
func (s *SARIMAModel) HParams() SARIMAHParams {
	return *s.hparams
}

// Fitted reports whether a model is available for forecasting
func (s *SARIMAModel) Fitted() bool {
	return s.fitted != nil
}

// Order returns the order of the current fit, the zero order before fitting
func (s *SARIMAModel) Order() sarima.Order {
	return s.order
}

// LastSavedPath returns the file written by the last SaveModel, empty if nothing was saved
func (s *SARIMAModel) LastSavedPath() string {
	return s.savedPath
}

func (s *SARIMAModel) checkShape(frame *timedataset.Frame) error {
	if n := frame.NumColumns(); n != 2 {
		return fmt.Errorf("expected 2 columns, but got %d, %w", n, ErrInputShape)
	}
	return nil
}

// Fit trains on a Date/Consumption frame. With AUTO_PARAMS the order is searched within the
// configured bounds, otherwise the configured order is used. A failed fit leaves any previous
// fit in place.
func (s *SARIMAModel) Fit(frame *timedataset.Frame) error {
	if err := s.checkShape(frame); err != nil {
		return err
	}
	td, err := frame.Univariate()
	if err != nil {
		return fmt.Errorf("unable to index dataset by date, %w", err)
	}

	order := s.hparams.Order()
	if s.hparams.AutoParams {
		cfg, err := s.hparams.SearchConfig(s.opt.FitOptions, s.opt.Logger)
		if err != nil {
			return err
		}
		order, err = s.opt.Estimator.Search(td.Y, cfg)
		if err != nil {
			return fmt.Errorf("unable to search SARIMA order, %w", err)
		}
		s.opt.Logger.Info("best SARIMA params",
			"p", order.P, "d", order.D, "q", order.Q,
			"seasonal_p", order.SP, "seasonal_d", order.SD, "seasonal_q", order.SQ,
			"m", order.M,
		)
	}

	fitted, err := s.opt.Estimator.Fit(td.Y, order, s.opt.FitOptions)
	if err != nil {
		return fmt.Errorf("unable to fit SARIMA%s, %w", order, err)
	}

	s.fitted = fitted
	s.order = order
	s.stampTrainDate(s.opt.Now())

	s.opt.Logger.Debug("fit SARIMA model", "order", order.String(), "n_obs", td.Len(), "train_date", s.TrainDate())
	if s.LogDir() != "" {
		if err := s.writeSummary(); err != nil {
			s.opt.Logger.Warn("unable to write model summary", "error", err.Error())
		}
	}
	return nil
}

func (s *SARIMAModel) writeSummary() error {
	tp, ok := s.fitted.(TablePrinter)
	if !ok {
		return nil
	}
	if err := os.MkdirAll(s.LogDir(), 0o755); err != nil {
		return err
	}
	file, err := os.Create(filepath.Join(s.LogDir(), s.ModelFilename(".txt")))
	if err != nil {
		return err
	}
	if err := tp.TablePrint(file, "", "  "); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Evaluate scores the fit over train and a forecast over test. The forecast for the test rows
// starts right after the training rows.
func (s *SARIMAModel) Evaluate(train, test *timedataset.Frame, saveDir string) (*Evaluation, error) {
	if err := s.checkShape(train); err != nil {
		return nil, fmt.Errorf("invalid training frame, %w", err)
	}
	if err := s.checkShape(test); err != nil {
		return nil, fmt.Errorf("invalid test frame, %w", err)
	}
	if !s.Fitted() {
		return nil, ErrNotFitted
	}

	trainTD, err := train.Univariate()
	if err != nil {
		return nil, fmt.Errorf("unable to index training dataset by date, %w", err)
	}
	testTD, err := test.Univariate()
	if err != nil {
		return nil, fmt.Errorf("unable to index test dataset by date, %w", err)
	}

	var forecast []float64
	if testTD.Len() > 0 {
		forecast, err = s.fitted.Predict(trainTD.Len(), trainTD.Len()+testTD.Len()-1)
		if err != nil {
			return nil, fmt.Errorf("unable to predict test rows, %w", err)
		}
	}

	frame, err := NewEvalFrame(trainTD, testTD, s.fitted.FittedValues(), forecast)
	if err != nil {
		return nil, fmt.Errorf("unable to build evaluation frame, %w", err)
	}
	return s.opt.Metrics.Evaluate(frame, saveDir)
}

// Forecast returns exactly days values following the training data. recent is not used since
// the fit model carries its own history.
func (s *SARIMAModel) Forecast(days int, recent *timedataset.Frame) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if days < 1 {
		return nil, fmt.Errorf("got %d, %w", days, ErrInvalidHorizon)
	}
	forecast, err := s.fitted.Forecast(days)
	if err != nil {
		return nil, fmt.Errorf("unable to forecast %d steps, %w", days, err)
	}
	return forecast, nil
}

// ForecastTimes returns the timestamps of the next days forecasts inferred from the interval of
// the training frame
func (s *SARIMAModel) ForecastTimes(days int, train *timedataset.Frame) ([]time.Time, error) {
	td, err := train.Univariate()
	if err != nil {
		return nil, err
	}
	return timedataset.TimeSlice(td.T).Extend(days)
}

// SaveModel writes the fit model as <name><train date><ext> under saveDir. Nothing is written
// before a successful fit.
func (s *SARIMAModel) SaveModel(saveDir string) error {
	if !s.Fitted() {
		s.opt.Logger.Debug("skipping save of unfit model", "name", s.Name())
		return nil
	}
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return fmt.Errorf("unable to create model directory, %w", err)
	}
	path := filepath.Join(saveDir, s.ModelFilename(s.opt.Codec.Extension()))
	if err := s.fitted.Save(path, s.opt.Codec); err != nil {
		return fmt.Errorf("unable to save SARIMA model, %w", err)
	}
	s.savedPath = path
	s.opt.Logger.Info("saved SARIMA model", "path", path)
	return nil
}

// LoadSARIMAModel restores a model written by SaveModel so it can forecast without refitting.
// The training date is recovered from the file name and the codec from its extension when the
// options do not set one.
func LoadSARIMAModel(path string, hparams map[string]any, logDir string, opt *SARIMAOptions) (*SARIMAModel, error) {
	s, err := NewSARIMAModel(hparams, logDir, opt)
	if err != nil {
		return nil, err
	}
	loader, ok := s.opt.Estimator.(ModelLoader)
	if !ok {
		return nil, fmt.Errorf("%T, %w", s.opt.Estimator, ErrLoadUnsupported)
	}

	codec := sarima.CodecForPath(path)
	if opt != nil && opt.Codec != nil {
		codec = opt.Codec
	}

	base := filepath.Base(path)
	stamp := strings.TrimSuffix(base, filepath.Ext(base))
	if !strings.HasPrefix(stamp, s.Name()) {
		return nil, fmt.Errorf("%s, %w", base, ErrInvalidModelFile)
	}
	stamp = strings.TrimPrefix(stamp, s.Name())
	trainDate, err := time.Parse(TrainDateFormat, stamp)
	if err != nil {
		return nil, fmt.Errorf("%s, %s, %w", base, err.Error(), ErrInvalidModelFile)
	}

	fitted, err := loader.Load(path, codec)
	if err != nil {
		return nil, err
	}
	s.fitted = fitted
	s.opt.Codec = codec
	if m, ok := fitted.(*sarima.Model); ok {
		s.order = m.Order
	}
	s.stampTrainDate(trainDate)
	return s, nil
}
