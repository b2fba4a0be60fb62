package forecaster

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/go-sarima-forecaster/autoarima"
	"github.com/aouyang1/go-sarima-forecaster/sarima"
	"github.com/aouyang1/go-sarima-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errFakeFit = errors.New("fake fit failure")
	trainTime  = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
)

// fakeModel predicts its own index so alignment is easy to assert
type fakeModel struct {
	n int
}

func (m *fakeModel) FittedValues() []float64 {
	out := make([]float64, m.n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func (m *fakeModel) Predict(start, end int) ([]float64, error) {
	if start < 0 || end < start {
		return nil, sarima.ErrInvalidRange
	}
	out := make([]float64, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, float64(i))
	}
	return out, nil
}

func (m *fakeModel) Forecast(steps int) ([]float64, error) {
	return m.Predict(m.n, m.n+steps-1)
}

func (m *fakeModel) Save(path string, codec sarima.Codec) error {
	return os.WriteFile(path, []byte(codec.Name()), 0o644)
}

type fakeEstimator struct {
	fitErr      error
	searchOrder sarima.Order

	fitOrders []sarima.Order
	fitOpts   []*sarima.FitOptions
	searchCfg *autoarima.Config
}

func (e *fakeEstimator) Fit(y []float64, order sarima.Order, opt *sarima.FitOptions) (FittedModel, error) {
	e.fitOrders = append(e.fitOrders, order)
	e.fitOpts = append(e.fitOpts, opt)
	if e.fitErr != nil {
		return nil, e.fitErr
	}
	return &fakeModel{n: len(y)}, nil
}

func (e *fakeEstimator) Search(y []float64, cfg *autoarima.Config) (sarima.Order, error) {
	e.searchCfg = cfg
	return e.searchOrder, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions(est SeasonalEstimator) *SARIMAOptions {
	return &SARIMAOptions{
		Estimator: est,
		Now:       func() time.Time { return trainTime },
		Logger:    discardLogger(),
	}
}

func monthlyFrame(t *testing.T, n int) *timedataset.Frame {
	t.Helper()
	dates := timedataset.GenerateMonthlyT(n, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	y := timedataset.GenerateConstY(n, 100).
		Add(timedataset.GenerateTrendY(n, 0.5)).
		Add(timedataset.GenerateSeasonalY(n, 10, 4, 0)).
		Add(timedataset.GenerateNoise(n, 1, 7))
	frame, err := timedataset.NewConsumptionFrame(dates, y)
	require.Nil(t, err)
	return frame
}

func manualHParams() map[string]any {
	return map[string]any{
		HParamAutoParams: false,
		HParamTrendP:     1,
		HParamTrendD:     0,
		HParamTrendQ:     0,
		HParamSeasonalP:  0,
		HParamSeasonalD:  0,
		HParamSeasonalQ:  0,
		HParamM:          4,
	}
}

func TestNewSARIMAModel(t *testing.T) {
	testData := map[string]struct {
		hparams  map[string]any
		expected SARIMAHParams
		err      error
	}{
		"defaults": {
			hparams:  nil,
			expected: *NewDefaultSARIMAHParams(),
		},
		"manual": {
			hparams: manualHParams(),
			expected: SARIMAHParams{
				TrendP: 1,
				M:      4,
			},
		},
		"auto without bounds": {
			hparams: map[string]any{HParamAutoParams: true},
			err:     ErrMissingSearchBounds,
		},
		"invalid value": {
			hparams: map[string]any{HParamTrendP: "many"},
			err:     ErrInvalidHParam,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := NewSARIMAModel(td.hparams, "", testOptions(&fakeEstimator{}))
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, SARIMAName, m.Name())
			assert.True(t, m.Univariate())
			assert.Equal(t, td.expected, m.HParams())
			assert.False(t, m.Fitted())
			assert.Equal(t, "", m.TrainDate())
		})
	}
}

func TestSARIMAModelFitShape(t *testing.T) {
	good := monthlyFrame(t, 24)
	wide := good.Copy()
	require.Nil(t, wide.AddColumn("Temperature", make([]float64, 24)))
	dateOnly := timedataset.NewFrame(timedataset.ColumnDate, good.Dates())

	testData := map[string]struct {
		frame *timedataset.Frame
	}{
		"three columns": {frame: wide},
		"date only":     {frame: dateOnly},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			est := &fakeEstimator{}
			m, err := NewSARIMAModel(manualHParams(), "", testOptions(est))
			require.Nil(t, err)

			err = m.Fit(td.frame)
			assert.ErrorIs(t, err, ErrInputShape)
			assert.False(t, m.Fitted())
			assert.Empty(t, est.fitOrders)
			assert.Equal(t, "", m.TrainDate())
		})
	}
}

func TestSARIMAModelFailedFitKeepsPrevious(t *testing.T) {
	est := &fakeEstimator{}
	m, err := NewSARIMAModel(manualHParams(), "", testOptions(est))
	require.Nil(t, err)

	require.Nil(t, m.Fit(monthlyFrame(t, 24)))
	order := m.Order()
	trainDate := m.TrainDate()

	est.fitErr = errFakeFit
	err = m.Fit(monthlyFrame(t, 30))
	assert.ErrorIs(t, err, errFakeFit)
	assert.True(t, m.Fitted())
	assert.Equal(t, order, m.Order())
	assert.Equal(t, trainDate, m.TrainDate())

	forecast, err := m.Forecast(2, nil)
	require.Nil(t, err)
	assert.Equal(t, []float64{24, 25}, forecast)
}

func TestSARIMAModelFitOrder(t *testing.T) {
	searched := sarima.NewOrder(2, 1, 1, 1, 0, 0, 4)

	testData := map[string]struct {
		hparams       map[string]any
		expectedOrder sarima.Order
		searched      bool
	}{
		"manual": {
			hparams:       manualHParams(),
			expectedOrder: sarima.NewOrder(1, 0, 0, 0, 0, 0, 4),
		},
		"defaults": {
			hparams:       map[string]any{},
			expectedOrder: sarima.NewOrder(10, 2, 0, 5, 2, 0, 12),
		},
		"auto": {
			hparams: map[string]any{
				HParamAutoParams: true,
				HParamM:          4,
				HParamPMax:       3,
				HParamDMax:       1,
				HParamQMax:       2,
			},
			expectedOrder: searched,
			searched:      true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			est := &fakeEstimator{searchOrder: searched}
			m, err := NewSARIMAModel(td.hparams, "", testOptions(est))
			require.Nil(t, err)

			require.Nil(t, m.Fit(monthlyFrame(t, 24)))
			assert.Equal(t, td.expectedOrder, m.Order())
			require.Len(t, est.fitOrders, 1)
			assert.Equal(t, td.expectedOrder, est.fitOrders[0])
			assert.False(t, est.fitOpts[0].EnforceStationarity)
			assert.False(t, est.fitOpts[0].EnforceInvertibility)
			assert.Equal(t, trainTime.Format(TrainDateFormat), m.TrainDate())

			if !td.searched {
				assert.Nil(t, est.searchCfg)
				return
			}
			require.NotNil(t, est.searchCfg)
			cfg := est.searchCfg
			assert.Equal(t, 3, cfg.MaxP)
			assert.Equal(t, 1, cfg.MaxD)
			assert.Equal(t, 2, cfg.MaxQ)
			assert.Equal(t, 3, cfg.MaxSP)
			assert.Equal(t, 1, cfg.MaxSD)
			assert.Equal(t, 2, cfg.MaxSQ)
			assert.Equal(t, 5, cfg.MaxOrder)
			assert.Equal(t, 4, cfg.M)
			assert.Equal(t, autoarima.CriterionAIC, cfg.Criterion)
		})
	}
}

func TestSARIMAModelForecast(t *testing.T) {
	testData := map[string]struct {
		fit      bool
		days     int
		expected []float64
		err      error
	}{
		"not fit": {
			days: 3,
			err:  ErrNotFitted,
		},
		"zero days": {
			fit:  true,
			days: 0,
			err:  ErrInvalidHorizon,
		},
		"negative days": {
			fit:  true,
			days: -2,
			err:  ErrInvalidHorizon,
		},
		"three days": {
			fit:      true,
			days:     3,
			expected: []float64{24, 25, 26},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := NewSARIMAModel(manualHParams(), "", testOptions(&fakeEstimator{}))
			require.Nil(t, err)
			if td.fit {
				require.Nil(t, m.Fit(monthlyFrame(t, 24)))
			}

			forecast, err := m.Forecast(td.days, nil)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Len(t, forecast, td.days)
			assert.Equal(t, td.expected, forecast)
		})
	}
}

func TestSARIMAModelEvaluate(t *testing.T) {
	full := monthlyFrame(t, 30)
	td, err := full.Univariate()
	require.Nil(t, err)
	trainTD, testTD, err := td.Split(6)
	require.Nil(t, err)
	train, err := timedataset.NewConsumptionFrame(trainTD.T, trainTD.Y)
	require.Nil(t, err)
	test, err := timedataset.NewConsumptionFrame(testTD.T, testTD.Y)
	require.Nil(t, err)

	wide := test.Copy()
	require.Nil(t, wide.AddColumn("extra", make([]float64, test.NumRows())))

	t.Run("not fit", func(t *testing.T) {
		m, err := NewSARIMAModel(manualHParams(), "", testOptions(&fakeEstimator{}))
		require.Nil(t, err)
		_, err = m.Evaluate(train, test, "")
		assert.ErrorIs(t, err, ErrNotFitted)
	})

	t.Run("invalid test shape", func(t *testing.T) {
		m, err := NewSARIMAModel(manualHParams(), "", testOptions(&fakeEstimator{}))
		require.Nil(t, err)
		require.Nil(t, m.Fit(train))
		_, err = m.Evaluate(train, wide, "")
		assert.ErrorIs(t, err, ErrInputShape)
	})

	t.Run("aligned frame", func(t *testing.T) {
		m, err := NewSARIMAModel(manualHParams(), "", testOptions(&fakeEstimator{}))
		require.Nil(t, err)
		require.Nil(t, m.Fit(train))

		saveDir := t.TempDir()
		eval, err := m.Evaluate(train, test, saveDir)
		require.Nil(t, err)

		frame := eval.Frame
		assert.Equal(t, 30, frame.Len())
		assert.Equal(t, 24, frame.TrainLen)
		assert.Equal(t, full.Dates(), frame.T)
		for i := 0; i < 24; i++ {
			assert.Equal(t, float64(i), frame.Model[i])
			assert.True(t, math.IsNaN(frame.Forecast[i]))
		}
		for i := 24; i < 30; i++ {
			assert.True(t, math.IsNaN(frame.Model[i]))
			assert.Equal(t, float64(i), frame.Forecast[i])
		}
		assert.False(t, math.IsNaN(eval.Metrics.MAE))

		for _, f := range []string{ForecastCSVFile, MetricsJSONFile, ForecastHTMLFile} {
			assert.FileExists(t, filepath.Join(saveDir, f))
		}
	})
}

func TestSARIMAModelSaveModel(t *testing.T) {
	testData := map[string]struct {
		fit          bool
		codec        sarima.Codec
		expectedFile string
	}{
		"not fit": {},
		"json": {
			fit:          true,
			expectedFile: "SARIMA20240102-030405.json",
		},
		"msgpack": {
			fit:          true,
			codec:        sarima.MsgpackCodec,
			expectedFile: "SARIMA20240102-030405.msgpack",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := testOptions(&fakeEstimator{})
			opt.Codec = td.codec
			m, err := NewSARIMAModel(manualHParams(), "", opt)
			require.Nil(t, err)
			if td.fit {
				require.Nil(t, m.Fit(monthlyFrame(t, 24)))
			}

			saveDir := filepath.Join(t.TempDir(), "models")
			require.Nil(t, m.SaveModel(saveDir))

			if !td.fit {
				assert.NoDirExists(t, saveDir)
				assert.Equal(t, "", m.LastSavedPath())
				return
			}
			entries, err := os.ReadDir(saveDir)
			require.Nil(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, td.expectedFile, entries[0].Name())
			assert.Contains(t, entries[0].Name(), m.Name())
			assert.Contains(t, entries[0].Name(), m.TrainDate())
			assert.Equal(t, filepath.Join(saveDir, td.expectedFile), m.LastSavedPath())
		})
	}
}

func TestSARIMAModelForecastTimes(t *testing.T) {
	frame := monthlyFrame(t, 24)
	m, err := NewSARIMAModel(manualHParams(), "", testOptions(&fakeEstimator{}))
	require.Nil(t, err)

	times, err := m.ForecastTimes(2, frame)
	require.Nil(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC),
	}, times)
}

func TestSARIMAModelEndToEnd(t *testing.T) {
	logDir := t.TempDir()
	opt := testOptions(NewEstimator())
	m, err := NewSARIMAModel(manualHParams(), logDir, opt)
	require.Nil(t, err)

	require.Nil(t, m.Fit(monthlyFrame(t, 24)))
	assert.Equal(t, sarima.NewOrder(1, 0, 0, 0, 0, 0, 4), m.Order())
	assert.FileExists(t, filepath.Join(logDir, "SARIMA20240102-030405.txt"))

	forecast, err := m.Forecast(4, nil)
	require.Nil(t, err)
	require.Len(t, forecast, 4)
	for _, v := range forecast {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}

	saveDir := t.TempDir()
	require.Nil(t, m.SaveModel(saveDir))

	loaded, err := LoadSARIMAModel(m.LastSavedPath(), manualHParams(), "", testOptions(NewEstimator()))
	require.Nil(t, err)
	assert.Equal(t, m.Order(), loaded.Order())
	assert.Equal(t, m.TrainDate(), loaded.TrainDate())

	reloaded, err := loaded.Forecast(4, nil)
	require.Nil(t, err)
	assert.InDeltaSlice(t, forecast, reloaded, 1e-9)
}

func TestLoadSARIMAModelErrors(t *testing.T) {
	dir := t.TempDir()
	badName := filepath.Join(dir, "ARIMA20240102-030405.json")
	badDate := filepath.Join(dir, "SARIMAyesterday.json")
	for _, p := range []string{badName, badDate} {
		require.Nil(t, os.WriteFile(p, []byte("{}"), 0o644))
	}

	testData := map[string]struct {
		path string
		opt  *SARIMAOptions
		err  error
	}{
		"wrong strategy": {
			path: badName,
			opt:  testOptions(NewEstimator()),
			err:  ErrInvalidModelFile,
		},
		"bad train date": {
			path: badDate,
			opt:  testOptions(NewEstimator()),
			err:  ErrInvalidModelFile,
		},
		"estimator cannot load": {
			path: badName,
			opt:  testOptions(&fakeEstimator{}),
			err:  ErrLoadUnsupported,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSARIMAModel(td.path, nil, "", td.opt)
			assert.ErrorIs(t, err, td.err)
		})
	}
}
