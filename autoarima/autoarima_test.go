package autoarima

import (
	"errors"
	"math"
	"testing"

	"github.com/aouyang1/go-sarima-forecaster/sarima"
	"github.com/aouyang1/go-sarima-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFakeFit = errors.New("fake fit failure")

func quadraticFit(p, q, sp, sq int) func(sarima.Order) (*sarima.Model, error) {
	return func(o sarima.Order) (*sarima.Model, error) {
		aic := math.Pow(float64(o.P-p), 2) +
			math.Pow(float64(o.Q-q), 2) +
			math.Pow(float64(o.SP-sp), 2) +
			math.Pow(float64(o.SQ-sq), 2)
		return &sarima.Model{Order: o, AIC: aic, BIC: -aic}, nil
	}
}

func boundedConfig(stepwise bool) *Config {
	cfg := NewDefaultConfig()
	cfg.MaxP, cfg.MaxD, cfg.MaxQ = 3, 1, 3
	cfg.MaxSP, cfg.MaxSD, cfg.MaxSQ = 1, 1, 1
	cfg.M = 4
	cfg.Stepwise = stepwise
	return cfg
}

func noise() []float64 {
	return timedataset.GenerateNoise(60, 1.0, 3)
}

func TestSearchSelectsLowestCriterion(t *testing.T) {
	testData := map[string]struct {
		stepwise bool
	}{
		"grid":     {stepwise: false},
		"stepwise": {stepwise: true},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s := newSearcher(boundedConfig(td.stepwise), quadraticFit(2, 1, 1, 0))
			res, err := s.run(noise())
			require.NoError(t, err)

			o := res.Order
			assert.Equal(t, []int{2, 1, 1, 0}, []int{o.P, o.Q, o.SP, o.SQ})
			assert.Equal(t, 4, o.M)
			assert.Equal(t, 0.0, res.Criterion)
			assert.Greater(t, res.Evaluated, 0)
			assert.Equal(t, 0, res.Skipped)
		})
	}
}

func TestSearchBIC(t *testing.T) {
	cfg := boundedConfig(false)
	cfg.Criterion = CriterionBIC

	// BIC is the negated distance so the farthest corner wins
	s := newSearcher(cfg, quadraticFit(0, 0, 0, 0))
	res, err := s.run(noise())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1, 1}, []int{res.Order.P, res.Order.Q, res.Order.SP, res.Order.SQ})
}

func TestSearchSkipsFailedCandidates(t *testing.T) {
	good := quadraticFit(1, 1, 0, 0)
	fit := func(o sarima.Order) (*sarima.Model, error) {
		if o.P == 1 {
			return nil, errFakeFit
		}
		return good(o)
	}

	s := newSearcher(boundedConfig(false), fit)
	res, err := s.run(noise())
	require.NoError(t, err)
	assert.NotEqual(t, 1, res.Order.P)
	assert.Equal(t, 1, res.Order.Q)
	assert.Equal(t, 16, res.Skipped)
	assert.Equal(t, 48, res.Evaluated)
}

func TestSearchNonFiniteCriterionSkipped(t *testing.T) {
	fit := func(o sarima.Order) (*sarima.Model, error) {
		if o.P == 0 {
			return &sarima.Model{Order: o, AIC: math.NaN()}, nil
		}
		return &sarima.Model{Order: o, AIC: float64(o.P)}, nil
	}
	s := newSearcher(boundedConfig(false), fit)
	res, err := s.run(noise())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Order.P)
	assert.Greater(t, res.Skipped, 0)
}

func TestSearchAllCandidatesFail(t *testing.T) {
	fit := func(o sarima.Order) (*sarima.Model, error) {
		return nil, errFakeFit
	}
	s := newSearcher(boundedConfig(true), fit)
	_, err := s.run(noise())
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestSearchRespectsBounds(t *testing.T) {
	cfg := boundedConfig(false)
	cfg.MaxOrder = 2
	cfg.Seasonal = false

	var orders []sarima.Order
	base := quadraticFit(3, 3, 1, 1)
	fit := func(o sarima.Order) (*sarima.Model, error) {
		orders = append(orders, o)
		return base(o)
	}

	s := newSearcher(cfg, fit)
	_, err := s.run(noise())
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	for _, o := range orders {
		assert.LessOrEqual(t, o.P+o.Q+o.SP+o.SQ, 2)
		assert.Equal(t, 0, o.SP)
		assert.Equal(t, 0, o.SQ)
		assert.Equal(t, 0, o.SD)
		assert.Equal(t, 1, o.M)
		assert.LessOrEqual(t, o.D, cfg.MaxD)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.MaxP = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidBounds)

	cfg = NewDefaultConfig()
	cfg.Criterion = "hqic"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownCriterion)

	_, err := Search(noise(), cfg)
	assert.ErrorIs(t, err, ErrUnknownCriterion)
}

func TestSearchSeasonalSeries(t *testing.T) {
	n := 72
	y := timedataset.GenerateConstY(n, 100.0).
		Add(timedataset.GenerateTrendY(n, 0.5)).
		Add(timedataset.GenerateSeasonalY(n, 8.0, 12, 0.0)).
		Add(timedataset.GenerateNoise(n, 0.5, 11))

	cfg := NewDefaultConfig()
	cfg.MaxP, cfg.MaxD, cfg.MaxQ = 1, 1, 1
	cfg.MaxSP, cfg.MaxSD, cfg.MaxSQ = 1, 1, 1
	cfg.MaxOrder = 2
	cfg.M = 12

	res, err := Search(y, cfg)
	require.NoError(t, err)
	require.NotNil(t, res.Model)
	assert.Equal(t, 12, res.Order.M)
	assert.LessOrEqual(t, res.Order.P, 1)
	assert.LessOrEqual(t, res.Order.SP, 1)
	assert.LessOrEqual(t, res.Order.SD, 1)
	assert.Greater(t, res.Evaluated, 0)

	forecast, err := res.Model.Forecast(12)
	require.NoError(t, err)
	assert.Len(t, forecast, 12)
}
