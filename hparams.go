package forecaster

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aouyang1/go-sarima-forecaster/autoarima"
	"github.com/aouyang1/go-sarima-forecaster/sarima"
	"github.com/spf13/cast"
)

const (
	HParamAutoParams = "AUTO_PARAMS"
	HParamTrendP     = "TREND_P"
	HParamTrendD     = "TREND_D"
	HParamTrendQ     = "TREND_Q"
	HParamSeasonalP  = "SEASONAL_P"
	HParamSeasonalD  = "SEASONAL_D"
	HParamSeasonalQ  = "SEASONAL_Q"
	HParamM          = "M"

	// search bounds, required when AUTO_PARAMS is set
	HParamPMax = "P_MAX"
	HParamDMax = "D_MAX"
	HParamQMax = "Q_MAX"
)

var (
	ErrInvalidHParam       = errors.New("invalid hyperparameter")
	ErrMissingSearchBounds = errors.New("automatic order search requires P_MAX, D_MAX and Q_MAX")
)

// SearchBounds caps every order component explored by automatic order search
type SearchBounds struct {
	PMax int `json:"p_max"`
	DMax int `json:"d_max"`
	QMax int `json:"q_max"`
}

// SARIMAHParams is the resolved SARIMA hyperparameter set
type SARIMAHParams struct {
	AutoParams bool `json:"auto_params"`

	TrendP int `json:"trend_p"`
	TrendD int `json:"trend_d"`
	TrendQ int `json:"trend_q"`

	SeasonalP int `json:"seasonal_p"`
	SeasonalD int `json:"seasonal_d"`
	SeasonalQ int `json:"seasonal_q"`
	M         int `json:"m"`

	// Bounds is nil unless all of P_MAX, D_MAX and Q_MAX were provided
	Bounds *SearchBounds `json:"bounds,omitempty"`
}

// NewDefaultSARIMAHParams returns SARIMA(10,2,0)(5,2,0,12) with order search disabled
func NewDefaultSARIMAHParams() *SARIMAHParams {
	return &SARIMAHParams{
		TrendP:    10,
		TrendD:    2,
		TrendQ:    0,
		SeasonalP: 5,
		SeasonalD: 2,
		SeasonalQ: 0,
		M:         12,
	}
}

// NewSARIMAHParams resolves each recognised key of the mapping falling back to its default
// when absent. Values are coerced so numbers decoded from yaml, json or strings all work.
func NewSARIMAHParams(hparams map[string]any) (*SARIMAHParams, error) {
	hp := NewDefaultSARIMAHParams()

	if v, exists := hparams[HParamAutoParams]; exists {
		auto, err := cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("%s, %s, %w", HParamAutoParams, err.Error(), ErrInvalidHParam)
		}
		hp.AutoParams = auto
	}

	ints := []struct {
		key string
		dst *int
		min int
	}{
		{HParamTrendP, &hp.TrendP, 0},
		{HParamTrendD, &hp.TrendD, 0},
		{HParamTrendQ, &hp.TrendQ, 0},
		{HParamSeasonalP, &hp.SeasonalP, 0},
		{HParamSeasonalD, &hp.SeasonalD, 0},
		{HParamSeasonalQ, &hp.SeasonalQ, 0},
		{HParamM, &hp.M, 1},
	}
	for _, p := range ints {
		if err := resolveInt(hparams, p.key, p.min, p.dst); err != nil {
			return nil, err
		}
	}

	var bounds SearchBounds
	var missing []string
	for _, p := range []struct {
		key string
		dst *int
	}{
		{HParamPMax, &bounds.PMax},
		{HParamDMax, &bounds.DMax},
		{HParamQMax, &bounds.QMax},
	} {
		if _, exists := hparams[p.key]; !exists {
			missing = append(missing, p.key)
			continue
		}
		if err := resolveInt(hparams, p.key, 0, p.dst); err != nil {
			return nil, err
		}
	}
	if len(missing) == 0 {
		hp.Bounds = &bounds
	}
	if hp.AutoParams && hp.Bounds == nil {
		return nil, fmt.Errorf("missing %s, %w", strings.Join(missing, ", "), ErrMissingSearchBounds)
	}
	return hp, nil
}

func resolveInt(hparams map[string]any, key string, minVal int, dst *int) error {
	v, exists := hparams[key]
	if !exists {
		return nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return fmt.Errorf("%s, %s, %w", key, err.Error(), ErrInvalidHParam)
	}
	if i < minVal {
		return fmt.Errorf("%s must be at least %d, got %d, %w", key, minVal, i, ErrInvalidHParam)
	}
	*dst = i
	return nil
}

// Order returns the explicitly configured order
func (hp *SARIMAHParams) Order() sarima.Order {
	return sarima.NewOrder(hp.TrendP, hp.TrendD, hp.TrendQ, hp.SeasonalP, hp.SeasonalD, hp.SeasonalQ, hp.M)
}

// SearchConfig maps the bounds onto an AIC order search. The seasonal components share the
// non-seasonal bounds and p+q+P+Q is capped at P_MAX+Q_MAX.
func (hp *SARIMAHParams) SearchConfig(fitOpt *sarima.FitOptions, logger *slog.Logger) (*autoarima.Config, error) {
	if hp.Bounds == nil {
		return nil, ErrMissingSearchBounds
	}
	cfg := autoarima.NewDefaultConfig()
	cfg.MaxP, cfg.MaxD, cfg.MaxQ = hp.Bounds.PMax, hp.Bounds.DMax, hp.Bounds.QMax
	cfg.MaxSP, cfg.MaxSD, cfg.MaxSQ = hp.Bounds.PMax, hp.Bounds.DMax, hp.Bounds.QMax
	cfg.MaxOrder = hp.Bounds.PMax + hp.Bounds.QMax
	cfg.M = hp.M
	cfg.Seasonal = true
	cfg.Criterion = autoarima.CriterionAIC
	cfg.FitOptions = fitOpt
	cfg.Logger = logger
	return cfg, nil
}
