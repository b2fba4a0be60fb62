// Package autoarima selects SARIMA orders by minimising an information criterion over a
// bounded search space.
package autoarima

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aouyang1/go-sarima-forecaster/sarima"
	"github.com/aouyang1/go-sarima-forecaster/stats"
)

const (
	CriterionAIC = "aic"
	CriterionBIC = "bic"

	DefaultMaxModels = 100
)

var (
	ErrNoCandidate      = errors.New("no candidate order could be fit")
	ErrInvalidBounds    = errors.New("search bounds must be non-negative")
	ErrUnknownCriterion = errors.New("unknown information criterion")
)

// Config bounds the order search
type Config struct {
	MaxP  int `json:"max_p"`
	MaxD  int `json:"max_d"`
	MaxQ  int `json:"max_q"`
	MaxSP int `json:"max_seasonal_p"`
	MaxSD int `json:"max_seasonal_d"`
	MaxSQ int `json:"max_seasonal_q"`

	// MaxOrder limits p+q+P+Q. Zero disables the limit.
	MaxOrder int `json:"max_order"`
	M        int `json:"m"`

	Seasonal  bool   `json:"seasonal"`
	Stepwise  bool   `json:"stepwise"`
	Criterion string `json:"information_criterion"`
	MaxModels int    `json:"max_models"`

	FitOptions *sarima.FitOptions `json:"-"`
	Logger     *slog.Logger       `json:"-"`
}

// NewDefaultConfig returns a stepwise seasonal AIC search. The order bounds are left at
// zero and must be set by the caller.
func NewDefaultConfig() *Config {
	return &Config{
		M:         1,
		Seasonal:  true,
		Stepwise:  true,
		Criterion: CriterionAIC,
		MaxModels: DefaultMaxModels,
	}
}

// Validate checks the bounds and criterion
func (c *Config) Validate() error {
	for _, v := range []int{c.MaxP, c.MaxD, c.MaxQ, c.MaxSP, c.MaxSD, c.MaxSQ, c.MaxOrder} {
		if v < 0 {
			return ErrInvalidBounds
		}
	}
	switch c.Criterion {
	case "", CriterionAIC, CriterionBIC:
	default:
		return fmt.Errorf("%s, %w", c.Criterion, ErrUnknownCriterion)
	}
	return nil
}

func (c *Config) seasonal() bool {
	return c.Seasonal && c.M >= 2
}

// Result is the selected order and the model fit with it
type Result struct {
	Order     sarima.Order
	Model     *sarima.Model
	Criterion float64

	// Evaluated counts successful candidate fits and Skipped the candidates whose fit failed
	Evaluated int
	Skipped   int
}

// Search fits candidate orders within the configured bounds and returns the one with the
// lowest information criterion. Candidates that fail to fit are skipped.
func Search(y []float64, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := newSearcher(cfg, func(order sarima.Order) (*sarima.Model, error) {
		m := sarima.New(order)
		if err := m.Fit(y, cfg.FitOptions); err != nil {
			return nil, err
		}
		return m, nil
	})
	return s.run(y)
}

type candidate struct {
	p, q, sp, sq int
}

type searcher struct {
	cfg    *Config
	fit    func(sarima.Order) (*sarima.Model, error)
	logger *slog.Logger

	d, sd int
	m     int

	seen map[candidate]struct{}
	best *Result

	evaluated, skipped int
}

func newSearcher(cfg *Config, fit func(sarima.Order) (*sarima.Model, error)) *searcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &searcher{
		cfg:    cfg,
		fit:    fit,
		logger: logger,
		seen:   make(map[candidate]struct{}),
	}
}

func (s *searcher) run(y []float64) (*Result, error) {
	s.m = 1
	if s.cfg.seasonal() {
		s.m = s.cfg.M
		s.sd = stats.NSDiffs(y, s.m, s.cfg.MaxSD)
	}
	s.d = stats.NDiffs(stats.Difference(y, 0, s.sd, s.m), s.cfg.MaxD)

	if s.cfg.Stepwise {
		s.stepwise()
	} else {
		s.grid()
	}

	if s.best == nil {
		return nil, fmt.Errorf("%d candidates skipped, %w", s.skipped, ErrNoCandidate)
	}
	s.best.Evaluated = s.evaluated
	s.best.Skipped = s.skipped
	s.logger.Debug("order search complete",
		"order", s.best.Order.String(),
		"criterion", s.best.Criterion,
		"evaluated", s.evaluated,
		"skipped", s.skipped,
	)
	return s.best, nil
}

func (s *searcher) inBounds(c candidate) bool {
	maxSP, maxSQ := s.cfg.MaxSP, s.cfg.MaxSQ
	if !s.cfg.seasonal() {
		maxSP, maxSQ = 0, 0
	}
	if c.p < 0 || c.q < 0 || c.sp < 0 || c.sq < 0 {
		return false
	}
	if c.p > s.cfg.MaxP || c.q > s.cfg.MaxQ || c.sp > maxSP || c.sq > maxSQ {
		return false
	}
	if s.cfg.MaxOrder > 0 && c.p+c.q+c.sp+c.sq > s.cfg.MaxOrder {
		return false
	}
	return true
}

// try fits the candidate once and reports whether it became the best
func (s *searcher) try(c candidate) bool {
	if !s.inBounds(c) {
		return false
	}
	if _, exists := s.seen[c]; exists {
		return false
	}
	maxModels := s.cfg.MaxModels
	if maxModels <= 0 {
		maxModels = DefaultMaxModels
	}
	if len(s.seen) >= maxModels {
		return false
	}
	s.seen[c] = struct{}{}

	order := sarima.NewOrder(c.p, s.d, c.q, c.sp, s.sd, c.sq, s.m)
	model, err := s.fit(order)
	if err != nil {
		s.skipped++
		s.logger.Debug("skipping candidate order", "order", order.String(), "error", err.Error())
		return false
	}
	score := model.AIC
	if s.cfg.Criterion == CriterionBIC {
		score = model.BIC
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		s.skipped++
		s.logger.Debug("skipping candidate order with non-finite criterion", "order", order.String())
		return false
	}
	s.evaluated++

	if s.best == nil || score < s.best.Criterion {
		s.best = &Result{
			Order:     order,
			Model:     model,
			Criterion: score,
		}
		return true
	}
	return false
}

func (s *searcher) grid() {
	maxSP, maxSQ := s.cfg.MaxSP, s.cfg.MaxSQ
	if !s.cfg.seasonal() {
		maxSP, maxSQ = 0, 0
	}
	for p := 0; p <= s.cfg.MaxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					s.try(candidate{p, q, sp, sq})
				}
			}
		}
	}
}

// stepwise starts from a handful of simple orders and walks to neighbouring orders while
// the criterion keeps improving.
func (s *searcher) stepwise() {
	starts := []candidate{
		{2, 2, 1, 1},
		{0, 0, 0, 0},
		{1, 0, 1, 0},
		{0, 1, 0, 1},
	}
	for _, c := range starts {
		s.try(s.clip(c))
	}

	for improved := s.best != nil; improved; {
		improved = false
		b := s.candidateOf(s.best.Order)
		neighbours := []candidate{
			{b.p + 1, b.q, b.sp, b.sq},
			{b.p - 1, b.q, b.sp, b.sq},
			{b.p, b.q + 1, b.sp, b.sq},
			{b.p, b.q - 1, b.sp, b.sq},
			{b.p + 1, b.q + 1, b.sp, b.sq},
			{b.p - 1, b.q - 1, b.sp, b.sq},
			{b.p, b.q, b.sp + 1, b.sq},
			{b.p, b.q, b.sp - 1, b.sq},
			{b.p, b.q, b.sp, b.sq + 1},
			{b.p, b.q, b.sp, b.sq - 1},
			{b.p, b.q, b.sp + 1, b.sq + 1},
			{b.p, b.q, b.sp - 1, b.sq - 1},
		}
		for _, c := range neighbours {
			if s.try(c) {
				improved = true
				break
			}
		}
	}
}

// clip bounds a starting order into the search space
func (s *searcher) clip(c candidate) candidate {
	maxSP, maxSQ := s.cfg.MaxSP, s.cfg.MaxSQ
	if !s.cfg.seasonal() {
		maxSP, maxSQ = 0, 0
	}
	return candidate{
		p:  min(c.p, s.cfg.MaxP),
		q:  min(c.q, s.cfg.MaxQ),
		sp: min(c.sp, maxSP),
		sq: min(c.sq, maxSQ),
	}
}

func (s *searcher) candidateOf(o sarima.Order) candidate {
	return candidate{p: o.P, q: o.Q, sp: o.SP, sq: o.SQ}
}
