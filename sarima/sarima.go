package sarima

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/aouyang1/go-sarima-forecaster/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	ErrUntrainedModel   = errors.New("model has not been fit yet")
	ErrInvalidSteps     = errors.New("steps must be at least 1")
	ErrInvalidRange     = errors.New("invalid prediction range")
	ErrNonFiniteFit     = errors.New("fit produced non-finite coefficients")
)

const (
	DefaultMaxIterations = 1000

	// coefficient bound when stationarity or invertibility is enforced
	maxEnforcedCoef = 0.99

	// floor on the residual variance so exact fits keep a finite likelihood
	minVariance = 1e-12
)

// FitOptions configures estimation
type FitOptions struct {
	// EnforceStationarity bounds every AR coefficient to (-1, 1)
	EnforceStationarity bool `json:"enforce_stationarity"`
	// EnforceInvertibility bounds every MA coefficient to (-1, 1)
	EnforceInvertibility bool `json:"enforce_invertibility"`
	MaxIterations        int  `json:"max_iterations"`
}

// NewDefaultFitOptions returns options with the constraints relaxed so that real world
// series violating strict theoretical assumptions can still be fit.
func NewDefaultFitOptions() *FitOptions {
	return &FitOptions{
		MaxIterations: DefaultMaxIterations,
	}
}

// Coefficients holds the estimated ARMA weights
type Coefficients struct {
	AR  []float64 `json:"ar"`
	MA  []float64 `json:"ma"`
	SAR []float64 `json:"seasonal_ar"`
	SMA []float64 `json:"seasonal_ma"`
}

// Model is a fit SARIMA model. It is serializeable and can forecast immediately after
// being decoded.
type Model struct {
	Order        Order        `json:"order"`
	Options      FitOptions   `json:"options"`
	Coefficients Coefficients `json:"coefficients"`
	Intercept    float64      `json:"intercept"`

	Variance float64 `json:"variance"`
	LogLik   float64 `json:"log_likelihood"`
	AIC      float64 `json:"aic"`
	BIC      float64 `json:"bic"`
	NObs     int     `json:"n_obs"`

	// History is the undifferenced training series and Residuals the one step errors on
	// the differenced scale.
	History   []float64 `json:"history"`
	Residuals []float64 `json:"residuals"`
}

// New creates an unfit model for the order
func New(order Order) *Model {
	return &Model{Order: order}
}

// Fit estimates the model from the training series
func (m *Model) Fit(y []float64, opt *FitOptions) error {
	if opt == nil {
		opt = NewDefaultFitOptions()
	}
	if err := m.Order.Validate(); err != nil {
		return err
	}
	if slices.ContainsFunc(y, math.IsNaN) {
		return fmt.Errorf("training series contains NaN, %w", ErrInsufficientData)
	}

	w := stats.Difference(y, m.Order.D, m.Order.SD, m.Order.M)
	arLags, maLags := m.Order.P+m.Order.SP*m.Order.M, m.Order.Q+m.Order.SQ*m.Order.M
	if len(w)-arLags <= m.Order.NumCoef()+1 {
		return fmt.Errorf(
			"%s needs more than %d differenced points, got %d, %w",
			m.Order, arLags+m.Order.NumCoef()+1, len(w), ErrInsufficientData,
		)
	}

	var intercept float64
	if m.Order.D+m.Order.SD < 2 {
		intercept = stat.Mean(w, nil)
	}
	x := make([]float64, len(w))
	copy(x, w)
	floats.AddConst(-intercept, x)

	est := &estimator{
		order: m.Order,
		opt:   *opt,
		x:     x,
		start: arLags,
		arBuf: make([]float64, arLags+1),
		maBuf: make([]float64, maLags+1),
	}

	params, err := est.minimize()
	if err != nil {
		return err
	}

	coef := est.coefficients(params)
	residuals, sse := est.residuals(coef)
	nEff := float64(len(x) - est.start)

	m.Options = *opt
	m.Coefficients = coef
	m.Intercept = intercept
	m.Variance = math.Max(sse/nEff, minVariance)
	k := float64(m.Order.NumCoef() + 1)
	if intercept != 0 {
		k++
	}
	m.LogLik = -nEff / 2 * (math.Log(2*math.Pi*m.Variance) + 1)
	m.AIC = -2*m.LogLik + 2*k
	m.BIC = -2*m.LogLik + k*math.Log(nEff)
	m.NObs = len(y)
	m.History = slices.Clone(y)
	m.Residuals = residuals
	return nil
}

// Trained reports whether the model holds fit state
func (m *Model) Trained() bool {
	return m != nil && len(m.History) > 0
}

// FittedValues returns the one step ahead in-sample predictions aligned to the training
// series. Observations consumed by differencing have no prediction and are NaN.
func (m *Model) FittedValues() []float64 {
	if !m.Trained() {
		return nil
	}
	loss := m.Order.DiffLoss()
	fitted := make([]float64, len(m.History))
	for t := range fitted {
		if t < loss {
			fitted[t] = math.NaN()
			continue
		}
		fitted[t] = m.History[t] - m.Residuals[t-loss]
	}
	return fitted
}

// Predict returns predictions for the inclusive index range [start, end] where index 0 is
// the first training observation. Indices inside the training range return fitted values
// and indices past it return forecasts.
func (m *Model) Predict(start, end int) ([]float64, error) {
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("start %d, end %d, %w", start, end, ErrInvalidRange)
	}

	n := len(m.History)
	var future []float64
	if end >= n {
		var err error
		future, err = m.Forecast(end - n + 1)
		if err != nil {
			return nil, err
		}
	}
	fitted := m.FittedValues()

	out := make([]float64, 0, end-start+1)
	for i := start; i <= end; i++ {
		if i < n {
			out = append(out, fitted[i])
			continue
		}
		out = append(out, future[i-n])
	}
	return out, nil
}

// Forecast returns the next steps values after the end of the training series
func (m *Model) Forecast(steps int) ([]float64, error) {
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}
	if steps < 1 {
		return nil, ErrInvalidSteps
	}

	w := stats.Difference(m.History, m.Order.D, m.Order.SD, m.Order.M)
	n := len(w)
	arPoly := expandPoly(m.Coefficients.AR, m.Coefficients.SAR, m.Order.M, -1)
	maPoly := expandPoly(m.Coefficients.MA, m.Coefficients.SMA, m.Order.M, 1)

	x := make([]float64, n+steps)
	for i, v := range w {
		x[i] = v - m.Intercept
	}
	e := make([]float64, n+steps)
	copy(e, m.Residuals)

	for t := n; t < n+steps; t++ {
		x[t] = armaPredict(x, e, arPoly, maPoly, t)
	}

	diffed := x[n:]
	floats.AddConst(m.Intercept, diffed)
	return stats.Integrate(diffed, m.History, m.Order.D, m.Order.SD, m.Order.M), nil
}

// estimator holds the state for a single conditional sum of squares minimisation
type estimator struct {
	order Order
	opt   FitOptions
	x     []float64
	start int

	arBuf []float64
	maBuf []float64
}

func (e *estimator) minimize() ([]float64, error) {
	init := e.initialParams()
	if len(init) == 0 {
		return init, nil
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			_, sse := e.residuals(e.coefficients(params))
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return math.MaxFloat64
			}
			return sse
		},
	}
	settings := &optimize.Settings{
		MajorIterations: e.opt.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}
	result, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("unable to minimize conditional sum of squares, %w", err)
	}
	if slices.ContainsFunc(result.X, func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }) {
		return nil, ErrNonFiniteFit
	}
	return result.X, nil
}

// initialParams seeds AR terms from the autocorrelation and MA terms at zero. When a
// constraint is enforced the parameters live on an unbounded scale.
func (e *estimator) initialParams() []float64 {
	o := e.order
	params := make([]float64, o.NumCoef())
	acf := stats.ACF(e.x, max(o.P, o.SP*o.M))
	if acf != nil {
		for i := 0; i < o.P && i+1 < len(acf); i++ {
			params[i] = acf[i+1] * 0.5
		}
		for i := 0; i < o.SP && (i+1)*o.M < len(acf); i++ {
			params[o.P+o.Q+i] = acf[(i+1)*o.M] * 0.5
		}
	}
	if e.opt.EnforceStationarity {
		for i := 0; i < o.P; i++ {
			params[i] = math.Atanh(params[i] / maxEnforcedCoef)
		}
		for i := 0; i < o.SP; i++ {
			params[o.P+o.Q+i] = math.Atanh(params[o.P+o.Q+i] / maxEnforcedCoef)
		}
	}
	return params
}

// coefficients maps the optimiser parameter vector laid out as [AR, MA, SAR, SMA] to
// model coefficients, squashing constrained terms into (-0.99, 0.99).
func (e *estimator) coefficients(params []float64) Coefficients {
	o := e.order
	ar := slices.Clone(params[:o.P])
	ma := slices.Clone(params[o.P : o.P+o.Q])
	sar := slices.Clone(params[o.P+o.Q : o.P+o.Q+o.SP])
	sma := slices.Clone(params[o.P+o.Q+o.SP:])

	if e.opt.EnforceStationarity {
		squash(ar)
		squash(sar)
	}
	if e.opt.EnforceInvertibility {
		squash(ma)
		squash(sma)
	}
	return Coefficients{AR: ar, MA: ma, SAR: sar, SMA: sma}
}

// residuals runs the ARMA recursion over the demeaned differenced series returning the one
// step errors and their sum of squares past the conditioning window.
func (e *estimator) residuals(c Coefficients) ([]float64, float64) {
	arPoly := expandPolyInto(e.arBuf, c.AR, c.SAR, e.order.M, -1)
	maPoly := expandPolyInto(e.maBuf, c.MA, c.SMA, e.order.M, 1)

	res := make([]float64, len(e.x))
	var sse float64
	for t := range e.x {
		res[t] = e.x[t] - armaPredict(e.x, res, arPoly, maPoly, t)
		if t >= e.start {
			sse += res[t] * res[t]
		}
	}
	return res, sse
}

// armaPredict returns the expected value at t given past values and errors. Lags reaching
// before the start of the series are skipped.
func armaPredict(x, e, arPoly, maPoly []float64, t int) float64 {
	var pred float64
	for k := 1; k < len(arPoly) && t-k >= 0; k++ {
		pred += arPoly[k] * x[t-k]
	}
	for k := 1; k < len(maPoly) && t-k >= 0; k++ {
		pred += maPoly[k] * e[t-k]
	}
	return pred
}

func expandPoly(nonSeasonal, seasonal []float64, m, sign int) []float64 {
	buf := make([]float64, len(nonSeasonal)+len(seasonal)*m+1)
	return expandPolyInto(buf, nonSeasonal, seasonal, m, sign)
}

// expandPolyInto multiplies (1 + sign*sum a_i B^i)(1 + sign*sum A_j B^js) and returns the
// predictor weights for lags 1.. at their lag index. For AR (sign -1) the weights are the
// negated polynomial coefficients so both AR and MA weights are added in the recursion.
func expandPolyInto(buf, nonSeasonal, seasonal []float64, m, sign int) []float64 {
	clear(buf)
	s := float64(sign)
	for i, a := range nonSeasonal {
		buf[i+1] += a
	}
	for j, b := range seasonal {
		lag := (j + 1) * m
		buf[lag] += b
		for i, a := range nonSeasonal {
			// cross term of the product, (s*a)(s*b) = a*b, expressed as a predictor weight
			buf[lag+i+1] += s * a * b
		}
	}
	return buf
}

func squash(v []float64) {
	for i := range v {
		v[i] = maxEnforcedCoef * math.Tanh(v[i])
	}
}
