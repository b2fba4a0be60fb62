package sarima

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeOrder = errors.New("order components must be non-negative")
	ErrInvalidSeason = errors.New("seasonal period must be at least 2 when seasonal terms are set")
	ErrInvalidPeriod = errors.New("seasonal period must be at least 1")
)

// Order is the SARIMA(p,d,q)(P,D,Q,s) specification
type Order struct {
	P int `json:"p"` // non-seasonal AR order
	D int `json:"d"` // non-seasonal differencing order
	Q int `json:"q"` // non-seasonal MA order

	SP int `json:"seasonal_p"`
	SD int `json:"seasonal_d"`
	SQ int `json:"seasonal_q"`
	M  int `json:"m"` // observations per season
}

// NewOrder builds an order from the non-seasonal and seasonal components
func NewOrder(p, d, q, sp, sd, sq, m int) Order {
	return Order{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m}
}

// Validate checks the order can be fit
func (o Order) Validate() error {
	for _, v := range []int{o.P, o.D, o.Q, o.SP, o.SD, o.SQ} {
		if v < 0 {
			return fmt.Errorf("%s, %w", o, ErrNegativeOrder)
		}
	}
	if o.M < 1 {
		return fmt.Errorf("%s, %w", o, ErrInvalidPeriod)
	}
	if o.IsSeasonal() && o.M < 2 {
		return fmt.Errorf("%s, %w", o, ErrInvalidSeason)
	}
	return nil
}

// IsSeasonal reports whether any seasonal term is set
func (o Order) IsSeasonal() bool {
	return o.SP > 0 || o.SD > 0 || o.SQ > 0
}

// NumCoef returns the number of ARMA coefficients estimated
func (o Order) NumCoef() int {
	return o.P + o.Q + o.SP + o.SQ
}

// DiffLoss is the number of observations consumed by differencing
func (o Order) DiffLoss() int {
	return o.D + o.SD*o.M
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}
