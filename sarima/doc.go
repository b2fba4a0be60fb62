// Package sarima fits seasonal ARIMA models by conditional sum of squares.
//
// A SARIMA(p,d,q)(P,D,Q,s) model differences the series d times and seasonally D times
// with period s, then models the differenced series as a multiplicative ARMA process
//
//	phi(B) Phi(B^s) w_t = theta(B) Theta(B^s) e_t
//
// The expanded lag polynomials are estimated with gonum's Nelder-Mead minimiser. Forecasts
// are produced recursively on the differenced scale and integrated back against the
// training history.
package sarima
