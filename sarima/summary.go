package sarima

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TablePrint writes a human readable summary of the fit model
func (m *Model) TablePrint(w io.Writer, prefix, indent string) error {
	if !m.Trained() {
		return ErrUntrainedModel
	}
	if _, err := fmt.Fprintf(w, "%sSARIMA%s:\n", prefix, m.Order); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sObservations: %d    Intercept: %.3f    Variance: %.3f\n",
		prefix, indent, m.NObs, m.Intercept, m.Variance); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sLogLik: %.3f    AIC: %.3f    BIC: %.3f\n",
		prefix, indent, m.LogLik, m.AIC, m.BIC); err != nil {
		return err
	}

	if m.Order.NumCoef() == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s%sCoefficients:\n", prefix, indent); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	pre := prefix + strings.Repeat(indent, 2)
	if _, err := fmt.Fprintf(tbl, "%sTerm\tLag\tValue\t\n", pre); err != nil {
		return err
	}
	terms := []struct {
		name string
		lag  int
		coef []float64
	}{
		{"ar", 1, m.Coefficients.AR},
		{"ma", 1, m.Coefficients.MA},
		{"seasonal_ar", m.Order.M, m.Coefficients.SAR},
		{"seasonal_ma", m.Order.M, m.Coefficients.SMA},
	}
	for _, term := range terms {
		for i, c := range term.coef {
			if _, err := fmt.Fprintf(tbl, "%s%s\t%d\t%.3f\t\n", pre, term.name, (i+1)*term.lag, c); err != nil {
				return err
			}
		}
	}
	return tbl.Flush()
}
