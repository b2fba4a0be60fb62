package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Fit on all but the trailing test rows and score the forecast of the test rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := a.loadFrame()
			if err != nil {
				return err
			}
			train, test, err := splitFrame(frame, a.cfg.Data.TestSize)
			if err != nil {
				return err
			}
			m, err := a.newModel()
			if err != nil {
				return err
			}
			if err := m.Fit(train); err != nil {
				return err
			}
			eval, err := m.Evaluate(train, test, a.cfg.Train.EvalDir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "order\t%s\n", m.Order())
			fmt.Fprintf(w, "mae\t%.6f\n", eval.Metrics.MAE)
			fmt.Fprintf(w, "mse\t%.6f\n", eval.Metrics.MSE)
			fmt.Fprintf(w, "rmse\t%.6f\n", eval.Metrics.RMSE)
			fmt.Fprintf(w, "mape\t%.6f\n", eval.Metrics.MAPE)
			fmt.Fprintf(w, "r2\t%.6f\n", eval.Metrics.R2)
			fmt.Fprintf(w, "train_mse\t%.6f\n", eval.Metrics.TrainMSE)
			return w.Flush()
		},
	}
}
