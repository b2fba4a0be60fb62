package cmd

import (
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-sarima-forecaster"
	"github.com/aouyang1/go-sarima-forecaster/timedataset"
	"github.com/spf13/cobra"
)

func newForecastCmd(a *app) *cobra.Command {
	var days int
	var modelPath string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the days following the dataset",
		Long: `Forecast the days following the dataset. A model saved by fit is reused with --model,
otherwise a model is fit on the full dataset first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var frame *timedataset.Frame
			if a.cfg.Data.Path != "" || modelPath == "" {
				var err error
				if frame, err = a.loadFrame(); err != nil {
					return err
				}
			}

			var m *forecaster.SARIMAModel
			var err error
			if modelPath != "" {
				opt, optErr := a.options()
				if optErr != nil {
					return optErr
				}
				opt.Codec = nil
				m, err = forecaster.LoadSARIMAModel(modelPath, a.cfg.ModelHParams(), a.cfg.Train.LogDir, opt)
			} else {
				m, err = a.newModel()
				if err == nil {
					err = m.Fit(frame)
				}
			}
			if err != nil {
				return err
			}

			forecast, err := m.Forecast(days, nil)
			if err != nil {
				return err
			}

			var times []time.Time
			if frame != nil {
				if times, err = m.ForecastTimes(days, frame); err != nil {
					a.logger.Warn("unable to infer forecast dates", "error", err.Error())
				}
			}
			out := cmd.OutOrStdout()
			for i, v := range forecast {
				if i < len(times) {
					fmt.Fprintf(out, "%s,%g\n", times[i].Format(a.cfg.Data.DateFormat), v)
					continue
				}
				fmt.Fprintf(out, "%d,%g\n", i+1, v)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "number of values to forecast")
	cmd.Flags().StringVar(&modelPath, "model", "", "saved model to forecast with instead of fitting")
	return cmd
}
