// Package cmd implements the sarima command line for fitting, evaluating and forecasting
// consumption series from csv.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	forecaster "github.com/aouyang1/go-sarima-forecaster"
	"github.com/aouyang1/go-sarima-forecaster/config"
	"github.com/aouyang1/go-sarima-forecaster/sarima"
	"github.com/aouyang1/go-sarima-forecaster/timedataset"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
	profileDir string
}

// app carries what every subcommand needs after the persistent flags are resolved
type app struct {
	flags  rootFlags
	cfg    *config.Config
	logger *slog.Logger
	stop   interface{ Stop() }
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "sarima",
		Short:         "Seasonal ARIMA forecasting",
		Long:          `Fit, evaluate and forecast date indexed consumption series with a seasonal ARIMA model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.stop != nil {
				a.stop.Stop()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.flags.configPath, "config", "", "path to the yaml config")
	rootCmd.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level overriding the config: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.flags.profileDir, "profile", "", "write a cpu profile into this directory")

	rootCmd.AddCommand(
		newFitCmd(a),
		newEvaluateCmd(a),
		newForecastCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if a.flags.profileDir != "" {
		a.stop = profile.Start(profile.CPUProfile, profile.ProfilePath(a.flags.profileDir), profile.Quiet)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q, %w", s, err)
	}
	return level, nil
}

func (a *app) options() (*forecaster.SARIMAOptions, error) {
	codec, err := sarima.CodecByName(a.cfg.Train.Codec)
	if err != nil {
		return nil, err
	}
	opt := forecaster.NewDefaultSARIMAOptions()
	opt.Codec = codec
	opt.Logger = a.logger
	opt.Metrics = forecaster.NewForecastMetrics(a.logger)
	return opt, nil
}

func (a *app) newModel() (*forecaster.SARIMAModel, error) {
	opt, err := a.options()
	if err != nil {
		return nil, err
	}
	return forecaster.NewSARIMAModel(a.cfg.ModelHParams(), a.cfg.Train.LogDir, opt)
}

func (a *app) loadFrame() (*timedataset.Frame, error) {
	if a.cfg.Data.Path == "" {
		return nil, fmt.Errorf("data.path is required, %w", config.ErrInvalidConfig)
	}
	frame, err := timedataset.LoadCSV(a.cfg.Data.Path, a.cfg.CSVOptions())
	if err != nil {
		return nil, fmt.Errorf("unable to load %s, %w", a.cfg.Data.Path, err)
	}
	a.logger.Debug("loaded dataset", "path", a.cfg.Data.Path, "rows", frame.NumRows())
	return frame, nil
}

// splitFrame holds out the trailing testSize rows as Date/Consumption frames
func splitFrame(frame *timedataset.Frame, testSize int) (*timedataset.Frame, *timedataset.Frame, error) {
	td, err := frame.Univariate()
	if err != nil {
		return nil, nil, err
	}
	trainTD, testTD, err := td.Split(testSize)
	if err != nil {
		return nil, nil, err
	}
	train, err := timedataset.NewConsumptionFrame(trainTD.T, trainTD.Y)
	if err != nil {
		return nil, nil, err
	}
	test, err := timedataset.NewConsumptionFrame(testTD.T, testTD.Y)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
