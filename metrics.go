package forecaster

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// artifact file names written by ForecastMetrics.Evaluate
const (
	ForecastCSVFile  = "forecast.csv"
	MetricsJSONFile  = "metrics.json"
	ForecastHTMLFile = "forecast.html"
)

// Metrics scores the forecast over the test rows and the in-sample fit over the training rows
type Metrics struct {
	Scores
	TrainMSE float64 `json:"train_mean_squared_error"`
}

// Evaluation is the outcome of evaluating a strategy on a train and test split
type Evaluation struct {
	Frame   *EvalFrame `json:"frame"`
	Metrics *Metrics   `json:"metrics"`
}

// ForecastMetrics scores evaluation frames and persists the evaluation artifacts
type ForecastMetrics struct {
	logger *slog.Logger
}

func NewForecastMetrics(logger *slog.Logger) *ForecastMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastMetrics{logger: logger}
}

// Evaluate computes the metrics of the frame. When saveDir is not empty the frame, metrics and
// an html plot are written into it.
func (fm *ForecastMetrics) Evaluate(frame *EvalFrame, saveDir string) (*Evaluation, error) {
	scores, err := NewScores(frame.TestForecast(), frame.TestGT())
	if err != nil {
		return nil, fmt.Errorf("unable to score forecast, %w", err)
	}
	trainPred, trainGT := dropNaN(frame.Model[:frame.TrainLen], frame.GT[:frame.TrainLen])
	metrics := &Metrics{
		Scores:   *scores,
		TrainMSE: MSE(trainPred, trainGT),
	}

	fm.logger.Info("forecast metrics",
		"mae", metrics.MAE,
		"mse", metrics.MSE,
		"rmse", metrics.RMSE,
		"mape", metrics.MAPE,
		"r2", metrics.R2,
		"train_mse", metrics.TrainMSE,
	)

	if saveDir != "" {
		if err := fm.save(frame, metrics, saveDir); err != nil {
			return nil, err
		}
	}
	return &Evaluation{Frame: frame, Metrics: metrics}, nil
}

func (fm *ForecastMetrics) save(frame *EvalFrame, metrics *Metrics, saveDir string) error {
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return fmt.Errorf("unable to create evaluation directory, %w", err)
	}

	var buf bytes.Buffer
	if err := frame.WriteCSV(&buf); err != nil {
		return fmt.Errorf("unable to encode evaluation frame, %w", err)
	}
	if err := os.WriteFile(filepath.Join(saveDir, ForecastCSVFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("unable to write evaluation frame, %w", err)
	}

	out, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode metrics, %w", err)
	}
	if err := os.WriteFile(filepath.Join(saveDir, MetricsJSONFile), out, 0o644); err != nil {
		return fmt.Errorf("unable to write metrics, %w", err)
	}

	if err := PlotEvaluation(filepath.Join(saveDir, ForecastHTMLFile), frame); err != nil {
		return fmt.Errorf("unable to plot evaluation, %w", err)
	}
	fm.logger.Debug("wrote evaluation artifacts", "dir", saveDir)
	return nil
}
