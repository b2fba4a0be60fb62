package forecaster

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const plotDateFormat = "2006-01-02"

// lineValues converts a series to echarts points leaving gaps where values are NaN
func lineValues(y []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) {
			data = append(data, opts.LineData{Value: nil})
			continue
		}
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

func axisDates(t []time.Time) []string {
	labels := make([]string, 0, len(t))
	for _, ts := range t {
		labels = append(labels, ts.Format(plotDateFormat))
	}
	return labels
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. Each
// series in y must have the same length as t.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	line = line.SetXAxis(axisDates(t))
	for i, series := range seriesName {
		line = line.AddSeries(series, lineValues(y[i]))
	}
	return line
}

// LineEvaluation plots the ground truth against the in-sample fit and the out-of-sample forecast
func LineEvaluation(frame *EvalFrame) *charts.Line {
	return LineTSeries(
		"Forecast Evaluation",
		[]string{"Actual", "Model", "Forecast"},
		frame.T,
		[][]float64{frame.GT, frame.Model, frame.Forecast},
	)
}

// LineResidual plots the difference between the ground truth and whichever prediction exists
// for each row
func LineResidual(frame *EvalFrame) *charts.Line {
	residual := make([]float64, frame.Len())
	for i := range residual {
		pred := frame.Model[i]
		if math.IsNaN(pred) {
			pred = frame.Forecast[i]
		}
		residual[i] = frame.GT[i] - pred
	}
	return LineTSeries(
		"Forecast Residual",
		[]string{"Residual"},
		frame.T,
		[][]float64{residual},
	)
}

// RenderEvaluation writes an html page of the evaluation and residual charts
func RenderEvaluation(w io.Writer, frame *EvalFrame) error {
	page := components.NewPage()
	page.AddCharts(
		LineEvaluation(frame),
		LineResidual(frame),
	)
	return page.Render(w)
}

// PlotEvaluation renders the evaluation charts into the html file at path
func PlotEvaluation(path string, frame *EvalFrame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create plot file, %w", err)
	}
	defer file.Close()
	return RenderEvaluation(file, frame)
}
