package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/OriginalDaemon/datalens/client"
)

const (
	chartWidth  = 640
	chartHeight = 360
	maxXTicks   = 8
)

// errNoChartData means there is nothing a chart could show
var errNoChartData = errors.New("no chart data")

// chartKinds are the charts a dataset can be drawn as
var chartKinds = []string{"bar", "line", "pie"}

func chartStyle() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// valueRange spans values and zero, and never collapses to a point
func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi * 1.1}
}

func renderBarChart(w io.Writer, title string, data []client.CategoryValue) error {
	if len(data) == 0 {
		return errNoChartData
	}
	bars := make([]chart.Value, len(data))
	values := make([]float64, len(data))
	for i, d := range data {
		bars[i] = chart.Value{Label: d.Category, Value: d.Value}
		values[i] = d.Value
	}

	graph := chart.BarChart{
		Title:      title,
		Background: chartStyle(),
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth(len(bars)),
		YAxis:      chart.YAxis{Range: valueRange(values)},
		Bars:       bars,
	}
	return graph.Render(chart.PNG, w)
}

func barWidth(n int) int {
	w := (chartWidth - 80) / n / 2
	if w > 60 {
		return 60
	}
	if w < 4 {
		return 4
	}
	return w
}

func renderPieChart(w io.Writer, title string, data []client.CategoryValue) error {
	var slices []chart.Value
	for _, d := range data {
		// a pie can only show positive shares
		if d.Value > 0 {
			slices = append(slices, chart.Value{Label: d.Category, Value: d.Value})
		}
	}
	if len(slices) == 0 {
		return errNoChartData
	}

	graph := chart.PieChart{
		Title:      title,
		Background: chartStyle(),
		Width:      chartHeight,
		Height:     chartHeight,
		Values:     slices,
	}
	return graph.Render(chart.PNG, w)
}

func renderLineChart(w io.Writer, title string, data []client.DateValue) error {
	if len(data) < 2 {
		return errNoChartData
	}

	xs := make([]float64, len(data))
	ys := make([]float64, len(data))
	for i, d := range data {
		xs[i] = float64(i)
		ys[i] = d.Value
	}

	// label at most maxXTicks dates
	step := (len(data) + maxXTicks - 1) / maxXTicks
	var ticks []chart.Tick
	for i := 0; i < len(data); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: data[i].Date})
	}

	graph := chart.Chart{
		Title:      title,
		Background: chartStyle(),
		Width:      chartWidth,
		Height:     chartHeight,
		XAxis:      chart.XAxis{Ticks: ticks},
		YAxis:      chart.YAxis{Range: valueRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// renderChart draws one kind of chart for a dataset's chart data
func renderChart(w io.Writer, kind string, data *client.ChartData) error {
	switch kind {
	case "bar":
		return renderBarChart(w, "Category Distribution", data.BarChart)
	case "pie":
		return renderPieChart(w, "Category Share", data.PieChart)
	case "line":
		return renderLineChart(w, "Value Trend", data.LineChart)
	default:
		return fmt.Errorf("unknown chart kind %q", kind)
	}
}

// chartImage is a rendered chart ready for an <img> tag, or the reason it
// could not be drawn
type chartImage struct {
	Kind  string
	Src   template.URL
	Empty bool
	Err   error
}

func chartDataURI(kind string, data *client.ChartData) chartImage {
	img := chartImage{Kind: kind}
	var buf bytes.Buffer
	if err := renderChart(&buf, kind, data); err != nil {
		if errors.Is(err, errNoChartData) {
			img.Empty = true
		} else {
			img.Err = err
		}
		return img
	}
	img.Src = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
	return img
}
