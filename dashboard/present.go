package dashboard

import (
	"math"
	"strconv"

	"github.com/OriginalDaemon/datalens/client"
	"github.com/dustin/go-humanize"
)

// Missing is shown in place of a metric that has not loaded
const Missing = "---"

// Metric is one card of the metrics grid
type Metric struct {
	Title string
	Value string
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatNumber renders a value with thousands separators and at most two
// decimals
func FormatNumber(v float64) string {
	return humanize.Commaf(math.Round(v*100) / 100)
}

// FormatCurrency renders a monetary value, e.g. $45,230
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-$" + FormatNumber(-v)
	}
	return "$" + FormatNumber(v)
}

// FormatWhole renders a value rounded to an integer
func FormatWhole(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

// Metrics builds the dashboard metrics grid from a summary, which may be nil
// while loading or after a failure
func Metrics(summary *client.Summary, datasets int) []Metric {
	metrics := []Metric{
		{Title: "Total Records", Value: Missing},
		{Title: "Aggregated Value", Value: Missing},
		{Title: "Resource Pool", Value: Missing},
		{Title: "Datasets", Value: FormatCount(datasets)},
	}
	if summary != nil {
		metrics[0].Value = FormatCount(summary.TotalRecords)
		metrics[1].Value = FormatCurrency(summary.TotalValue)
		metrics[2].Value = FormatCount(summary.CategoryCount)
	}
	return metrics
}

// MatrixStats is the classes / average / rows strip under the charts
func MatrixStats(summary *client.Summary) []Metric {
	if summary == nil {
		return []Metric{{"Classes", "0"}, {"Avg Val", "0"}, {"Rows", "0"}}
	}
	return []Metric{
		{Title: "Classes", Value: FormatCount(summary.CategoryCount)},
		{Title: "Avg Val", Value: FormatWhole(summary.AvgValue)},
		{Title: "Rows", Value: FormatCount(summary.TotalRecords)},
	}
}

// Density renders the categories-per-records index, e.g. 6/120
func Density(summary *client.Summary) string {
	if summary == nil {
		return "0/0"
	}
	return strconv.Itoa(summary.CategoryCount) + "/" + strconv.Itoa(summary.TotalRecords)
}

// Participation is total records as a percentage of a 100-record baseline,
// capped at 100
func Participation(summary *client.Summary) int {
	if summary == nil {
		return 0
	}
	return int(math.Min(100, float64(summary.TotalRecords)))
}
