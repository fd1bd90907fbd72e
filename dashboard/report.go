package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/OriginalDaemon/datalens/client"
	"golang.org/x/sync/errgroup"
)

// PlaceholderName titles a report whose dataset is not in the list
const PlaceholderName = "Dataset Report"

// ReportUnavailableMessage is the blocking error shown for a failed report
const ReportUnavailableMessage = "Failed to synchronize report data. Please verify the system connection."

// ErrReportUnavailable wraps the failure of a report's summary or chart data
var ErrReportUnavailable = errors.New("report data unavailable")

// ReportAPI is what the detailed report needs from the API
type ReportAPI interface {
	ListDatasets(ctx context.Context) ([]client.Dataset, error)
	GetSummary(ctx context.Context, id int) (*client.Summary, error)
	GetChartData(ctx context.Context, id int) (*client.ChartData, error)
}

// Report is everything the detailed report page shows
type Report struct {
	DatasetID int
	Name      string
	Dataset   *client.Dataset
	Summary   client.Summary
	ChartData client.ChartData
}

// LoadReport fetches a report from scratch. It relies on no dashboard state,
// so it works for a bookmarked or reloaded report URL.
//
// Summary and chart data are both required: if either fails the report is
// unavailable. The dataset list only supplies the title, so its failure, or
// an ID missing from it, falls back to PlaceholderName. A list failure is
// logged to logger; nil means log.Default().
func LoadReport(ctx context.Context, api ReportAPI, id int, logger *log.Logger) (*Report, error) {
	if logger == nil {
		logger = log.Default()
	}

	var (
		summary  *client.Summary
		data     *client.ChartData
		datasets []client.Dataset
		listErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = api.GetSummary(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		data, err = api.GetChartData(gctx, id)
		return err
	})
	g.Go(func() error {
		datasets, listErr = api.ListDatasets(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportUnavailable, err)
	}

	report := &Report{
		DatasetID: id,
		Name:      PlaceholderName,
		Summary:   *summary,
		ChartData: *data,
	}
	if listErr != nil {
		logger.Printf("ERROR: report %d: failed to fetch datasets: %v", id, listErr)
	} else {
		for i := range datasets {
			if datasets[i].ID == id {
				d := datasets[i]
				report.Dataset = &d
				report.Name = d.Filename
				break
			}
		}
	}
	return report, nil
}
