package main

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/OriginalDaemon/datalens/client"
	"github.com/OriginalDaemon/datalens/dashboard"
)

const (
	summarySheet    = "Summary"
	categoriesSheet = "Categories"
	trendSheet      = "Trend"
	sharesSheet     = "Shares"
)

// writeReportWorkbook writes a detailed report as an .xlsx workbook: the
// summary on the first sheet, one sheet per chart series
func writeReportWorkbook(w io.Writer, report *dashboard.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	s := report.Summary
	rows := [][]interface{}{
		{"Dataset", report.Name},
		{"Dataset ID", report.DatasetID},
		{"Total Records", s.TotalRecords},
		{"Aggregated Value", s.TotalValue},
		{"Categories", s.CategoryCount},
		{"Average Value", s.AvgValue},
		{"Min Value", s.MinValue},
		{"Max Value", s.MaxValue},
	}
	if s.DateRange != nil {
		rows = append(rows,
			[]interface{}{"First Date", s.DateRange.Min},
			[]interface{}{"Last Date", s.DateRange.Max},
		)
	}
	if report.Dataset != nil && report.Dataset.Description != "" {
		rows = append(rows, []interface{}{"Description", report.Dataset.Description})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 24); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}

	if err := writeCategorySheet(f, categoriesSheet, "Value", report.ChartData.BarChart); err != nil {
		return err
	}
	if len(report.ChartData.BarChart) > 0 {
		if err := addColumnChart(f, len(report.ChartData.BarChart)); err != nil {
			return err
		}
	}
	if err := writeCategorySheet(f, sharesSheet, "Share", report.ChartData.PieChart); err != nil {
		return err
	}

	trend := [][]interface{}{{"Date", "Value"}}
	for _, p := range report.ChartData.LineChart {
		trend = append(trend, []interface{}{p.Date, p.Value})
	}
	if _, err := f.NewSheet(trendSheet); err != nil {
		return fmt.Errorf("failed to add %s sheet: %w", trendSheet, err)
	}
	if err := writeRows(f, trendSheet, trend); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeCategorySheet(f *excelize.File, sheet, valueHeader string, data []client.CategoryValue) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add %s sheet: %w", sheet, err)
	}
	rows := [][]interface{}{{"Category", valueHeader}}
	for _, d := range data {
		rows = append(rows, []interface{}{d.Category, d.Value})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// addColumnChart places a native column chart next to the category table
func addColumnChart(f *excelize.File, n int) error {
	last := n + 1
	return f.AddChart(categoriesSheet, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", categoriesSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", categoriesSheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", categoriesSheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Category Distribution"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}
