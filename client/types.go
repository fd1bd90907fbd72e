package client

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dataset is a server-owned collection of uploaded records
type Dataset struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Filename    string   `json:"filename"`
	Description string   `json:"description,omitempty"`
	RowCount    int      `json:"row_count,omitempty"`
	ColumnNames []string `json:"column_names,omitempty"`
	UploadTime  string   `json:"upload_time,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// DatasetList is the body of GET /datasets
type DatasetList struct {
	Datasets []Dataset `json:"datasets"`
	Total    int       `json:"total"`
}

// DateRange bounds the dates seen in a dataset. Either end may be empty.
type DateRange struct {
	Min string `json:"min,omitempty"`
	Max string `json:"max,omitempty"`
}

// Summary holds the scalar aggregates computed for a dataset
type Summary struct {
	DatasetID     int        `json:"dataset_id,omitempty"`
	TotalRecords  int        `json:"total_records"`
	TotalValue    float64    `json:"total_value"`
	CategoryCount int        `json:"category_count"`
	AvgValue      float64    `json:"avg_value"`
	MinValue      float64    `json:"min_value,omitempty"`
	MaxValue      float64    `json:"max_value,omitempty"`
	DateRange     *DateRange `json:"date_range,omitempty"`
}

// CategoryValue is one bar or pie slice
type CategoryValue struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// DateValue is one point of the time series
type DateValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ChartData holds the three chart projections of a dataset
type ChartData struct {
	BarChart  []CategoryValue `json:"bar_chart"`
	LineChart []DateValue     `json:"line_chart"`
	PieChart  []CategoryValue `json:"pie_chart"`
}

// UploadFile is a file selected for upload. It can be opened any number of
// times so a failed upload can be retried without choosing the file again.
type UploadFile struct {
	Filename string
	Size     int64
	open     func() (io.ReadCloser, error)
}

// FileFromPath describes a file on disk
func FileFromPath(path string) (UploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return UploadFile{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return UploadFile{}, fmt.Errorf("%s is a directory", path)
	}
	return UploadFile{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileFromBytes describes an in-memory file
func FileFromBytes(filename string, data []byte) UploadFile {
	return UploadFile{
		Filename: filename,
		Size:     int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the file contents
func (f UploadFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("no content for %s", f.Filename)
	}
	return f.open()
}
