// Package client provides a Go client for the datalens analytics REST API
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxUploadSize is the largest CSV the API accepts (16 MiB)
	MaxUploadSize = 16 << 20

	// DefaultBaseURL is where a development API listens
	DefaultBaseURL = "http://localhost:5000/api"

	// maxResponseSize bounds how much of a response body is read
	maxResponseSize = 32 << 20
)

// Client is a datalens API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new datalens client. baseURL includes the /api prefix.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListDatasets retrieves all datasets in server order
func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	const op = "list datasets"

	body, status, err := c.do(ctx, op, http.MethodGet, "/datasets", nil, "")
	if err != nil {
		return nil, err
	}

	var raw struct {
		Datasets []json.RawMessage `json:"datasets"`
		Total    int               `json:"total"`
	}
	if err := decodeRequired(body, &raw, "datasets"); err != nil {
		return nil, malformed(op, status, err)
	}

	datasets := make([]Dataset, 0, len(raw.Datasets))
	for i, item := range raw.Datasets {
		d, err := decodeDataset(item)
		if err != nil {
			return nil, malformed(op, status, fmt.Errorf("dataset %d: %w", i, err))
		}
		datasets = append(datasets, *d)
	}

	return datasets, nil
}

// GetDataset retrieves a dataset by ID
func (c *Client) GetDataset(ctx context.Context, id int) (*Dataset, error) {
	const op = "get dataset"

	body, status, err := c.do(ctx, op, http.MethodGet, datasetPath(id, ""), nil, "")
	if err != nil {
		return nil, err
	}

	d, err := decodeDataset(body)
	if err != nil {
		return nil, malformed(op, status, err)
	}
	return d, nil
}

// DeleteDataset deletes a dataset and its records
func (c *Client) DeleteDataset(ctx context.Context, id int) error {
	_, _, err := c.do(ctx, "delete dataset", http.MethodDelete, datasetPath(id, ""), nil, "")
	return err
}

// UploadDataset uploads a CSV file as a new dataset
func (c *Client) UploadDataset(ctx context.Context, file UploadFile, name string) (*Dataset, error) {
	return c.UploadDatasetWithDescription(ctx, file, name, "")
}

// UploadDatasetWithDescription uploads a CSV file with an optional description
func (c *Client) UploadDatasetWithDescription(ctx context.Context, file UploadFile, name, description string) (*Dataset, error) {
	const op = "upload dataset"

	if err := ValidateUpload(file); err != nil {
		return nil, err
	}

	payload, contentType, err := multipartBody(file, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}

	body, status, err := c.do(ctx, op, http.MethodPost, "/upload", payload, contentType)
	if err != nil {
		return nil, err
	}

	d, err := decodeDataset(body)
	if err != nil {
		return nil, malformed(op, status, err)
	}
	return d, nil
}

// GetSummary retrieves summary statistics for a dataset
func (c *Client) GetSummary(ctx context.Context, id int) (*Summary, error) {
	const op = "get summary"

	body, status, err := c.do(ctx, op, http.MethodGet, datasetPath(id, "/summary"), nil, "")
	if err != nil {
		return nil, err
	}

	var summary Summary
	if err := decodeRequired(body, &summary, "total_records", "total_value", "category_count", "avg_value"); err != nil {
		return nil, malformed(op, status, err)
	}
	if summary.TotalRecords < 0 {
		return nil, malformed(op, status, fmt.Errorf("total_records is negative: %d", summary.TotalRecords))
	}
	if summary.CategoryCount < 0 {
		return nil, malformed(op, status, fmt.Errorf("category_count is negative: %d", summary.CategoryCount))
	}
	return &summary, nil
}

// GetChartData retrieves the chart projections for a dataset
func (c *Client) GetChartData(ctx context.Context, id int) (*ChartData, error) {
	const op = "get chart data"

	body, status, err := c.do(ctx, op, http.MethodGet, datasetPath(id, "/chart-data"), nil, "")
	if err != nil {
		return nil, err
	}

	var data ChartData
	if err := decodeRequired(body, &data, "bar_chart", "line_chart", "pie_chart"); err != nil {
		return nil, malformed(op, status, err)
	}
	return &data, nil
}

// do sends a request and returns the body of a 2xx response. Every other
// outcome is mapped onto the error taxonomy.
func (c *Client) do(ctx context.Context, op, method, path string, payload io.Reader, contentType string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, &NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, statusError(op, resp.StatusCode, body)
	}

	return body, resp.StatusCode, nil
}

func statusError(op string, status int, body []byte) error {
	message := errorBody(body)
	switch status {
	case http.StatusNotFound:
		return &NotFoundError{Op: op, Message: message}
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		if message == "" {
			message = http.StatusText(status)
		}
		return &ValidationError{Op: op, Message: message}
	default:
		return &ServerError{Op: op, StatusCode: status, Message: message}
	}
}

func malformed(op string, status int, err error) error {
	return &ServerError{Op: op, StatusCode: status, Message: "malformed response: " + err.Error(), Malformed: true}
}

func datasetPath(id int, suffix string) string {
	return "/datasets/" + strconv.Itoa(id) + suffix
}

// decodeRequired decodes body into out after checking that every required
// key is present and not null
func decodeRequired(body []byte, out interface{}, required ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	for _, key := range required {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("missing field %q", key)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func decodeDataset(body []byte) (*Dataset, error) {
	var d Dataset
	if err := decodeRequired(body, &d, "id", "name", "filename"); err != nil {
		return nil, err
	}
	if d.ID <= 0 {
		return nil, fmt.Errorf("invalid dataset id %d", d.ID)
	}
	return &d, nil
}

func multipartBody(file UploadFile, name, description string) (*bytes.Buffer, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", file.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, io.LimitReader(src, MaxUploadSize+1)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("name", name); err != nil {
		return nil, "", err
	}
	if description != "" {
		if err := w.WriteField("description", description); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
