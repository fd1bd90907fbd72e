package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OriginalDaemon/datalens/client"
	"github.com/OriginalDaemon/datalens/dashboard"
)

// renderWait bounds how long a page waits for outstanding requests before
// rendering loading placeholders that poll for the rest
const renderWait = 2 * time.Second

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PageData is passed to every page template
type PageData struct {
	Title        string
	APIURL       string
	Dashboard    *DashboardData
	Report       *ReportData
	DatasetID    int
	ErrorMessage string
}

// DashboardData is the dashboard view plus everything derived from it
type DashboardData struct {
	View          dashboard.View
	Metrics       []dashboard.Metric
	Matrix        []dashboard.Metric
	Density       string
	Participation int
	ChartType     string
	Distribution  chartImage
	Trend         chartImage
	ConfirmDelete *client.Dataset
}

// PollRegistry reports whether the dataset list is still loading
func (d *DashboardData) PollRegistry() bool {
	return !d.View.Loaded || d.View.Refreshing
}

// PollAnalytics reports whether the analytics panel is still loading
func (d *DashboardData) PollAnalytics() bool {
	return d.View.Phase == dashboard.Loading || d.View.Refreshing
}

// ReportData is a loaded detailed report
type ReportData struct {
	Report        *dashboard.Report
	Metrics       []dashboard.Metric
	Matrix        []dashboard.Metric
	Density       string
	Participation int
	Charts        []chartImage
}

type server struct {
	config   *Config
	api      dashboard.API
	sessions *sessions
}

func newServer(ctx context.Context, config *Config, api dashboard.API) *server {
	return &server{
		config:   config,
		api:      api,
		sessions: newSessions(ctx, api, config.SessionIdle()),
	}
}

var funcMap = template.FuncMap{
	"count":    dashboard.FormatCount,
	"number":   dashboard.FormatNumber,
	"currency": dashboard.FormatCurrency,
	"whole":    dashboard.FormatWhole,
	"add":      func(a, b int) int { return a + b },
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(content, "templates/*.html")
}

func (s *server) routes() (*gin.Engine, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	static, err := fs.Sub(content, "static")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Writer()), gin.Recovery())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.handleDashboard)
	r.GET("/report/:datasetId", s.handleReport)
	r.GET("/report/:datasetId/export.xlsx", s.handleExport)
	r.GET("/charts/:datasetId/:kind", s.handleChart)

	// HTMX panels and dashboard actions
	ui := r.Group("/ui")
	ui.GET("/panels/registry", s.handlePanel("registry-panel"))
	ui.GET("/panels/analytics", s.handlePanel("analytics-panel"))
	ui.GET("/panels/upload", s.handlePanel("upload-panel"))
	ui.POST("/select", s.handleSelect)
	ui.POST("/reload", s.handleReload)
	ui.POST("/delete", s.handleDelete)
	ui.POST("/upload/open", s.handleUploadDialog(dashboard.OpenUpload{}))
	ui.POST("/upload/close", s.handleUploadDialog(dashboard.CloseUpload{}))
	ui.POST("/upload", s.handleUpload)
	ui.POST("/upload/retry", s.handleUploadRetry)

	r.NoRoute(s.handleNotFound)
	return r, nil
}

// chartType is the distribution chart the user picked, bar unless pie
func chartType(c *gin.Context) string {
	if c.Query("chart") == "pie" || c.PostForm("chart") == "pie" {
		return "pie"
	}
	return "bar"
}

func backToDashboard(c *gin.Context) {
	target := "/"
	if chartType(c) == "pie" {
		target = "/?chart=pie"
	}
	c.Redirect(http.StatusSeeOther, target)
}

// settledView waits briefly for outstanding requests so a page usually
// renders complete; whatever is still pending polls afterwards
func settledView(c *gin.Context, store *dashboard.Store) dashboard.View {
	ctx, cancel := context.WithTimeout(c.Request.Context(), renderWait)
	defer cancel()
	v, _ := store.WaitFor(ctx, dashboard.View.Settled)
	return v
}

func (s *server) dashboardData(c *gin.Context, v dashboard.View) *DashboardData {
	summary := v.Analytics.Summary
	d := &DashboardData{
		View:          v,
		Metrics:       dashboard.Metrics(summary, len(v.Datasets)),
		Matrix:        dashboard.MatrixStats(summary),
		Density:       dashboard.Density(summary),
		Participation: dashboard.Participation(summary),
		ChartType:     chartType(c),
	}
	if data := v.Analytics.ChartData; data != nil {
		d.Distribution = chartDataURI(d.ChartType, data)
		d.Trend = chartDataURI("line", data)
	}
	if id, err := strconv.Atoi(c.Query("confirm")); err == nil {
		for i := range v.Datasets {
			if v.Datasets[i].ID == id {
				ds := v.Datasets[i]
				d.ConfirmDelete = &ds
			}
		}
	}
	return d
}

func (s *server) handleDashboard(c *gin.Context) {
	store := s.sessions.get(c)
	v := settledView(c, store)

	c.HTML(http.StatusOK, "dashboard.html", PageData{
		Title:     "Dashboard",
		APIURL:    s.config.APIURL,
		Dashboard: s.dashboardData(c, v),
	})
}

func (s *server) handlePanel(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := s.sessions.get(c)
		c.HTML(http.StatusOK, name, s.dashboardData(c, store.View()))
	}
}

func formID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.PostForm("id"))
	return id, err == nil && id > 0
}

func (s *server) handleSelect(c *gin.Context) {
	if id, ok := formID(c); ok {
		s.sessions.get(c).Select(id)
	}
	backToDashboard(c)
}

func (s *server) handleReload(c *gin.Context) {
	s.sessions.get(c).Reload()
	backToDashboard(c)
}

func (s *server) handleDelete(c *gin.Context) {
	id, ok := formID(c)
	if !ok || c.PostForm("confirm") != "yes" {
		backToDashboard(c)
		return
	}
	// the registry keeps the error for the page to show
	if err := s.sessions.get(c).Remove(c.Request.Context(), id); err != nil {
		log.Printf("ERROR: delete of dataset %d failed: %v", id, err)
	}
	backToDashboard(c)
}

func (s *server) handleUploadDialog(msg dashboard.Msg) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.sessions.get(c).Dispatch(msg)
		backToDashboard(c)
	}
}

// uploadedFile reads the multipart file. Oversized files are read one byte
// past the limit so validation rejects them.
func uploadedFile(c *gin.Context) (client.UploadFile, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return client.UploadFile{}, nil
		}
		return client.UploadFile{}, err
	}
	f, err := header.Open()
	if err != nil {
		return client.UploadFile{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, client.MaxUploadSize+1))
	if err != nil {
		return client.UploadFile{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return client.FileFromBytes(header.Filename, data), nil
}

func (s *server) handleUpload(c *gin.Context) {
	store := s.sessions.get(c)

	file, err := uploadedFile(c)
	if err != nil {
		log.Printf("ERROR: %v", err)
		c.String(http.StatusBadRequest, "Failed to read file")
		return
	}

	store.Dispatch(dashboard.OpenUpload{})
	store.Dispatch(dashboard.ChooseFile{File: file})
	if u := store.View().Upload; u.Err != "" || u.File == nil {
		// the dialog shows why the file was refused
		backToDashboard(c)
		return
	}

	s.submit(c, store)
}

func (s *server) handleUploadRetry(c *gin.Context) {
	s.submit(c, s.sessions.get(c))
}

func (s *server) submit(c *gin.Context, store *dashboard.Store) {
	res := store.Submit(c.Request.Context(), strings.TrimSpace(c.PostForm("description")))
	if res.Err != nil {
		log.Printf("ERROR: upload failed: %v", res.Err)
	} else if res.Dataset != nil {
		log.Printf("Uploaded dataset %d (%s)", res.Dataset.ID, res.Dataset.Filename)
	}
	backToDashboard(c)
}

// datasetID parses the :datasetId parameter; anything but a positive integer
// is not a report
func datasetID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("datasetId"))
	return id, err == nil && id > 0
}

func (s *server) handleReport(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		s.handleNotFound(c)
		return
	}

	report, err := dashboard.LoadReport(c.Request.Context(), s.api, id, nil)
	if err != nil {
		log.Printf("ERROR: report %d: %v", id, err)
		c.HTML(http.StatusBadGateway, "report_error.html", PageData{
			Title:        dashboard.PlaceholderName,
			APIURL:       s.config.APIURL,
			DatasetID:    id,
			ErrorMessage: dashboard.ReportUnavailableMessage,
		})
		return
	}

	data := &ReportData{
		Report:        report,
		Metrics:       dashboard.Metrics(&report.Summary, 0)[:3],
		Matrix:        dashboard.MatrixStats(&report.Summary),
		Density:       dashboard.Density(&report.Summary),
		Participation: dashboard.Participation(&report.Summary),
	}
	for _, kind := range chartKinds {
		data.Charts = append(data.Charts, chartDataURI(kind, &report.ChartData))
	}

	c.HTML(http.StatusOK, "report.html", PageData{
		Title:     report.Name,
		APIURL:    s.config.APIURL,
		Report:    data,
		DatasetID: id,
	})
}

func (s *server) handleExport(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		s.handleNotFound(c)
		return
	}

	report, err := dashboard.LoadReport(c.Request.Context(), s.api, id, nil)
	if err != nil {
		log.Printf("ERROR: export of report %d: %v", id, err)
		c.String(http.StatusBadGateway, dashboard.ReportUnavailableMessage)
		return
	}

	var buf bytes.Buffer
	if err := writeReportWorkbook(&buf, report); err != nil {
		log.Printf("ERROR: export of report %d: %v", id, err)
		c.String(http.StatusInternalServerError, "Failed to build workbook")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, client.DatasetName(report.Name)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *server) handleChart(c *gin.Context) {
	id, ok := datasetID(c)
	kind := strings.TrimSuffix(c.Param("kind"), ".png")
	if !ok || !validChartKind(kind) {
		s.handleNotFound(c)
		return
	}

	data, err := s.api.GetChartData(c.Request.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			s.handleNotFound(c)
			return
		}
		log.Printf("ERROR: chart data for dataset %d: %v", id, err)
		c.String(http.StatusBadGateway, "Failed to load chart data")
		return
	}

	var buf bytes.Buffer
	if err := renderChart(&buf, kind, data); err != nil {
		if errors.Is(err, errNoChartData) {
			c.String(http.StatusNotFound, "No data to chart")
			return
		}
		log.Printf("ERROR: rendering %s chart for dataset %d: %v", kind, id, err)
		c.String(http.StatusInternalServerError, "Failed to render chart")
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func validChartKind(kind string) bool {
	for _, k := range chartKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (s *server) handleNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found.html", PageData{
		Title:  "Not Found",
		APIURL: s.config.APIURL,
	})
}
