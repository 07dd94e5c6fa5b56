package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/godilite/campaign-analyzer/internal/campaign"
	"github.com/godilite/campaign-analyzer/internal/service"
	"go.uber.org/zap"
)

const (
	defaultMaxUpload   = 32 << 20
	defaultHTTPTimeout = 30 * time.Second
	multipartMemory    = 8 << 20
	pageTemplate       = "index.tmpl"
)

var (
	errMissingFile = errors.New("file is required")
	errNotCSV      = errors.New("only .csv files are accepted")
)

type Handlers struct {
	analyzer  ReportAnalyzer
	defaults  campaign.Options
	maxUpload int64
	logger    *zap.Logger
}

// NewHandlers builds the HTTP handlers. maxUpload caps request bodies; zero
// means 32 MiB.
func NewHandlers(analyzer ReportAnalyzer, defaults campaign.Options, maxUpload int64, logger *zap.Logger) *Handlers {
	if analyzer == nil {
		panic("nil ReportAnalyzer provided to NewHandlers")
	}
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		analyzer:  analyzer,
		defaults:  defaults,
		maxUpload: maxUpload,
		logger:    logger.Named("http-handler"),
	}
}

// page is the data behind index.tmpl.
type page struct {
	MinSessions string
	Top         string
	FileName    string
	Error       string
	Report      *campaign.Report
}

func (h *Handlers) idlePage() page {
	return page{
		MinSessions: strconv.FormatInt(h.defaults.MinSessions, 10),
		Top:         strconv.Itoa(leaderboardSize(h.defaults.LeaderboardSize)),
	}
}

func leaderboardSize(n int) int {
	if n <= 0 {
		return campaign.DefaultLeaderboardSize
	}
	return n
}

// parseOptions applies non-blank form or query values over the defaults.
func (h *Handlers) parseOptions(minSessions, top string) (campaign.Options, error) {
	opts := h.defaults
	if s := strings.TrimSpace(minSessions); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("%w: min_sessions must be a non-negative whole number", service.ErrInvalidOptions)
		}
		opts.MinSessions = n
	}
	if s := strings.TrimSpace(top); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("%w: top must be a non-negative whole number", service.ErrInvalidOptions)
		}
		opts.LeaderboardSize = n
	}
	return opts, nil
}

func (h *Handlers) handleError(ctx context.Context, op string, err error) (int, string) {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		return 499, "The request was canceled."
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		return http.StatusGatewayTimeout, service.UserMessage(context.DeadlineExceeded)
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("The file is larger than the %s limit.", sizeLabel(tooLarge.Limit))
	case errors.Is(err, errMissingFile):
		return http.StatusBadRequest, "Upload a CSV file in the \"file\" field."
	case errors.Is(err, errNotCSV):
		return http.StatusBadRequest, "Please upload a .csv file."
	case errors.Is(err, service.ErrMalformedInput), errors.Is(err, service.ErrInvalidOptions):
		h.logger.Info("rejected upload", zap.String("op", op), zap.Error(err))
		return http.StatusBadRequest, service.UserMessage(err)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("analysis timeout", zap.String("op", op))
		return http.StatusGatewayTimeout, service.UserMessage(err)
	case errors.Is(err, service.ErrEngineFailure):
		h.logger.Error("engine failure", zap.String("op", op), zap.Error(err))
		return http.StatusInternalServerError, service.UserMessage(err)
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return http.StatusInternalServerError, service.UserMessage(err)
	}
}

func sizeLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

// parseMultipart reports body-size and framing errors that FormFile would hide.
func parseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return fmt.Errorf("read upload: %w", err)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return nil, errNotCSV
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handlers) analyze(c *gin.Context, content []byte, opts campaign.Options) (campaign.Report, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultHTTPTimeout)
	defer cancel()

	return h.analyzer.AnalyzeBytes(ctx, content, opts)
}

// Index serves the upload form.
func (h *Handlers) Index(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplate, h.idlePage())
}

// AnalyzeForm handles the browser upload. Without a file it shows the idle
// form again.
func (h *Handlers) AnalyzeForm(c *gin.Context) {
	p := h.idlePage()

	fail := func(err error) {
		status, msg := h.handleError(c.Request.Context(), "AnalyzeForm", err)
		p.Error = msg
		c.HTML(status, pageTemplate, p)
	}

	if err := parseMultipart(c.Request); err != nil {
		fail(err)
		return
	}
	if v, ok := c.GetPostForm("min_sessions"); ok {
		p.MinSessions = v
	}
	if v, ok := c.GetPostForm("top"); ok {
		p.Top = v
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.HTML(http.StatusOK, pageTemplate, p)
		return
	}
	p.FileName = fh.Filename

	opts, err := h.parseOptions(p.MinSessions, p.Top)
	if err != nil {
		fail(err)
		return
	}

	content, err := readFile(fh)
	if err != nil {
		fail(err)
		return
	}

	report, err := h.analyze(c, content, opts)
	if err != nil {
		fail(err)
		return
	}

	p.Report = &report
	c.HTML(http.StatusOK, pageTemplate, p)
}

// AnalyzeAPI accepts the CSV as the raw body or as a multipart "file" and
// answers with the report as JSON.
func (h *Handlers) AnalyzeAPI(c *gin.Context) {
	fail := func(err error) {
		status, msg := h.handleError(c.Request.Context(), "AnalyzeAPI", err)
		c.JSON(status, gin.H{"error": msg})
	}

	opts, err := h.parseOptions(c.Query("min_sessions"), c.Query("top"))
	if err != nil {
		fail(err)
		return
	}

	var content []byte
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := parseMultipart(c.Request); err != nil {
			fail(err)
			return
		}
		fh, err := c.FormFile("file")
		if err != nil {
			fail(errMissingFile)
			return
		}
		if content, err = readFile(fh); err != nil {
			fail(err)
			return
		}
	} else {
		if content, err = io.ReadAll(c.Request.Body); err != nil {
			fail(fmt.Errorf("read body: %w", err))
			return
		}
	}
	if len(content) == 0 {
		fail(errMissingFile)
		return
	}

	report, err := h.analyze(c, content, opts)
	if err != nil {
		fail(err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
