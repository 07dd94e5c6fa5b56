package web

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/godilite/campaign-analyzer/internal/render"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"summaryHeaders":   func() []string { return render.SummaryHeaders },
	"summaryRow":       render.SummaryRow,
	"formatCount":      render.FormatCount,
	"formatValue":      render.FormatValue,
	"leaderboardTitle": render.LeaderboardTitle,
	"emptyMessage":     render.EmptyMessage,
	"statsLine":        render.StatsLine,
}

func parseTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.tmpl"))
}

// NewRouter wires the handlers onto a gin engine with recovery, request
// logging and upload size limits.
func NewRouter(h *Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger.Named("http")))
	r.SetHTMLTemplate(parseTemplates())
	r.MaxMultipartMemory = multipartMemory

	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)
	r.POST("/analyze", LimitBody(h.maxUpload), h.AnalyzeForm)

	api := r.Group("/api/v1", LimitBody(h.maxUpload))
	{
		api.POST("/analyze", h.AnalyzeAPI)
	}

	return r
}
