package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/render"
	"PaperDigest/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

// Inline messages shown after a run.
const (
	msgSent            = "Digest sent successfully! Check your inbox."
	msgMissingEmail    = "Please enter a valid email address."
	msgMissingLLM      = "LLM API key not configured. Summaries cannot be generated."
	msgUpstream        = "Could not reach arXiv. Please try again in a few minutes."
	msgNoTransport     = "No email service configured. Set SENDGRID_API_KEY, or GMAIL_USER and GMAIL_APP_PASSWORD, to enable delivery. You can still download the digest below."
	msgDeliveryFailedF = "Failed to send the digest via %s. Check the logs for details. You can still download the digest below."
	msgNoPapersF       = "No matching papers found in the last %d day(s). Try adjusting your keywords or extending the search period."
)

//go:embed templates/*.html
var templatesFS embed.FS

// Runner executes one digest on behalf of the form.
type Runner interface {
	Run(ctx context.Context, cfg domain.DigestConfig) (*usecase.Report, error)
	LLMConfigured() bool
	TransportName() string
}

// Options tunes what the status banners show.
type Options struct {
	LLMModel string
	Now      func() time.Time
}

// Server is the interactive configuration form.
type Server struct {
	runner Runner
	opts   Options
	logger *slog.Logger
	engine *gin.Engine
}

type pageData struct {
	Form          digestForm
	Categories    []domain.CategoryOption
	DaysOptions   []int
	MaxPapers     int
	LLMConfigured bool
	LLMModel      string
	Transport     string

	Success string
	Notice  string
	Error   string

	Entries    []domain.DigestEntry
	Plaintext  string
	ExportJSON string
	ExportCLI  string
}

// NewServer builds the gin engine with every route registered. Callers set
// the gin mode before constructing it.
func NewServer(runner Runner, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"authors": render.FormatAuthors,
		"day": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
	}).ParseFS(templatesFS, "templates/*.html"))
	engine.SetHTMLTemplate(tmpl)

	s := &Server{runner: runner, opts: opts, logger: logger, engine: engine}
	engine.GET("/", s.index)
	engine.POST("/digest", s.digest)
	engine.POST("/download", s.download)
	engine.POST("/export", s.export)
	return s
}

// Handler exposes the engine for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("form listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve form: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown form: %w", err)
		}
		return nil
	}
}

func (s *Server) page(form digestForm) pageData {
	return pageData{
		Form:          form,
		Categories:    domain.CategoryOptions,
		DaysOptions:   daysBackOptions,
		MaxPapers:     domain.MaxPapersCeiling,
		LLMConfigured: s.runner.LLMConfigured(),
		LLMModel:      s.opts.LLMModel,
		Transport:     s.runner.TransportName(),
	}
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page(defaultForm()))
}

func (s *Server) bindForm(c *gin.Context) (digestForm, bool) {
	var form digestForm
	if err := c.ShouldBind(&form); err != nil {
		data := s.page(defaultForm())
		data.Error = fmt.Sprintf("Invalid form input: %v", err)
		c.HTML(http.StatusBadRequest, "index.html", data)
		return form, false
	}
	return form.clamp(), true
}

func (s *Server) digest(c *gin.Context) {
	form, ok := s.bindForm(c)
	if !ok {
		return
	}
	data := s.page(form)

	report, err := s.runner.Run(c.Request.Context(), form.toConfig())
	switch {
	case err == nil:
		data.Success = msgSent
	case errors.Is(err, usecase.ErrMissingRecipient):
		data.Error = msgMissingEmail
	case errors.Is(err, usecase.ErrMissingLLMCredential):
		data.Error = msgMissingLLM
	case errors.Is(err, usecase.ErrNoPapers):
		data.Notice = fmt.Sprintf(msgNoPapersF, form.DaysBack)
	case errors.Is(err, usecase.ErrUpstreamUnavailable):
		data.Error = msgUpstream
	case errors.Is(err, usecase.ErrNoTransport):
		data.Notice = msgNoTransport
	case errors.Is(err, usecase.ErrDeliveryFailed):
		data.Error = fmt.Sprintf(msgDeliveryFailedF, s.runner.TransportName())
	default:
		data.Error = "Digest generation failed: " + logging.Redact(err.Error())
	}
	if err != nil {
		s.logger.Warn("form digest run failed", "err", err)
	}

	if report != nil {
		data.Entries = report.Entries
		data.Plaintext = report.Digest.Plaintext
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) download(c *gin.Context) {
	text := c.PostForm("plaintext")
	if text == "" {
		c.String(http.StatusBadRequest, "no digest to download")
		return
	}
	name := render.FileName(s.opts.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (s *Server) export(c *gin.Context) {
	form, ok := s.bindForm(c)
	if !ok {
		return
	}
	cfg := form.toConfig()
	data := s.page(form)

	raw, err := config.ExportDigest(cfg)
	if err != nil {
		data.Error = err.Error()
		c.HTML(http.StatusInternalServerError, "index.html", data)
		return
	}
	data.ExportJSON = string(raw)
	data.ExportCLI = cliCommand(cfg)
	c.HTML(http.StatusOK, "index.html", data)
}
