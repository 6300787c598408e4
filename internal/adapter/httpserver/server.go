package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/metrics"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/app"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/platform/config"
	"github.com/Jacob-Clark-809/todolist-webapp/web"
)

type listService interface {
	FindList(sess *domain.Session, id int) (*domain.List, error)
	CreateList(ctx context.Context, sess *domain.Session, name string) (*domain.List, error)
	RenameList(ctx context.Context, sess *domain.Session, id int, name string) (*domain.List, error)
	DeleteList(ctx context.Context, sess *domain.Session, id int) bool
	AddTodo(ctx context.Context, sess *domain.Session, listID int, name string) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, sess *domain.Session, listID, todoID int) error
	SetTodoCompleted(ctx context.Context, sess *domain.Session, listID, todoID int, completed bool) error
	CompleteAll(ctx context.Context, sess *domain.Session, listID int) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	lists    listService
	sessions SessionBackend

	templates *template.Template

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler

	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer wires the routes. reg may be nil, in which case neither HTTP
// metrics nor /metrics are registered.
func NewServer(cfg *config.Config, lists listService, backend SessionBackend, reg *prometheus.Registry, healthChecks []HealthCheck) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		lists:        lists,
		sessions:     backend,
		templates:    templates,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}
	if reg != nil {
		srv.httpMetrics = metrics.NewHTTPMetrics(reg)
		srv.metricsHandler = metrics.Handler(reg)
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"listClass":           app.ListClass,
	"listsInOrder":        app.ListsInOrder,
	"todosInOrder":        app.TodosInOrder,
	"todosCount":          func(l domain.List) int { return l.TodosCount() },
	"todosCompletedCount": func(l domain.List) int { return l.TodosCompletedCount() },
}

func parseTemplates() (*template.Template, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// pageData is handed to every page template. Only the fields a page uses
// are set.
type pageData struct {
	Error     string
	Success   string
	CSRFToken string

	Lists    []domain.List
	List     *domain.List
	ListName string
	TodoName string
}

// renderPage renders name with the pending flash messages. The flash is
// consumed only once the page has rendered.
func (s *Server) renderPage(c echo.Context, status int, name string, data pageData) error {
	sess := sessionFrom(c)
	data.Error, data.Success = sess.Error, sess.Success
	data.CSRFToken = csrfToken(c)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}

	sess.TakeFlash()
	if err := c.HTMLBlob(status, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

// NewCookieStore builds the signed cookie store shared by every session
// backend.
func NewCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
