package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/metrics"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/app"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/platform/config"
)

const (
	testSessionSecret   = "test-secret-key-32-bytes-long!!!"
	csrfTokenCookieName = "csrf_token"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:         "test",
		Port:           "0",
		SessionSecret:  testSessionSecret,
		SessionBackend: config.SessionBackendCookie,
		SessionMaxAge:  time.Hour,
	}
}

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()

	templates, err := parseTemplates()
	require.NoError(t, err)

	cfg := testConfig()
	srv := &Server{
		echo:      echo.New(),
		config:    cfg,
		lists:     app.NewService(nil),
		sessions:  NewCookieBackend(NewCookieStore(cfg), nil),
		templates: templates,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withSessions(backend SessionBackend) func(*Server) {
	return func(s *Server) {
		s.sessions = backend
	}
}

func withRegistry(reg *prometheus.Registry) func(*Server) {
	return func(s *Server) {
		s.httpMetrics = metrics.NewHTTPMetrics(reg)
		s.metricsHandler = metrics.Handler(reg)
	}
}

func withRateLimit(rps float64, burst int) func(*Server) {
	return func(s *Server) {
		s.config.RateLimitRPS = rps
		s.config.RateLimitBurst = burst
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

// newHandlerContext builds a context carrying sess for calling a handler
// directly. params are name/value pairs for the route parameters.
func newHandlerContext(srv *Server, method, target string, form url.Values, sess *domain.Session, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()

	c := srv.echo.NewContext(req, rec)
	c.Set(contextKeySession, sess)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	return c, rec
}

func asXHR(c echo.Context) echo.Context {
	c.Request().Header.Set("X-Requested-With", "XMLHttpRequest")
	return c
}

// testClient drives the full middleware stack and keeps cookies between
// requests, like a browser.
type testClient struct {
	t       *testing.T
	srv     *Server
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, srv *Server) *testClient {
	return &testClient{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	tc.t.Helper()

	for _, ck := range tc.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	tc.srv.echo.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(tc.cookies, ck.Name)
			continue
		}
		tc.cookies[ck.Name] = ck
	}
	return rec
}

func (tc *testClient) get(target string) *httptest.ResponseRecorder {
	tc.t.Helper()
	return tc.do(httptest.NewRequest(http.MethodGet, target, nil))
}

// post submits form with the CSRF token issued to this client, fetching a
// page first if none has been issued yet. headers are name/value pairs.
func (tc *testClient) post(target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	tc.t.Helper()

	if _, ok := tc.cookies[csrfTokenCookieName]; !ok {
		tc.get("/lists/new")
	}
	token, ok := tc.cookies[csrfTokenCookieName]
	require.True(tc.t, ok, "no CSRF cookie issued")

	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", token.Value)

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return tc.do(req)
}

// fakeBackend is an in-test SessionBackend with injectable failures.
type fakeBackend struct {
	state   *domain.Session
	loadErr error
	saveErr error
	saves   int
}

func (b *fakeBackend) Load(echo.Context) (*domain.Session, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	if b.state == nil {
		b.state = domain.NewSession()
	}
	return b.state, nil
}

func (b *fakeBackend) Save(_ echo.Context, state *domain.Session) error {
	b.saves++
	b.state = state
	return b.saveErr
}

var errBackendDown = errors.New("backend down")

func form(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

func groceries() *domain.Session {
	return &domain.Session{
		Lists: []domain.List{{
			ID:   1,
			Name: "Groceries",
			Todos: []domain.Todo{
				{ID: 1, Name: "milk", Completed: true},
				{ID: 2, Name: "eggs"},
			},
		}},
	}
}
