package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/memory"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/app"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/platform/correlation"
)

func sessionBackends(t *testing.T) map[string]func(*Server) {
	t.Helper()
	repo := memory.NewSessionRepository(time.Hour, clockwork.NewFakeClock())
	return map[string]func(*Server){
		"cookie": func(*Server) {},
		"memory": withSessions(NewRepositoryBackend("memory", newTestStore(), repo, nil)),
	}
}

func TestFlow_ListLifecycle(t *testing.T) {
	for name, backend := range sessionBackends(t) {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, newTestServer(t, backend))

			rec := client.get("/")
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/lists", rec.Header().Get("Location"))

			rec = client.get("/lists")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "You have no lists yet.")

			rec = client.post("/lists", form("list_name", "Groceries"))
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/lists", rec.Header().Get("Location"))

			rec = client.get("/lists")
			assert.Contains(t, rec.Body.String(), "Groceries")
			assert.Contains(t, rec.Body.String(), msgListCreated)

			// The flash is gone on the next render.
			rec = client.get("/lists")
			assert.NotContains(t, rec.Body.String(), msgListCreated)

			rec = client.post("/lists/1", form("list_name", "Shopping"))
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/lists/1", rec.Header().Get("Location"))

			rec = client.get("/lists/1")
			assert.Contains(t, rec.Body.String(), "<h2>Shopping</h2>")
			assert.Contains(t, rec.Body.String(), msgListUpdated)

			rec = client.post("/lists/1/destroy", nil)
			require.Equal(t, http.StatusSeeOther, rec.Code)

			rec = client.get("/lists")
			assert.Contains(t, rec.Body.String(), msgListDeleted)
			assert.Contains(t, rec.Body.String(), "You have no lists yet.")

			// Ids restart from the current maximum.
			client.post("/lists", form("list_name", "Again"))
			rec = client.get("/lists")
			assert.Contains(t, rec.Body.String(), `href="/lists/1"`)
		})
	}
}

func TestFlow_TodoLifecycle(t *testing.T) {
	for name, backend := range sessionBackends(t) {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, newTestServer(t, backend))
			client.post("/lists", form("list_name", "Groceries"))

			rec := client.post("/lists/1/todos", form("todo", "milk"))
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/lists/1", rec.Header().Get("Location"))
			client.post("/lists/1/todos", form("todo", "eggs"))

			rec = client.post("/lists/1/todos", form("todo", "milk"))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), app.MsgTodoNameInUse)

			rec = client.post("/lists/1/todos/1", form("completed", "true"))
			require.Equal(t, http.StatusSeeOther, rec.Code)

			rec = client.get("/lists/1")
			body := rec.Body.String()
			assert.Contains(t, body, msgTodoUpdated)
			assert.Less(t, strings.Index(body, "<h3>eggs</h3>"), strings.Index(body, "<h3>milk</h3>"))

			rec = client.get("/lists")
			assert.Contains(t, rec.Body.String(), "1 / 2")

			rec = client.post("/lists/1/complete_all", nil)
			require.Equal(t, http.StatusSeeOther, rec.Code)

			rec = client.get("/lists")
			assert.Contains(t, rec.Body.String(), "2 / 2")
			assert.Contains(t, rec.Body.String(), `class="complete"`)

			rec = client.post("/lists/1/todos/2/destroy", nil, "X-Requested-With", "XMLHttpRequest")
			assert.Equal(t, http.StatusNoContent, rec.Code)

			rec = client.post("/lists/1/destroy", nil, "X-Requested-With", "XMLHttpRequest")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "/lists", rec.Body.String())

			rec = client.get("/lists")
			assert.Contains(t, rec.Body.String(), "You have no lists yet.")
			assert.NotContains(t, rec.Body.String(), msgListDeleted)
		})
	}
}

func TestFlow_UnknownListRedirectsWithError(t *testing.T) {
	client := newTestClient(t, newTestServer(t))

	rec := client.get("/lists/12")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lists", rec.Header().Get("Location"))

	rec = client.get("/lists")
	assert.Contains(t, rec.Body.String(), app.MsgListNotFound)
}

func TestFlow_SessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t)
	alice := newTestClient(t, srv)
	bob := newTestClient(t, srv)

	alice.post("/lists", form("list_name", "Alice's list"))

	rec := bob.get("/lists")
	assert.Contains(t, rec.Body.String(), "You have no lists yet.")
}

func TestCSRFProtection(t *testing.T) {
	srv := newTestServer(t)

	t.Run("rejects POST without CSRF token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/lists", strings.NewReader(form("list_name", "x").Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		srv.echo.ServeHTTP(rec, req)

		assert.Contains(t, []int{http.StatusBadRequest, http.StatusForbidden}, rec.Code)
	})

	t.Run("rejects POST with mismatched token", func(t *testing.T) {
		client := newTestClient(t, srv)
		client.get("/lists/new")

		f := url.Values{"list_name": {"x"}, "csrf_token": {"forged"}}
		req := httptest.NewRequest(http.MethodPost, "/lists", strings.NewReader(f.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := client.do(req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("accepts token from header", func(t *testing.T) {
		client := newTestClient(t, srv)
		client.get("/lists/new")

		req := httptest.NewRequest(http.MethodPost, "/lists", strings.NewReader(form("list_name", "Header").Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-CSRF-Token", client.cookies[csrfTokenCookieName].Value)
		rec := client.do(req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("forms embed the token", func(t *testing.T) {
		client := newTestClient(t, srv)
		rec := client.get("/lists/new")

		token := client.cookies[csrfTokenCookieName].Value
		assert.Contains(t, rec.Body.String(), `name="csrf_token" value="`+token+`"`)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	client := newTestClient(t, newTestServer(t, withRegistry(reg)))

	client.get("/lists")
	client.post("/lists", form("list_name", "Groceries"))

	rec := client.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `todolist_http_requests_total{method="GET",route="/lists",status_code="200"}`)
	assert.Contains(t, body, `todolist_http_requests_total{method="POST",route="/lists",status_code="303"}`)
	assert.NotContains(t, body, `route="/metrics"`)
}

func TestResponsesCarryCorrelationID(t *testing.T) {
	client := newTestClient(t, newTestServer(t))

	rec := client.get("/lists")

	assert.NotEmpty(t, rec.Header().Get(correlation.Header))
}

func TestSecurityHeaders(t *testing.T) {
	client := newTestClient(t, newTestServer(t))

	rec := client.get("/lists")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestFlow_CookieOverflowKeepsEarlierLists(t *testing.T) {
	client := newTestClient(t, newTestServer(t))

	var body string
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("%02d %s", i, strings.Repeat("x", 97))
		rec := client.post("/lists", form("list_name", name))
		require.Equal(t, http.StatusSeeOther, rec.Code)

		rec = client.get("/lists")
		require.Equal(t, http.StatusOK, rec.Code)
		body = rec.Body.String()
	}

	// The cookie stopped growing long before the last list, but nothing
	// that fit was lost.
	assert.Contains(t, body, "00 xxx")
	assert.NotContains(t, body, "39 xxx")
}
