package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/metrics"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
	apperrors "github.com/Jacob-Clark-809/todolist-webapp/internal/platform/errors"
)

// Session cookie and keys
const (
	sessionName         = "todolist-session"
	sessionKeyState     = "state"
	sessionKeySessionID = "sid"

	contextKeySession = "session"
)

const msgSessionTooLarge = "Your lists are too large to save. The last change was discarded."

// SessionBackend loads and saves one visitor's state. Load starts a fresh
// session when the visitor has none.
type SessionBackend interface {
	Load(c echo.Context) (*domain.Session, error)
	Save(c echo.Context, state *domain.Session) error
}

// sessionMiddleware loads the session once per request and saves it right
// before the response header goes out.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		state, err := s.sessions.Load(c)
		if err != nil {
			return apperrors.InternalError("failed to load session", err)
		}
		c.Set(contextKeySession, state)

		c.Response().Before(func() {
			if err := s.sessions.Save(c, state); err != nil {
				slog.ErrorContext(c.Request().Context(), "Failed to save session",
					"path", c.Request().URL.Path,
					"error", err,
				)
			}
		})

		return next(c)
	}
}

func sessionFrom(c echo.Context) *domain.Session {
	state, ok := c.Get(contextKeySession).(*domain.Session)
	if !ok {
		// Only reachable from a route registered without sessionMiddleware.
		panic("httpserver: no session in context")
	}
	return state
}

// --- cookie backend ---

// CookieBackend keeps the whole session as JSON inside the signed cookie.
type CookieBackend struct {
	store   sessions.Store
	metrics *metrics.SessionMetrics
}

var _ SessionBackend = (*CookieBackend)(nil)

const backendCookie = "cookie"

// NewCookieBackend creates the default backend. m may be nil.
func NewCookieBackend(store sessions.Store, m *metrics.SessionMetrics) *CookieBackend {
	return &CookieBackend{store: store, metrics: m}
}

func (b *CookieBackend) Load(c echo.Context) (*domain.Session, error) {
	started := time.Now()
	state, err := b.load(c)
	observeSession(b.metrics, backendCookie, "load", started, err)
	return state, err
}

func (b *CookieBackend) load(c echo.Context) (*domain.Session, error) {
	// A cookie that fails to decode (rotated secret, tampering) yields a
	// new, empty session alongside the error.
	sess, err := b.store.Get(c.Request(), sessionName)
	if err != nil {
		slog.DebugContext(c.Request().Context(), "Discarding unreadable session cookie", "error", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	raw, ok := sess.Values[sessionKeyState].(string)
	if !ok {
		sessionCreated(b.metrics, backendCookie)
		return domain.NewSession(), nil
	}

	state := domain.NewSession()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		slog.WarnContext(c.Request().Context(), "Discarding malformed session state", "error", err)
		sessionCreated(b.metrics, backendCookie)
		return domain.NewSession(), nil
	}
	return state, nil
}

func (b *CookieBackend) Save(c echo.Context, state *domain.Session) error {
	started := time.Now()
	err := b.save(c, state)
	observeSession(b.metrics, backendCookie, "save", started, err)
	return err
}

// save writes state into the cookie. When that fails, usually because the
// signed value outgrew the cookie size limit, the visitor keeps the state
// their request arrived with plus an error flash.
func (b *CookieBackend) save(c echo.Context, state *domain.Session) error {
	sess, _ := b.store.Get(c.Request(), sessionName)
	if sess == nil {
		return errors.New("failed to get session")
	}

	previous, _ := sess.Values[sessionKeyState].(string)
	err := b.write(c, sess, state)
	if err == nil {
		return nil
	}

	kept := domain.NewSession()
	if previous != "" {
		if decodeErr := json.Unmarshal([]byte(previous), kept); decodeErr != nil {
			kept = domain.NewSession()
		}
	}
	kept.Error, kept.Success = msgSessionTooLarge, ""
	if restoreErr := b.write(c, sess, kept); restoreErr != nil {
		return errors.Join(err, restoreErr)
	}
	return fmt.Errorf("session change discarded, previous state kept: %w", err)
}

func (b *CookieBackend) write(c echo.Context, sess *sessions.Session, state *domain.Session) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	sess.Values[sessionKeyState] = string(data)

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

// --- repository backend ---

// RepositoryBackend keeps only a session ID in the cookie and the state in a
// domain.SessionRepository (Redis or memory).
type RepositoryBackend struct {
	name    string
	store   sessions.Store
	repo    domain.SessionRepository
	metrics *metrics.SessionMetrics
}

var _ SessionBackend = (*RepositoryBackend)(nil)

// NewRepositoryBackend creates a server-side backend. name labels metrics
// and logs; m may be nil.
func NewRepositoryBackend(name string, store sessions.Store, repo domain.SessionRepository, m *metrics.SessionMetrics) *RepositoryBackend {
	return &RepositoryBackend{name: name, store: store, repo: repo, metrics: m}
}

func (b *RepositoryBackend) Load(c echo.Context) (*domain.Session, error) {
	started := time.Now()
	state, err := b.load(c)
	observeSession(b.metrics, b.name, "load", started, err)
	return state, err
}

func (b *RepositoryBackend) load(c echo.Context) (*domain.Session, error) {
	sess, err := b.store.Get(c.Request(), sessionName)
	if sess == nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	raw, _ := sess.Values[sessionKeySessionID].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return b.start(sess), nil
	}

	ctx := c.Request().Context()
	state, err := b.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return b.start(sess), nil
	}
	if errors.Is(err, domain.ErrSessionCorrupt) {
		slog.WarnContext(ctx, "Discarding malformed session state", "backend", b.name, "error", err)
		if err := b.repo.Delete(ctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to delete malformed session", "backend", b.name, "error", err)
		}
		return b.start(sess), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if state.Lists == nil {
		state.Lists = []domain.List{}
	}
	return state, nil
}

// start assigns a fresh ID; nothing is stored until Save.
func (b *RepositoryBackend) start(sess *sessions.Session) *domain.Session {
	sess.Values[sessionKeySessionID] = uuid.New().String()
	sessionCreated(b.metrics, b.name)
	return domain.NewSession()
}

func (b *RepositoryBackend) Save(c echo.Context, state *domain.Session) error {
	started := time.Now()
	err := b.save(c, state)
	observeSession(b.metrics, b.name, "save", started, err)
	return err
}

func (b *RepositoryBackend) save(c echo.Context, state *domain.Session) error {
	sess, _ := b.store.Get(c.Request(), sessionName)
	if sess == nil {
		return errors.New("failed to get session")
	}

	raw, _ := sess.Values[sessionKeySessionID].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	if err := b.repo.Save(c.Request().Context(), id, state); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}

	// Re-issuing the cookie slides its max-age along with the repository TTL.
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

func observeSession(m *metrics.SessionMetrics, backend, operation string, started time.Time, err error) {
	if m != nil {
		m.Observe(backend, operation, started, err)
	}
}

func sessionCreated(m *metrics.SessionMetrics, backend string) {
	if m != nil {
		m.SessionCreated(backend)
	}
}
