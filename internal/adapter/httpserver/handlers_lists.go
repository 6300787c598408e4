package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
	apperrors "github.com/Jacob-Clark-809/todolist-webapp/internal/platform/errors"
)

const (
	msgListCreated   = "The list has been created."
	msgListUpdated   = "The list has been updated."
	msgListDeleted   = "The list has been deleted."
	msgTodoAdded     = "The todo was added."
	msgTodoDeleted   = "The todo has been deleted."
	msgTodoUpdated   = "The todo has been updated."
	msgTodosComplete = "All todos have been completed."
)

const listsPath = "/lists"

func (s *Server) registerListRoutes(page, mutation []echo.MiddlewareFunc) {
	s.echo.GET("/", s.handleRoot)

	s.echo.GET("/lists", s.handleLists, page...)
	s.echo.GET("/lists/new", s.handleNewList, page...)
	s.echo.GET("/lists/:id", s.handleShowList, page...)
	s.echo.GET("/lists/:id/edit", s.handleEditList, page...)

	s.echo.POST("/lists", s.handleCreateList, mutation...)
	s.echo.POST("/lists/:id", s.handleRenameList, mutation...)
	s.echo.POST("/lists/:id/destroy", s.handleDeleteList, mutation...)
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.Redirect(http.StatusFound, listsPath)
}

func (s *Server) handleLists(c echo.Context) error {
	return s.renderPage(c, http.StatusOK, "lists.html", pageData{Lists: sessionFrom(c).Lists})
}

func (s *Server) handleNewList(c echo.Context) error {
	return s.renderPage(c, http.StatusOK, "new_list.html", pageData{})
}

func (s *Server) handleShowList(c echo.Context) error {
	list, err := s.lists.FindList(sessionFrom(c), paramID(c, "id"))
	if err != nil {
		return s.recoverNotFound(c, err, listsPath)
	}
	return s.renderPage(c, http.StatusOK, "list.html", pageData{List: list})
}

func (s *Server) handleEditList(c echo.Context) error {
	list, err := s.lists.FindList(sessionFrom(c), paramID(c, "id"))
	if err != nil {
		return s.recoverNotFound(c, err, listsPath)
	}
	return s.renderPage(c, http.StatusOK, "edit_list.html", pageData{List: list, ListName: list.Name})
}

func (s *Server) handleCreateList(c echo.Context) error {
	sess := sessionFrom(c)
	name := strings.TrimSpace(c.FormValue("list_name"))

	if _, err := s.lists.CreateList(c.Request().Context(), sess, name); err != nil {
		if !apperrors.IsType(err, apperrors.TypeValidation) {
			return err
		}
		sess.Error = apperrors.AsStructuredError(err).Message
		return s.renderPage(c, http.StatusUnprocessableEntity, "new_list.html", pageData{ListName: name})
	}

	sess.Success = msgListCreated
	return c.Redirect(http.StatusSeeOther, listsPath)
}

func (s *Server) handleRenameList(c echo.Context) error {
	sess := sessionFrom(c)
	id := paramID(c, "id")
	name := strings.TrimSpace(c.FormValue("list_name"))

	list, err := s.lists.RenameList(c.Request().Context(), sess, id, name)
	if err == nil {
		sess.Success = msgListUpdated
		return c.Redirect(http.StatusSeeOther, listPath(list.ID))
	}
	if !apperrors.IsType(err, apperrors.TypeValidation) {
		return s.recoverNotFound(c, err, listsPath)
	}

	list, findErr := s.lists.FindList(sess, id)
	if findErr != nil {
		return findErr
	}
	sess.Error = apperrors.AsStructuredError(err).Message
	return s.renderPage(c, http.StatusUnprocessableEntity, "edit_list.html", pageData{List: list, ListName: name})
}

// handleDeleteList succeeds for unknown ids too. XHR callers get the path to
// navigate to instead of a redirect.
func (s *Server) handleDeleteList(c echo.Context) error {
	sess := sessionFrom(c)
	s.lists.DeleteList(c.Request().Context(), sess, paramID(c, "id"))

	if isXHR(c) {
		return c.String(http.StatusOK, listsPath)
	}
	sess.Success = msgListDeleted
	return c.Redirect(http.StatusSeeOther, listsPath)
}

// recoverNotFound turns a not-found error into an error flash plus a redirect
// to redirectTo. XHR requests and other errors fall through to
// ErrorHandlingMiddleware.
func (s *Server) recoverNotFound(c echo.Context, err error, redirectTo string) error {
	if isXHR(c) || !apperrors.IsType(err, apperrors.TypeNotFound) {
		return err
	}
	sessionFrom(c).Error = apperrors.AsStructuredError(err).Message
	return c.Redirect(http.StatusSeeOther, redirectTo)
}

// notFoundTarget picks where a failed todo operation sends the visitor: the
// list overview when the list is gone, the list itself when only the todo is.
func notFoundTarget(err error, listID int) string {
	if errors.Is(err, domain.ErrListNotFound) {
		return listsPath
	}
	return listPath(listID)
}

// paramID parses a numeric path parameter. Anything else maps to 0, which is
// never assigned as an id.
func paramID(c echo.Context, name string) int {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0
	}
	return id
}

func listPath(id int) string {
	return listsPath + "/" + strconv.Itoa(id)
}
