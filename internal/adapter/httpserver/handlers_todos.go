package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/Jacob-Clark-809/todolist-webapp/internal/platform/errors"
)

func (s *Server) registerTodoRoutes(mutation []echo.MiddlewareFunc) {
	s.echo.POST("/lists/:id/todos", s.handleAddTodo, mutation...)
	s.echo.POST("/lists/:id/todos/:todo_id", s.handleUpdateTodo, mutation...)
	s.echo.POST("/lists/:id/todos/:todo_id/destroy", s.handleDeleteTodo, mutation...)
	s.echo.POST("/lists/:id/complete_all", s.handleCompleteAll, mutation...)
}

func (s *Server) handleAddTodo(c echo.Context) error {
	sess := sessionFrom(c)
	listID := paramID(c, "id")
	name := strings.TrimSpace(c.FormValue("todo"))

	_, err := s.lists.AddTodo(c.Request().Context(), sess, listID, name)
	if err == nil {
		sess.Success = msgTodoAdded
		return c.Redirect(http.StatusSeeOther, listPath(listID))
	}
	if !apperrors.IsType(err, apperrors.TypeValidation) {
		return s.recoverNotFound(c, err, listsPath)
	}

	list, findErr := s.lists.FindList(sess, listID)
	if findErr != nil {
		return findErr
	}
	sess.Error = apperrors.AsStructuredError(err).Message
	return s.renderPage(c, http.StatusUnprocessableEntity, "list.html", pageData{List: list, TodoName: name})
}

func (s *Server) handleUpdateTodo(c echo.Context) error {
	sess := sessionFrom(c)
	listID := paramID(c, "id")
	completed := c.FormValue("completed") == "true"

	err := s.lists.SetTodoCompleted(c.Request().Context(), sess, listID, paramID(c, "todo_id"), completed)
	if err != nil {
		return s.recoverNotFound(c, err, notFoundTarget(err, listID))
	}

	sess.Success = msgTodoUpdated
	return c.Redirect(http.StatusSeeOther, listPath(listID))
}

// handleDeleteTodo answers XHR callers with 204 and no body.
func (s *Server) handleDeleteTodo(c echo.Context) error {
	sess := sessionFrom(c)
	listID := paramID(c, "id")

	err := s.lists.DeleteTodo(c.Request().Context(), sess, listID, paramID(c, "todo_id"))
	if err != nil {
		return s.recoverNotFound(c, err, notFoundTarget(err, listID))
	}

	if isXHR(c) {
		return c.NoContent(http.StatusNoContent)
	}
	sess.Success = msgTodoDeleted
	return c.Redirect(http.StatusSeeOther, listPath(listID))
}

func (s *Server) handleCompleteAll(c echo.Context) error {
	sess := sessionFrom(c)
	listID := paramID(c, "id")

	if err := s.lists.CompleteAll(c.Request().Context(), sess, listID); err != nil {
		return s.recoverNotFound(c, err, listsPath)
	}

	sess.Success = msgTodosComplete
	return c.Redirect(http.StatusSeeOther, listPath(listID))
}
