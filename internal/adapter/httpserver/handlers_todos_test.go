package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/app"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
)

func TestHandleAddTodo(t *testing.T) {
	srv := newTestServer(t)
	sess := groceries()
	c, rec := newHandlerContext(srv, http.MethodPost, "/lists/1/todos", form("todo", " bread "), sess, "id", "1")

	require.NoError(t, callHandler(srv.handleAddTodo, c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lists/1", rec.Header().Get("Location"))
	require.Len(t, sess.Lists[0].Todos, 3)
	assert.Equal(t, domain.Todo{ID: 3, Name: "bread"}, sess.Lists[0].Todos[2])
	assert.Equal(t, msgTodoAdded, sess.Success)
}

func TestHandleAddTodo_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{name: "empty", input: "", wantMsg: app.MsgTodoNameLength},
		{name: "too long", input: strings.Repeat("y", 101), wantMsg: app.MsgTodoNameLength},
		{name: "duplicate", input: "eggs", wantMsg: app.MsgTodoNameInUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			sess := groceries()
			c, rec := newHandlerContext(srv, http.MethodPost, "/lists/1/todos", form("todo", tt.input), sess, "id", "1")

			require.NoError(t, callHandler(srv.handleAddTodo, c))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Contains(t, rec.Body.String(), "<h2>Groceries</h2>")
			assert.Len(t, sess.Lists[0].Todos, 2)
		})
	}
}

func TestHandleAddTodo_UnknownList(t *testing.T) {
	srv := newTestServer(t)
	sess := groceries()
	c, rec := newHandlerContext(srv, http.MethodPost, "/lists/2/todos", form("todo", "bread"), sess, "id", "2")

	require.NoError(t, callHandler(srv.handleAddTodo, c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lists", rec.Header().Get("Location"))
	assert.Equal(t, app.MsgListNotFound, sess.Error)
}

func TestHandleUpdateTodo(t *testing.T) {
	tests := []struct {
		name      string
		todoID    int
		completed string
		want      bool
	}{
		{name: "complete", todoID: 2, completed: "true", want: true},
		{name: "reopen", todoID: 1, completed: "false", want: false},
		{name: "anything but true reopens", todoID: 1, completed: "yes", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			sess := groceries()
			todoID := strconv.Itoa(tt.todoID)
			c, rec := newHandlerContext(srv, http.MethodPost, "/lists/1/todos/"+todoID,
				form("completed", tt.completed), sess, "id", "1", "todo_id", todoID)

			require.NoError(t, callHandler(srv.handleUpdateTodo, c))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/lists/1", rec.Header().Get("Location"))
			assert.Equal(t, tt.want, sess.Lists[0].Todos[tt.todoID-1].Completed)
			assert.Equal(t, msgTodoUpdated, sess.Success)
		})
	}
}

func TestHandleUpdateTodo_NotFound(t *testing.T) {
	tests := []struct {
		name         string
		listID       string
		todoID       string
		wantLocation string
		wantMsg      string
	}{
		{name: "unknown todo", listID: "1", todoID: "9", wantLocation: "/lists/1", wantMsg: app.MsgTodoNotFound},
		{name: "non-numeric todo", listID: "1", todoID: "x", wantLocation: "/lists/1", wantMsg: app.MsgTodoNotFound},
		{name: "unknown list", listID: "4", todoID: "1", wantLocation: "/lists", wantMsg: app.MsgListNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			sess := groceries()
			c, rec := newHandlerContext(srv, http.MethodPost, "/lists/"+tt.listID+"/todos/"+tt.todoID,
				form("completed", "true"), sess, "id", tt.listID, "todo_id", tt.todoID)

			require.NoError(t, callHandler(srv.handleUpdateTodo, c))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantMsg, sess.Error)
			assert.Empty(t, sess.Success)
		})
	}
}

func TestHandleDeleteTodo(t *testing.T) {
	srv := newTestServer(t)
	sess := groceries()
	c, rec := newHandlerContext(srv, http.MethodPost, "/lists/1/todos/1/destroy", form(), sess, "id", "1", "todo_id", "1")

	require.NoError(t, callHandler(srv.handleDeleteTodo, c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lists/1", rec.Header().Get("Location"))
	assert.Equal(t, []domain.Todo{{ID: 2, Name: "eggs"}}, sess.Lists[0].Todos)
	assert.Equal(t, msgTodoDeleted, sess.Success)
}

func TestHandleDeleteTodo_XHR(t *testing.T) {
	srv := newTestServer(t)
	sess := groceries()
	c, rec := newHandlerContext(srv, http.MethodPost, "/lists/1/todos/2/destroy", form(), sess, "id", "1", "todo_id", "2")

	require.NoError(t, callHandler(srv.handleDeleteTodo, asXHR(c)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Len(t, sess.Lists[0].Todos, 1)
	assert.Empty(t, sess.Success)
}

func TestHandleDeleteTodo_UnknownTodoXHR(t *testing.T) {
	srv := newTestServer(t)
	sess := groceries()
	c, rec := newHandlerContext(srv, http.MethodPost, "/lists/1/todos/7/destroy", form(), sess, "id", "1", "todo_id", "7")

	require.NoError(t, callHandler(srv.handleDeleteTodo, asXHR(c)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), app.MsgTodoNotFound)
	assert.Len(t, sess.Lists[0].Todos, 2)
}

func TestHandleCompleteAll(t *testing.T) {
	srv := newTestServer(t)
	sess := groceries()
	c, rec := newHandlerContext(srv, http.MethodPost, "/lists/1/complete_all", form(), sess, "id", "1")

	require.NoError(t, callHandler(srv.handleCompleteAll, c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lists/1", rec.Header().Get("Location"))
	assert.True(t, sess.Lists[0].IsComplete())
	assert.Equal(t, msgTodosComplete, sess.Success)
}

func TestHandleCompleteAll_UnknownList(t *testing.T) {
	srv := newTestServer(t)
	sess := groceries()
	c, rec := newHandlerContext(srv, http.MethodPost, "/lists/3/complete_all", form(), sess, "id", "3")

	require.NoError(t, callHandler(srv.handleCompleteAll, c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lists", rec.Header().Get("Location"))
	assert.Equal(t, app.MsgListNotFound, sess.Error)
	assert.False(t, sess.Lists[0].IsComplete())
}
