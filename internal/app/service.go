package app

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
	apperrors "github.com/Jacob-Clark-809/todolist-webapp/internal/platform/errors"
)

const (
	minNameLen = 1
	maxNameLen = 100
)

// Visitor-facing messages.
const (
	MsgListNameLength = "The list name must be between 1 and 100 characters."
	MsgListNameInUse  = "List name already in use."
	MsgTodoNameLength = "The todo name must be between 1 and 100 characters."
	MsgTodoNameInUse  = "That todo already exists."
	MsgListNotFound   = "The specified list was not found."
	MsgTodoNotFound   = "The specified todo was not found."
)

// Operation names reported to the OperationRecorder.
const (
	OpCreateList       = "create_list"
	OpRenameList       = "rename_list"
	OpDeleteList       = "delete_list"
	OpAddTodo          = "add_todo"
	OpDeleteTodo       = "delete_todo"
	OpSetTodoCompleted = "set_todo_completed"
	OpCompleteAll      = "complete_all"
)

// OperationRecorder observes the outcome of every mutating operation.
// outcome is "ok" or the apperrors type of the failure.
type OperationRecorder interface {
	RecordOperation(operation, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(string, string) {}

// Service is the list manager.
type Service struct {
	recorder OperationRecorder
}

// NewService creates the list manager. recorder may be nil.
func NewService(recorder OperationRecorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{recorder: recorder}
}

// FindList returns the list with the given id.
func (s *Service) FindList(sess *domain.Session, id int) (*domain.List, error) {
	for i := range sess.Lists {
		if sess.Lists[i].ID == id {
			return &sess.Lists[i], nil
		}
	}
	return nil, apperrors.NotFoundError(MsgListNotFound).
		WithCause(domain.ErrListNotFound).
		WithField("list_id", id)
}

// CreateList appends a new, empty list.
func (s *Service) CreateList(ctx context.Context, sess *domain.Session, name string) (*domain.List, error) {
	name = strings.TrimSpace(name)
	if err := validateListName(sess, name); err != nil {
		return nil, s.fail(OpCreateList, err)
	}

	sess.Lists = append(sess.Lists, domain.List{
		ID:    nextListID(sess.Lists),
		Name:  name,
		Todos: []domain.Todo{},
	})
	list := &sess.Lists[len(sess.Lists)-1]

	s.recorder.RecordOperation(OpCreateList, "ok")
	slog.InfoContext(ctx, "List created", "list_id", list.ID)
	return list, nil
}

// RenameList changes a list's name. The new name goes through the same
// checks as a new list, so renaming a list to its current name is rejected.
func (s *Service) RenameList(ctx context.Context, sess *domain.Session, id int, name string) (*domain.List, error) {
	list, err := s.FindList(sess, id)
	if err != nil {
		return nil, s.fail(OpRenameList, err)
	}

	name = strings.TrimSpace(name)
	if err := validateListName(sess, name); err != nil {
		return nil, s.fail(OpRenameList, err.WithField("list_id", id))
	}

	list.Name = name
	s.recorder.RecordOperation(OpRenameList, "ok")
	slog.InfoContext(ctx, "List renamed", "list_id", id)
	return list, nil
}

// DeleteList removes a list. Deleting an unknown id is not an error;
// the return value reports whether a list was removed.
func (s *Service) DeleteList(ctx context.Context, sess *domain.Session, id int) bool {
	before := len(sess.Lists)
	sess.Lists = deleteWhere(sess.Lists, func(l domain.List) bool { return l.ID == id })
	removed := len(sess.Lists) != before

	s.recorder.RecordOperation(OpDeleteList, "ok")
	slog.InfoContext(ctx, "List deleted", "list_id", id, "removed", removed)
	return removed
}

// AddTodo appends an open todo to a list.
func (s *Service) AddTodo(ctx context.Context, sess *domain.Session, listID int, name string) (*domain.Todo, error) {
	list, err := s.FindList(sess, listID)
	if err != nil {
		return nil, s.fail(OpAddTodo, err)
	}

	name = strings.TrimSpace(name)
	if err := validateTodoName(list, name); err != nil {
		return nil, s.fail(OpAddTodo, err.WithField("list_id", listID))
	}

	list.Todos = append(list.Todos, domain.Todo{
		ID:   nextTodoID(list.Todos),
		Name: name,
	})
	todo := &list.Todos[len(list.Todos)-1]

	s.recorder.RecordOperation(OpAddTodo, "ok")
	slog.InfoContext(ctx, "Todo added", "list_id", listID, "todo_id", todo.ID)
	return todo, nil
}

// DeleteTodo removes a todo from a list.
func (s *Service) DeleteTodo(ctx context.Context, sess *domain.Session, listID, todoID int) error {
	list, _, err := s.findTodo(sess, listID, todoID)
	if err != nil {
		return s.fail(OpDeleteTodo, err)
	}

	list.Todos = deleteWhere(list.Todos, func(t domain.Todo) bool { return t.ID == todoID })

	s.recorder.RecordOperation(OpDeleteTodo, "ok")
	slog.InfoContext(ctx, "Todo deleted", "list_id", listID, "todo_id", todoID)
	return nil
}

// SetTodoCompleted marks a todo complete or incomplete.
func (s *Service) SetTodoCompleted(ctx context.Context, sess *domain.Session, listID, todoID int, completed bool) error {
	_, todo, err := s.findTodo(sess, listID, todoID)
	if err != nil {
		return s.fail(OpSetTodoCompleted, err)
	}

	todo.Completed = completed

	s.recorder.RecordOperation(OpSetTodoCompleted, "ok")
	slog.InfoContext(ctx, "Todo updated", "list_id", listID, "todo_id", todoID, "completed", completed)
	return nil
}

// CompleteAll marks every todo in a list complete.
func (s *Service) CompleteAll(ctx context.Context, sess *domain.Session, listID int) error {
	list, err := s.FindList(sess, listID)
	if err != nil {
		return s.fail(OpCompleteAll, err)
	}

	for i := range list.Todos {
		list.Todos[i].Completed = true
	}

	s.recorder.RecordOperation(OpCompleteAll, "ok")
	slog.InfoContext(ctx, "All todos completed", "list_id", listID, "count", len(list.Todos))
	return nil
}

func (s *Service) findTodo(sess *domain.Session, listID, todoID int) (*domain.List, *domain.Todo, error) {
	list, err := s.FindList(sess, listID)
	if err != nil {
		return nil, nil, err
	}
	for i := range list.Todos {
		if list.Todos[i].ID == todoID {
			return list, &list.Todos[i], nil
		}
	}
	return nil, nil, apperrors.NotFoundError(MsgTodoNotFound).
		WithCause(domain.ErrTodoNotFound).
		WithField("list_id", listID).
		WithField("todo_id", todoID)
}

func (s *Service) fail(operation string, err error) error {
	s.recorder.RecordOperation(operation, string(apperrors.AsStructuredError(err).Type))
	return err
}

// Length limits count characters, not bytes.
func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= minNameLen && n <= maxNameLen
}

func validateListName(sess *domain.Session, name string) *apperrors.Error {
	if !validName(name) {
		return apperrors.ValidationError(MsgListNameLength).WithField("list_name", name)
	}
	for _, l := range sess.Lists {
		if l.Name == name {
			return apperrors.ValidationError(MsgListNameInUse).WithField("list_name", name)
		}
	}
	return nil
}

func validateTodoName(list *domain.List, name string) *apperrors.Error {
	if !validName(name) {
		return apperrors.ValidationError(MsgTodoNameLength).WithField("todo", name)
	}
	for _, t := range list.Todos {
		if t.Name == name {
			return apperrors.ValidationError(MsgTodoNameInUse).WithField("todo", name)
		}
	}
	return nil
}
