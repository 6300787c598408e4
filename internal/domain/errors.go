package domain

import "errors"

var (
	ErrListNotFound    = errors.New("list not found")
	ErrTodoNotFound    = errors.New("todo not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionCorrupt  = errors.New("session state corrupt")
)
