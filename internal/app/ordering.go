package app

import "github.com/Jacob-Clark-809/todolist-webapp/internal/domain"

// ListsInOrder returns incomplete lists followed by complete ones, each
// group in its original relative order. The input is left untouched.
func ListsInOrder(lists []domain.List) []domain.List {
	return partition(lists, domain.List.IsComplete)
}

// TodosInOrder returns open todos followed by completed ones, each group in
// its original relative order.
func TodosInOrder(todos []domain.Todo) []domain.Todo {
	return partition(todos, func(t domain.Todo) bool { return t.Completed })
}

// ListClass is the CSS class for a list row: "complete" or empty.
func ListClass(list domain.List) string {
	if list.IsComplete() {
		return "complete"
	}
	return ""
}

func partition[T any](items []T, last func(T) bool) []T {
	out := make([]T, 0, len(items))
	var tail []T
	for _, item := range items {
		if last(item) {
			tail = append(tail, item)
		} else {
			out = append(out, item)
		}
	}
	return append(out, tail...)
}

// nextListID is max existing id + 1, or 1 for an empty session. IDs of
// deleted lists can be handed out again.
func nextListID(lists []domain.List) int {
	maxID := 0
	for _, l := range lists {
		maxID = max(maxID, l.ID)
	}
	return maxID + 1
}

func nextTodoID(todos []domain.Todo) int {
	maxID := 0
	for _, t := range todos {
		maxID = max(maxID, t.ID)
	}
	return maxID + 1
}

func deleteWhere[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}
