package domain

// Todo is a named item with a completion flag. IDs are unique within a list.
type Todo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// List is a named, ordered group of todos. IDs are unique within a session.
type List struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Todos []Todo `json:"todos"`
}

// IsComplete is true when the list has at least one todo and all are completed.
func (l List) IsComplete() bool {
	return len(l.Todos) > 0 && l.TodosCompletedCount() == len(l.Todos)
}

func (l List) TodosCount() int {
	return len(l.Todos)
}

func (l List) TodosCompletedCount() int {
	n := 0
	for _, t := range l.Todos {
		if t.Completed {
			n++
		}
	}
	return n
}
