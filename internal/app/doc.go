// Package app provides the list manager: every operation a visitor can
// perform on their lists and todos.
//
// Operations act on an explicit *domain.Session handle supplied by the HTTP
// layer; the service never loads or saves sessions itself. Failures are
// returned as structured validation or not-found errors whose messages are
// meant for the visitor.
package app
