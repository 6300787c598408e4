// Package domain defines the todo-list data model and the contracts the
// adapters implement.
//
// Session, List and Todo are plain data with a few read-only helpers.
// Mutation lives in package app; persistence lives in the adapters.
package domain
