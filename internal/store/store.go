// Package store abstracts the multi-document persistent store that holds
// users, families, members and events. Implementations provide isolation only
// among their own documents; nothing here serializes against external
// collaborators such as the calendar service.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists at the path.
// Adapters translate their native not-found sentinel into this one.
var ErrNotFound = errors.New("document not found")

// Document is a stored record. ID is the last path segment, Data the decoded
// field map (JSON-compatible values: string, float64, bool, nested maps).
type Document struct {
	Path string
	ID   string
	Data map[string]any
}

// Tx collects writes issued inside RunTransaction. Writes are buffered and
// applied atomically when the transaction function returns nil; reads observe
// the pre-transaction state.
type Tx interface {
	Get(ctx context.Context, path string) (Document, error)
	Set(path string, data map[string]any)
	Update(path string, fields map[string]any)
	Delete(path string)
}

type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	Set(ctx context.Context, path string, data map[string]any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error

	// QueryEq returns documents of a collection whose field equals value.
	QueryEq(ctx context.Context, collection, field string, value any) ([]Document, error)
	// QueryRange returns documents whose field lies in the half-open
	// interval [lo, hi), ordered by that field.
	QueryRange(ctx context.Context, collection, field string, lo, hi any) ([]Document, error)
	// List returns up to limit documents of a collection. Used for the
	// bounded-batch cascade delete.
	List(ctx context.Context, collection string, limit int) ([]Document, error)

	// RunTransaction applies all writes issued through the Tx atomically,
	// or none of them when fn returns an error.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}
