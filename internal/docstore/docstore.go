// Package docstore defines the collection-oriented document store port the
// repositories are built on. Documents are flat maps from field name to
// scalar/array values; the repositories own the schema.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates a point read for a missing document.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a flat field map. Writes are full overwrites (upserts), never
// partial patches.
type Document map[string]any

// Filter is a field equality constraint.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection with equality filters, an
// optional single ordering, and an optional limit (0 = unbounded).
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Subscription delivers the full current result set of a query on attach and
// a re-materialized set after every change. Close detaches the upstream
// listener; closing more than once is a no-op.
type Subscription interface {
	// Snapshots is closed after Close (or context cancellation).
	Snapshots() <-chan []Document
	Close() error
}

// Store is the document database collaborator. The store serializes
// concurrent writes to the same document (last writer wins); no locking is
// layered on top of it.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Subscribe(ctx context.Context, q Query) (Subscription, error)
}

// Matches reports whether doc satisfies every filter of q.
func (q Query) Matches(doc Document) bool {
	for _, f := range q.Filters {
		if doc[f.Field] != f.Value {
			return false
		}
	}
	return true
}
