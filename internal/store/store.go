package store

import (
	"context"
	"errors"

	"docflow/internal/model"
)

// ErrNotFound is returned when no document exists for the requested id.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the single source of truth for Document records.
// Implementations can live in subpackages (e.g., postgres) inside this directory.
//
// Update must apply the mutation atomically: a concurrent reader observes the
// document either before or after the mutation, never mid-transition. The
// pipeline serializes calls per document id, so implementations only need
// read-modify-write consistency, not conflict resolution.
type DocumentStore interface {
	// Insert stores a new document record.
	Insert(ctx context.Context, doc *model.Document) error

	// Get returns a snapshot of a document by its id.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Update loads the document, applies mutate, and persists the result.
	// If mutate returns an error the document is left unchanged and the
	// error is returned as-is.
	Update(ctx context.Context, id string, mutate func(*model.Document) error) (*model.Document, error)

	// List returns all documents ordered by uploaded_at descending, ties
	// broken by id ascending.
	List(ctx context.Context) ([]model.Document, error)

	// AddDistribution appends one distribution attempt to the document's history.
	AddDistribution(ctx context.Context, docID string, d model.Distribution) error

	// ListDistributions returns the document's distribution history, oldest first.
	ListDistributions(ctx context.Context, docID string) ([]model.Distribution, error)
}
