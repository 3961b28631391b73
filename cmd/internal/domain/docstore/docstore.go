package docstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	CollectionSubjects = "subjects"
	CollectionNotes    = "notes"
	CollectionShares   = "shares"
)

// ErrNotFound is returned by Update when the target document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a single stored record. Data holds the decoded JSON payload,
// so numbers come back as float64 and arrays as []any.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the document database contract all services depend on.
// Implementations must guarantee per-document atomicity and all-or-nothing
// batch commits; everything above this interface is stateless.
type Store interface {
	// Get returns the document, or nil if it does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Create inserts a new document under a store-generated id.
	Create(ctx context.Context, collection string, fields map[string]any) (*Document, error)

	// Set overwrites the whole document, creating it if absent.
	Set(ctx context.Context, collection, id string, fields map[string]any) error

	// Update merges the given fields into an existing document.
	// Returns ErrNotFound if the document is absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	Delete(ctx context.Context, collection, id string) error

	Query(ctx context.Context, collection string, q Query) ([]*Document, error)

	// Batch stages writes that Commit applies atomically.
	Batch() Batch
}

type Batch interface {
	Set(collection, id string, fields map[string]any)
	Update(collection, id string, fields map[string]any)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// NewID generates a document id the same way the store does on Create.
// Callers use it when an id must be known before a batched Set.
func NewID() string {
	return uuid.NewString()
}
