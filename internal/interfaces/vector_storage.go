package interfaces

import (
	"context"

	"github.com/ternarybob/syllabus/internal/models"
)

// VectorCollection is one named, embedding-indexed collection.
type VectorCollection interface {
	// Name returns the collection name.
	Name() string

	// Upsert inserts or replaces records by id. Callers must not pass an
	// empty slice.
	Upsert(ctx context.Context, records []models.VectorRecord) error

	// Query returns up to n records closest to text that satisfy where.
	// A nil where matches every record.
	Query(ctx context.Context, text string, n int, where models.MetadataFilter) (*models.QueryResult, error)

	// Get returns the records with the given ids, or every record when no
	// id is given. Unknown ids are skipped.
	Get(ctx context.Context, ids ...string) ([]models.VectorRecord, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)
}

// VectorStorage is the embedding database boundary.
type VectorStorage interface {
	// Collection returns the named collection, creating it if needed.
	Collection(ctx context.Context, name string) (VectorCollection, error)

	// DeleteCollection removes a collection and all of its records.
	DeleteCollection(ctx context.Context, name string) error
}
