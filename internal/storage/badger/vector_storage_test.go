package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/common"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
	"github.com/ternarybob/syllabus/internal/services/embeddings"
	"github.com/timshannon/badgerhold/v4"
)

func newTestVectorStorage(t *testing.T) interfaces.VectorStorage {
	t.Helper()

	tmpDir := t.TempDir()
	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	db := &BadgerDB{store: store}
	return NewVectorStorage(db, embeddings.NewHashEmbedder(256), arbor.NewLogger())
}

func seedCollection(t *testing.T, collection interfaces.VectorCollection) {
	t.Helper()
	err := collection.Upsert(context.Background(), []models.VectorRecord{
		{ID: "mcp_0", Document: "MCP servers expose tools and resources to clients", Metadata: map[string]any{"course_title": "MCP", "lesson_number": 1, "chunk_index": 0}},
		{ID: "mcp_1", Document: "Building an MCP client that connects to a server", Metadata: map[string]any{"course_title": "MCP", "lesson_number": 2, "chunk_index": 1}},
		{ID: "rag_0", Document: "Chunking documents for retrieval augmented generation", Metadata: map[string]any{"course_title": "RAG", "lesson_number": 1, "chunk_index": 0}},
	})
	require.NoError(t, err)
}

func TestVectorStorage_UpsertAndCount(t *testing.T) {
	storage := newTestVectorStorage(t)
	ctx := context.Background()

	collection, err := storage.Collection(ctx, "course_content")
	require.NoError(t, err)
	assert.Equal(t, "course_content", collection.Name())

	seedCollection(t, collection)

	count, err := collection.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Same id overwrites rather than duplicates
	err = collection.Upsert(ctx, []models.VectorRecord{{ID: "rag_0", Document: "Updated text", Metadata: map[string]any{"course_title": "RAG"}}})
	require.NoError(t, err)

	count, err = collection.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	records, err := collection.Get(ctx, "rag_0")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Updated text", records[0].Document)
}

func TestVectorStorage_EmptyUpsertRejected(t *testing.T) {
	storage := newTestVectorStorage(t)
	collection, err := storage.Collection(context.Background(), "course_content")
	require.NoError(t, err)

	err = collection.Upsert(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyUpsert)
}

func TestVectorStorage_QueryRanksByDistance(t *testing.T) {
	storage := newTestVectorStorage(t)
	ctx := context.Background()
	collection, err := storage.Collection(ctx, "course_content")
	require.NoError(t, err)
	seedCollection(t, collection)

	result, err := collection.Query(ctx, "retrieval augmented generation chunking", 2, nil)
	require.NoError(t, err)

	require.Equal(t, 2, result.Len())
	assert.Equal(t, "rag_0", result.IDs[0])
	assert.LessOrEqual(t, result.Distances[0], result.Distances[1])
	assert.Len(t, result.Metadatas, 2)
}

func TestVectorStorage_QueryAppliesFilter(t *testing.T) {
	storage := newTestVectorStorage(t)
	ctx := context.Background()
	collection, err := storage.Collection(ctx, "course_content")
	require.NoError(t, err)
	seedCollection(t, collection)

	result, err := collection.Query(ctx, "retrieval", 5, models.Equals{Field: "course_title", Value: "MCP"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Len())
	for _, metadata := range result.Metadatas {
		assert.Equal(t, "MCP", metadata["course_title"])
	}

	filter := models.And{
		models.Equals{Field: "course_title", Value: "MCP"},
		models.Equals{Field: "lesson_number", Value: 2},
	}
	result, err = collection.Query(ctx, "client", 5, filter)
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "mcp_1", result.IDs[0])
}

func TestVectorStorage_QueryRejectsNonPositiveCount(t *testing.T) {
	storage := newTestVectorStorage(t)
	collection, err := storage.Collection(context.Background(), "course_catalog")
	require.NoError(t, err)

	_, err = collection.Query(context.Background(), "anything", 0, nil)
	assert.Error(t, err)
}

func TestVectorStorage_GetAllAndUnknownIDs(t *testing.T) {
	storage := newTestVectorStorage(t)
	ctx := context.Background()
	collection, err := storage.Collection(ctx, "course_content")
	require.NoError(t, err)
	seedCollection(t, collection)

	all, err := collection.Get(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"mcp_0", "mcp_1", "rag_0"}, []string{all[0].ID, all[1].ID, all[2].ID})

	some, err := collection.Get(ctx, "missing", "mcp_1")
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "mcp_1", some[0].ID)
}

func TestVectorStorage_CollectionsAreIsolated(t *testing.T) {
	storage := newTestVectorStorage(t)
	ctx := context.Background()

	content, err := storage.Collection(ctx, "course_content")
	require.NoError(t, err)
	catalog, err := storage.Collection(ctx, "course_catalog")
	require.NoError(t, err)
	seedCollection(t, content)

	count, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	result, err := catalog.Query(ctx, "MCP", 1, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Len())
}

func TestVectorStorage_DeleteCollection(t *testing.T) {
	storage := newTestVectorStorage(t)
	ctx := context.Background()

	content, err := storage.Collection(ctx, "course_content")
	require.NoError(t, err)
	catalog, err := storage.Collection(ctx, "course_catalog")
	require.NoError(t, err)
	seedCollection(t, content)
	seedCollection(t, catalog)

	require.NoError(t, storage.DeleteCollection(ctx, "course_content"))

	recreated, err := storage.Collection(ctx, "course_content")
	require.NoError(t, err)
	count, err := recreated.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other collections survive
	count, err = catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Deleting a collection that does not exist is not an error
	assert.NoError(t, storage.DeleteCollection(ctx, "never_created"))
}

func TestNewManager(t *testing.T) {
	config := &common.BadgerConfig{Path: t.TempDir()}

	manager, err := NewManager(arbor.NewLogger(), config, embeddings.NewHashEmbedder(64))
	require.NoError(t, err)
	defer manager.Close()

	assert.NotNil(t, manager.VectorStorage())
	assert.NotNil(t, manager.DB())
}
