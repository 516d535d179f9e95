package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// upsertBatchSize bounds the number of entries written per badger transaction
const upsertBatchSize = 100

var (
	// ErrEmptyUpsert is returned when Upsert is called without records
	ErrEmptyUpsert = errors.New("upsert requires at least one record")
	// ErrDimensionMismatch is returned when stored and query embeddings differ in length
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// VectorEntry is one embedded record as persisted in badger
type VectorEntry struct {
	Key        string // <collection>:<id>
	Collection string `badgerhold:"index"`
	DocID      string
	Document   string
	Metadata   map[string]interface{}
	Embedding  []float32
	UpdatedAt  time.Time
}

// VectorCollectionRecord marks a collection as existing and remembers how it was embedded
type VectorCollectionRecord struct {
	Name           string
	EmbeddingModel string
	Dimension      int
	CreatedAt      time.Time
}

// VectorStorage implements interfaces.VectorStorage on top of badgerhold.
// Similarity is cosine distance over embeddings produced by the injected
// embedding service; lower is closer.
type VectorStorage struct {
	db       *BadgerDB
	embedder interfaces.EmbeddingService
	logger   arbor.ILogger
}

// NewVectorStorage creates a new VectorStorage instance
func NewVectorStorage(db *BadgerDB, embedder interfaces.EmbeddingService, logger arbor.ILogger) interfaces.VectorStorage {
	return &VectorStorage{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
}

// Collection returns the named collection, creating it on first use
func (s *VectorStorage) Collection(ctx context.Context, name string) (interfaces.VectorCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record VectorCollectionRecord
	err := s.db.Store().Get(name, &record)
	switch {
	case err == nil:
		if record.EmbeddingModel != s.embedder.ModelName() || record.Dimension != s.embedder.Dimension() {
			s.logger.Warn().
				Str("collection", name).
				Str("stored_model", record.EmbeddingModel).
				Str("current_model", s.embedder.ModelName()).
				Msg("Collection was embedded with a different model, clear and re-ingest to query it")
		}
	case errors.Is(err, badgerhold.ErrNotFound):
		record = VectorCollectionRecord{
			Name:           name,
			EmbeddingModel: s.embedder.ModelName(),
			Dimension:      s.embedder.Dimension(),
			CreatedAt:      time.Now(),
		}
		if err := s.db.Store().Upsert(name, &record); err != nil {
			return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		s.logger.Debug().Str("collection", name).Msg("Created vector collection")
	default:
		return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
	}

	return &vectorCollection{name: name, storage: s}, nil
}

// DeleteCollection removes a collection and all of its entries
func (s *VectorStorage) DeleteCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Store().DeleteMatching(&VectorEntry{}, badgerhold.Where("Collection").Eq(name)); err != nil {
		return fmt.Errorf("failed to delete entries of collection %s: %w", name, err)
	}
	if err := s.db.Store().Delete(name, &VectorCollectionRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}

	s.logger.Debug().Str("collection", name).Msg("Deleted vector collection")
	return nil
}

// vectorCollection is a handle bound to one collection name
type vectorCollection struct {
	name    string
	storage *VectorStorage
}

func (c *vectorCollection) Name() string {
	return c.name
}

func entryKey(collection, id string) string {
	return collection + ":" + id
}

// Upsert embeds and stores records, replacing any with the same id
func (c *vectorCollection) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return ErrEmptyUpsert
	}

	entries := make([]*VectorEntry, 0, len(records))
	now := time.Now()
	for _, record := range records {
		if record.ID == "" {
			return fmt.Errorf("record id is required")
		}
		embedding, err := c.storage.embedder.Embed(ctx, record.Document)
		if err != nil {
			return fmt.Errorf("failed to embed record %s: %w", record.ID, err)
		}
		entries = append(entries, &VectorEntry{
			Key:        entryKey(c.name, record.ID),
			Collection: c.name,
			DocID:      record.ID,
			Document:   record.Document,
			Metadata:   record.Metadata,
			Embedding:  embedding,
			UpdatedAt:  now,
		})
	}

	store := c.storage.db.Store()
	for start := 0; start < len(entries); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(entries))
		batch := entries[start:end]
		err := c.storage.db.Badger().Update(func(txn *badgerdb.Txn) error {
			for _, entry := range batch {
				if err := store.TxUpsert(txn, entry.Key, entry); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", c.name, err)
		}
	}

	c.storage.logger.Debug().Str("collection", c.name).Int("records", len(entries)).Msg("Upserted vector records")
	return nil
}

type scoredEntry struct {
	entry    *VectorEntry
	distance float64
}

// Query ranks the collection by cosine distance to text and returns the top n
// entries that satisfy where
func (c *vectorCollection) Query(ctx context.Context, text string, n int, where models.MetadataFilter) (*models.QueryResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("query result count must be positive, got %d", n)
	}

	queryEmbedding, err := c.storage.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	entries, err := c.all()
	if err != nil {
		return nil, err
	}

	scored := make([]scoredEntry, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		if where != nil && !where.Matches(entry.Metadata) {
			continue
		}
		if len(entry.Embedding) != len(queryEmbedding) {
			return nil, fmt.Errorf("%w: collection %s has %d, query has %d",
				ErrDimensionMismatch, c.name, len(entry.Embedding), len(queryEmbedding))
		}
		scored = append(scored, scoredEntry{entry: entry, distance: cosineDistance(queryEmbedding, entry.Embedding)})
	}

	slices.SortStableFunc(scored, func(a, b scoredEntry) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		default:
			return 0
		}
	})
	if len(scored) > n {
		scored = scored[:n]
	}

	result := &models.QueryResult{
		IDs:       make([]string, 0, len(scored)),
		Documents: make([]string, 0, len(scored)),
		Metadatas: make([]map[string]any, 0, len(scored)),
		Distances: make([]float64, 0, len(scored)),
	}
	for _, s := range scored {
		result.IDs = append(result.IDs, s.entry.DocID)
		result.Documents = append(result.Documents, s.entry.Document)
		result.Metadatas = append(result.Metadatas, metadataOrEmpty(s.entry.Metadata))
		result.Distances = append(result.Distances, s.distance)
	}

	filter := "none"
	if where != nil {
		filter = where.String()
	}
	c.storage.logger.Debug().
		Str("collection", c.name).
		Str("filter", filter).
		Int("candidates", len(entries)).
		Int("results", result.Len()).
		Msg("Vector query executed")

	return result, nil
}

// Get returns records by id, or the whole collection ordered by id when no id is given
func (c *vectorCollection) Get(ctx context.Context, ids ...string) ([]models.VectorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		entries, err := c.all()
		if err != nil {
			return nil, err
		}
		slices.SortFunc(entries, func(a, b VectorEntry) int {
			switch {
			case a.DocID < b.DocID:
				return -1
			case a.DocID > b.DocID:
				return 1
			default:
				return 0
			}
		})
		records := make([]models.VectorRecord, 0, len(entries))
		for _, entry := range entries {
			records = append(records, toRecord(&entry))
		}
		return records, nil
	}

	records := make([]models.VectorRecord, 0, len(ids))
	for _, id := range ids {
		var entry VectorEntry
		if err := c.storage.db.Store().Get(entryKey(c.name, id), &entry); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get record %s: %w", id, err)
		}
		records = append(records, toRecord(&entry))
	}
	return records, nil
}

// Count returns the number of entries in the collection
func (c *vectorCollection) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := c.storage.db.Store().Count(&VectorEntry{}, badgerhold.Where("Collection").Eq(c.name))
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", c.name, err)
	}
	return int(count), nil
}

func (c *vectorCollection) all() ([]VectorEntry, error) {
	var entries []VectorEntry
	if err := c.storage.db.Store().Find(&entries, badgerhold.Where("Collection").Eq(c.name)); err != nil {
		return nil, fmt.Errorf("failed to scan collection %s: %w", c.name, err)
	}
	return entries, nil
}

func toRecord(entry *VectorEntry) models.VectorRecord {
	return models.VectorRecord{
		ID:       entry.DocID,
		Document: entry.Document,
		Metadata: metadataOrEmpty(entry.Metadata),
	}
}

func metadataOrEmpty(metadata map[string]interface{}) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}

// cosineDistance returns 1 - cos(a, b). Zero vectors are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
