package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/common"
	"github.com/ternarybob/syllabus/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	vector interfaces.VectorStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager. The embedder is used by
// the vector storage to index documents and queries.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, embedder interfaces.EmbeddingService) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		vector: NewVectorStorage(db, embedder, logger),
		logger: logger,
	}

	logger.Info().Str("path", config.Path).Str("embedding_model", embedder.ModelName()).Msg("Badger storage manager initialized")

	return manager, nil
}

// VectorStorage returns the embedding collection storage
func (m *Manager) VectorStorage() interfaces.VectorStorage {
	return m.vector
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
