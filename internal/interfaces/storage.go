package interfaces

// StorageManager owns the embedded database and the storages built on it.
type StorageManager interface {
	VectorStorage() VectorStorage
	DB() interface{}
	Close() error
}
