package interfaces

import (
	"context"
)

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// Generate embedding for a document or query text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int
}
