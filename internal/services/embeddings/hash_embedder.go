package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/ternarybob/syllabus/internal/interfaces"
)

// HashEmbedderModel is the model name recorded for collections built with the hash embedder
const HashEmbedderModel = "local-hash-v1"

// HashEmbedder is an offline embedding service based on feature hashing.
// Each lowercased word and each of its character trigrams is hashed into one
// of dimension buckets with a hash-derived sign, and the result is
// L2-normalised. Texts sharing vocabulary land close under cosine distance,
// and near spellings ("MCP" vs "mcp servers") still overlap via trigrams.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a hash embedder producing vectors of the given length
func NewHashEmbedder(dimension int) interfaces.EmbeddingService {
	if dimension <= 0 {
		dimension = 768
	}
	return &HashEmbedder{dimension: dimension}
}

// Embed never fails. Text without any word characters yields the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, e.dimension)
	for _, word := range tokenize(text) {
		e.add(vector, "w:"+word, 1.0)

		padded := "^" + word + "$"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			e.add(vector, "t:"+string(runes[i:i+3]), 0.5)
		}
	}

	normalize(vector)
	return vector, nil
}

func (e *HashEmbedder) add(vector []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimension))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vector[bucket] += weight
}

// ModelName returns the model name
func (e *HashEmbedder) ModelName() string {
	return HashEmbedderModel
}

// Dimension returns the embedding dimension
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vector {
		vector[i] /= norm
	}
}
