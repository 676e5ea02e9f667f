package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	// EmbedBatch embeds document fragments, one vector per input in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single search query
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
