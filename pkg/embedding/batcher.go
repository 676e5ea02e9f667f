package embedding

import (
	"context"
	"errors"
	"fmt"

	"multimodal-rag-be/pkg/apperror"
)

const DefaultBatchSize = 32

// Batch holds embedded fragments; Contexts[i] was embedded into Embeddings[i].
type Batch struct {
	Contexts   []string
	Embeddings [][]float32
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Contexts)
}

// BatchIterate splits items into consecutive chunks of at most size elements.
func BatchIterate[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// Batcher turns text fragments into vectors in fixed-size batches.
type Batcher struct {
	provider  EmbeddingProvider
	batchSize int
}

func NewBatcher(provider EmbeddingProvider, batchSize int) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Batcher{
		provider:  provider,
		batchSize: batchSize,
	}
}

// Embed embeds every fragment. Any batch failure aborts the call and no
// partial result is returned.
func (b *Batcher) Embed(ctx context.Context, fragments []string) (*Batch, error) {
	result := &Batch{
		Contexts:   make([]string, 0, len(fragments)),
		Embeddings: make([][]float32, 0, len(fragments)),
	}

	for i, chunk := range BatchIterate(fragments, b.batchSize) {
		vectors, err := b.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", i, err)
		}
		result.Contexts = append(result.Contexts, chunk...)
		result.Embeddings = append(result.Embeddings, vectors...)
	}

	return result, nil
}

// GenerateEmbedding embeds one batch through the provider.
func (b *Batcher) GenerateEmbedding(ctx context.Context, batch []string) ([][]float32, error) {
	vectors, err := b.provider.EmbedBatch(ctx, batch)
	if err != nil {
		return nil, asEmbeddingError("GenerateEmbedding", err)
	}
	if len(vectors) != len(batch) {
		return nil, apperror.New(apperror.ErrEmbeddingFailure, "GenerateEmbedding",
			fmt.Sprintf("provider returned %d vectors for %d inputs", len(vectors), len(batch)))
	}
	return vectors, nil
}

// EmbedQuery embeds a single query without batching.
func (b *Batcher) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vector, err := b.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, asEmbeddingError("EmbedQuery", err)
	}
	return vector, nil
}

// Transport failures keep their kind so callers can tell a down backend from a bad model call.
func asEmbeddingError(op string, err error) error {
	if errors.Is(err, apperror.ErrBackendUnavailable) || errors.Is(err, apperror.ErrEmbeddingFailure) {
		return err
	}
	return apperror.Wrap(apperror.ErrEmbeddingFailure, op, err)
}
