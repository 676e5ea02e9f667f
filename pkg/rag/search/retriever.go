package search

import (
	"context"
	"time"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/embedding"
	"multimodal-rag-be/pkg/store"
	"multimodal-rag-be/pkg/vectorstore"
)

const (
	logModule   = "Retriever"
	DefaultTopK = 10
)

// Searchable is the raw nearest-neighbor primitive of a bound collection.
type Searchable interface {
	Name() string
	Query(ctx context.Context, vector []float32, limit int) ([]vectorstore.Hit, error)
}

// Retriever answers "top-k similar fragments" for a query.
type Retriever struct {
	batcher *embedding.Batcher
	logger  logger.ILogger
}

func NewRetriever(batcher *embedding.Batcher, log logger.ILogger) *Retriever {
	return &Retriever{
		batcher: batcher,
		logger:  log,
	}
}

// Search embeds query and returns raw hits from coll. Vector store failures
// are logged and degrade to an empty result; embedding failures are returned.
func (r *Retriever) Search(ctx context.Context, coll Searchable, query string, topK int) ([]store.RetrievedDoc, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.batcher.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	hits, err := coll.Query(ctx, vector, topK)
	if err != nil {
		r.logger.Error(logModule, "Vector search failed, continuing without context", map[string]interface{}{
			"collection": coll.Name(),
			"error":      err.Error(),
		})
		return nil, nil
	}

	r.logger.Debug(logModule, "Vector search completed", map[string]interface{}{
		"collection": coll.Name(),
		"hits":       len(hits),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	docs := make([]store.RetrievedDoc, len(hits))
	for i, h := range hits {
		docs[i] = store.RetrievedDoc{
			Payload:    h.Payload,
			Similarity: h.Score,
		}
	}
	return docs, nil
}
