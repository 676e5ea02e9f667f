package rerank

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/store"
)

const (
	logModule        = "Reranker"
	DefaultThreshold = 0.7
	pairTemplate     = "Query: %s Document: %s"
)

// Scorer is a cross-encoder scoring all pairs in one batched call.
type Scorer interface {
	Score(ctx context.Context, pairs []string) ([]float32, error)
}

type Reranker struct {
	scorer    Scorer
	threshold float32
	logger    logger.ILogger
}

func NewReranker(scorer Scorer, threshold float32, log logger.ILogger) *Reranker {
	return &Reranker{
		scorer:    scorer,
		threshold: threshold,
		logger:    log,
	}
}

// Rerank scores docs against query, orders them by descending score (stable
// among ties) and drops everything under the threshold. An empty result
// means no relevant context.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []store.RetrievedDoc) ([]store.RetrievedDoc, error) {
	if len(docs) == 0 {
		return []store.RetrievedDoc{}, nil
	}

	pairs := make([]string, len(docs))
	for i, d := range docs {
		pairs[i] = fmt.Sprintf(pairTemplate, query, d.Payload.Context)
	}

	scores, err := r.scorer.Score(ctx, pairs)
	if err != nil {
		if errors.Is(err, apperror.ErrBackendUnavailable) {
			return nil, err
		}
		return nil, apperror.Wrap(apperror.ErrRerankFailure, "Rerank", err)
	}
	if len(scores) != len(docs) {
		return nil, apperror.New(apperror.ErrRerankFailure, "Rerank",
			fmt.Sprintf("scorer returned %d scores for %d documents", len(scores), len(docs)))
	}

	scored := make([]store.RetrievedDoc, len(docs))
	for i, d := range docs {
		scored[i] = d
		scored[i].Score = scores[i]
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	kept := make([]store.RetrievedDoc, 0, len(scored))
	for _, d := range scored {
		if d.Score >= r.threshold {
			kept = append(kept, d)
		}
	}

	r.logger.Debug(logModule, "Reranked candidates", map[string]interface{}{
		"candidates": len(docs),
		"kept":       len(kept),
		"threshold":  r.threshold,
	})
	return kept, nil
}
