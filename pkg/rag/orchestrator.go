package rag

import (
	"context"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/chatbot"
	"multimodal-rag-be/pkg/rag/prompt"
	"multimodal-rag-be/pkg/rag/rerank"
	"multimodal-rag-be/pkg/rag/search"
)

const logModule = "RAGOrchestrator"

// Orchestrator answers a query with retrieved and reranked context.
type Orchestrator struct {
	retriever *search.Retriever
	reranker  *rerank.Reranker
	builder   *prompt.QABuilder
	topK      int
	logger    logger.ILogger
}

func NewOrchestrator(
	retriever *search.Retriever,
	reranker *rerank.Reranker,
	builder *prompt.QABuilder,
	topK int,
	log logger.ILogger,
) *Orchestrator {
	if topK <= 0 {
		topK = search.DefaultTopK
	}
	return &Orchestrator{
		retriever: retriever,
		reranker:  reranker,
		builder:   builder,
		topK:      topK,
		logger:    log,
	}
}

// GenerateContext retrieves, reranks and joins surviving contexts in
// reranked order.
func (o *Orchestrator) GenerateContext(ctx context.Context, coll search.Searchable, query string) (string, error) {
	docs, err := o.retriever.Search(ctx, coll, query, o.topK)
	if err != nil {
		return "", err
	}

	reranked, err := o.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return "", err
	}

	contexts := make([]string, len(reranked))
	for i, d := range reranked {
		contexts[i] = d.Payload.Context
	}

	o.logger.Info(logModule, "Context assembled", map[string]interface{}{
		"collection": coll.Name(),
		"retrieved":  len(docs),
		"used":       len(contexts),
	})
	return prompt.JoinContexts(contexts), nil
}

// Query fills the QA template and sends it (with an optional image) as the
// next turn of conv. The reply is returned unmodified.
func (o *Orchestrator) Query(ctx context.Context, conv *chatbot.Conversation, coll search.Searchable, query string, image []byte) (string, error) {
	contextText, err := o.GenerateContext(ctx, coll, query)
	if err != nil {
		return "", err
	}
	return conv.Generate(ctx, o.builder.Build(contextText, query), image)
}
