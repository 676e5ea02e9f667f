package rag

import (
	"context"
	"strings"
	"testing"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/chatbot"
	"multimodal-rag-be/pkg/embedding"
	"multimodal-rag-be/pkg/llm"
	"multimodal-rag-be/pkg/rag/prompt"
	"multimodal-rag-be/pkg/rag/rerank"
	"multimodal-rag-be/pkg/rag/search"
	"multimodal-rag-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryEmbedder struct{}

func (queryEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (queryEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1}, nil
}

type hitsCollection struct {
	hits []vectorstore.Hit
	err  error
}

func (h hitsCollection) Name() string { return "c" }

func (h hitsCollection) Query(_ context.Context, _ []float32, _ int) ([]vectorstore.Hit, error) {
	return h.hits, h.err
}

type mapScorer map[string]float32

func (m mapScorer) Score(_ context.Context, pairs []string) ([]float32, error) {
	out := make([]float32, len(pairs))
	for i, p := range pairs {
		for ctxText, s := range m {
			if strings.HasSuffix(p, "Document: "+ctxText) {
				out[i] = s
			}
		}
	}
	return out, nil
}

type echoProvider struct {
	last []llm.Message
}

func (e *echoProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	e.last = history
	return "final answer", nil
}

func (e *echoProvider) Generate(ctx context.Context, p string, o ...llm.Option) (string, error) {
	return e.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}}, o...)
}

func newOrchestrator(scores mapScorer) *Orchestrator {
	log := logger.NewNopLogger()
	retriever := search.NewRetriever(embedding.NewBatcher(queryEmbedder{}, 32), log)
	reranker := rerank.NewReranker(scores, rerank.DefaultThreshold, log)
	return NewOrchestrator(retriever, reranker, prompt.NewQABuilder(prompt.QAVersion), 10, log)
}

func hits(contexts ...string) []vectorstore.Hit {
	out := make([]vectorstore.Hit, len(contexts))
	for i, c := range contexts {
		out[i] = vectorstore.Hit{Payload: vectorstore.Payload{Context: c}}
	}
	return out
}

func TestGenerateContextJoinsInScoreOrder(t *testing.T) {
	o := newOrchestrator(mapScorer{"low": 0.75, "high": 3.0, "noise": 0.1})

	out, err := o.GenerateContext(context.Background(), hitsCollection{hits: hits("low", "noise", "high")}, "q")
	require.NoError(t, err)
	assert.Equal(t, "high\n\n---\n\nlow", out)
}

func TestGenerateContextFallback(t *testing.T) {
	o := newOrchestrator(mapScorer{"a": 0.1})

	out, err := o.GenerateContext(context.Background(), hitsCollection{hits: hits("a")}, "q")
	require.NoError(t, err)
	assert.Equal(t, "No relevant documents found", out)

	out, err = o.GenerateContext(context.Background(), hitsCollection{err: apperror.New(apperror.ErrBackendUnavailable, "q", "down")}, "q")
	require.NoError(t, err)
	assert.Equal(t, "No relevant documents found", out)
}

func TestQueryForwardsPromptAndImage(t *testing.T) {
	o := newOrchestrator(mapScorer{"doc": 1.0})
	provider := &echoProvider{}
	conv := chatbot.NewConversation(chatbot.NewAgent(provider, chatbot.AgentConfig{}), chatbot.DefaultSystemPrompt)

	reply, err := o.Query(context.Background(), conv, hitsCollection{hits: hits("doc")}, "what?", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "final answer", reply)

	require.Len(t, provider.last, 2)
	user := provider.last[1]
	assert.Contains(t, user.Content, "\ndoc\n")
	assert.Contains(t, user.Content, "Query: what?")
	assert.Equal(t, [][]byte{[]byte("img")}, user.Images)
	assert.Len(t, conv.History(), 3)
}
