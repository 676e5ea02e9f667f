package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"multimodal-rag-be/pkg/apperror"

	"github.com/ollama/ollama/api"
)

const (
	documentPrefix = "search_document: "
	queryPrefix    = "search_query: "
)

type embedClient interface {
	Embed(ctx context.Context, req *api.EmbedRequest) (*api.EmbedResponse, error)
}

// OllamaProvider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	client embedClient
	Model  string
}

func NewOllamaProvider(client *api.Client, model string) *OllamaProvider {
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		client: client,
		Model:  model,
	}
}

func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = p.withPrefix(documentPrefix, t)
	}

	vectors, err := p.embed(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, apperror.New(apperror.ErrEmbeddingFailure, "ollama.EmbedBatch",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}

func (p *OllamaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.embed(ctx, []string{p.withPrefix(queryPrefix, text)})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, apperror.New(apperror.ErrEmbeddingFailure, "ollama.EmbedQuery", "empty embedding response")
	}
	return vectors[0], nil
}

func (p *OllamaProvider) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := p.client.Embed(ctx, &api.EmbedRequest{
		Model:     p.Model,
		Input:     inputs,
		KeepAlive: &api.Duration{Duration: 60 * time.Minute},
	})
	if err != nil {
		if apperror.IsTransport(err) {
			return nil, apperror.Wrap(apperror.ErrBackendUnavailable, "ollama.Embed", err)
		}
		return nil, apperror.Wrap(apperror.ErrEmbeddingFailure, "ollama.Embed", err)
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, v := range resp.Embeddings {
		// Inner product search in the vector store assumes unit vectors
		out[i] = normalizeVector(v)
	}
	return out, nil
}

// nomic models are trained with task prefixes; other models get the raw text
func (p *OllamaProvider) withPrefix(prefix, text string) string {
	if strings.Contains(p.Model, "nomic") {
		return prefix + text
	}
	return text
}

// normalizeVector normalizes a vector to unit length (magnitude = 1)
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
