package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/embedding"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ embedding.EmbeddingProvider = (*JinaProvider)(nil)

type embeddingRequest struct {
	Model string   `json:"model"`
	Task  string   `json:"task,omitempty"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey, baseURL, model string) *JinaProvider {
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1/embeddings"
	}
	if model == "" {
		model = "jina-embeddings-v2-base-en"
	}
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *JinaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return p.embed(ctx, texts, "retrieval.passage")
}

func (p *JinaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.embed(ctx, []string{text}, "retrieval.query")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *JinaProvider) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Model: p.model,
		Input: texts,
	}
	// v2 models reject the task field
	if p.model != "jina-embeddings-v2-base-en" {
		reqBody.Task = task
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrBackendUnavailable, "jina.Embed", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.New(apperror.ErrEmbeddingFailure, "jina.Embed",
			fmt.Sprintf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes)))
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, apperror.Wrap(apperror.ErrEmbeddingFailure, "jina.Embed", err)
	}

	if jinaResp.Error != nil {
		return nil, apperror.New(apperror.ErrEmbeddingFailure, "jina.Embed", jinaResp.Error.Message)
	}

	if len(jinaResp.Data) != len(texts) {
		return nil, apperror.New(apperror.ErrEmbeddingFailure, "jina.Embed",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(jinaResp.Data)))
	}

	// Results carry their input index; order is not guaranteed
	sort.SliceStable(jinaResp.Data, func(i, j int) bool {
		return jinaResp.Data[i].Index < jinaResp.Data[j].Index
	})

	out := make([][]float32, len(jinaResp.Data))
	for i, d := range jinaResp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
