package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"multimodal-rag-be/pkg/apperror"
)

const DefaultModel = "BAAI/bge-reranker-base"

// Scorer calls a hosted sequence-classification endpoint and returns raw
// logits, one per input pair.
type Scorer struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type scoreRequest struct {
	Inputs     []string       `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

func NewScorer(apiKey, baseURL, model string) *Scorer {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/hf-inference/models"
	}
	if model == "" {
		model = DefaultModel
	}
	return &Scorer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Scorer) Score(ctx context.Context, pairs []string) ([]float32, error) {
	if len(pairs) == 0 {
		return []float32{}, nil
	}

	jsonData, err := json.Marshal(scoreRequest{
		Inputs:     pairs,
		Parameters: map[string]any{"function_to_apply": "none"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrBackendUnavailable, "reranker.Score", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return decodeScores(bodyBytes, len(pairs))
}

// The endpoint answers either one label list per input or a flat list with
// one entry per input, depending on the deployment.
func decodeScores(body []byte, n int) ([]float32, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) == n {
		out := make([]float32, n)
		for i, labels := range nested {
			if len(labels) == 0 {
				return nil, fmt.Errorf("no score for input %d", i)
			}
			out[i] = labels[0].Score
		}
		return out, nil
	}

	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(flat) != n {
		return nil, fmt.Errorf("expected %d scores, got %d", n, len(flat))
	}
	out := make([]float32, n)
	for i, ls := range flat {
		out[i] = ls.Score
	}
	return out, nil
}
