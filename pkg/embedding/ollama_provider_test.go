package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedClient struct {
	lastInput []string
}

func (f *fakeEmbedClient) Embed(_ context.Context, req *api.EmbedRequest) (*api.EmbedResponse, error) {
	f.lastInput = req.Input.([]string)
	out := make([][]float32, len(f.lastInput))
	for i := range out {
		out[i] = []float32{3, 4}
	}
	return &api.EmbedResponse{Model: req.Model, Embeddings: out}, nil
}

func TestOllamaProviderPrefixesAndNormalizes(t *testing.T) {
	client := &fakeEmbedClient{}
	p := &OllamaProvider{client: client, Model: "nomic-embed-text"}

	vectors, err := p.EmbedBatch(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"search_document: hello"}, client.lastInput)
	assert.InDelta(t, 0.6, vectors[0][0], 1e-6)
	assert.InDelta(t, 0.8, vectors[0][1], 1e-6)

	_, err = p.EmbedQuery(context.Background(), "what")
	require.NoError(t, err)
	assert.Equal(t, []string{"search_query: what"}, client.lastInput)
}

func TestOllamaProviderNoPrefixForOtherModels(t *testing.T) {
	client := &fakeEmbedClient{}
	p := &OllamaProvider{client: client, Model: "mxbai-embed-large"}

	_, err := p.EmbedQuery(context.Background(), "what")
	require.NoError(t, err)
	assert.Equal(t, []string{"what"}, client.lastInput)
}

func TestNormalizeVector(t *testing.T) {
	v := normalizeVector([]float32{1, 2, 2})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	zero := normalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
