package factory

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	base, _ := url.Parse("http://localhost:11434")
	client := api.NewClient(base, http.DefaultClient)

	p, err := NewLLMProvider("ollama", "llama3.2-vision", client, "")
	require.NoError(t, err)
	assert.NotNil(t, p)

	p, err = NewLLMProvider("huggingface", "meta-llama/Llama-3.2-3B-Instruct", nil, "hf_key")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewLLMProvider("ollama", "x", nil, "")
	assert.Error(t, err)

	_, err = NewLLMProvider("gemini", "x", nil, "")
	assert.Error(t, err)
}
