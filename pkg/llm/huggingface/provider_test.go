package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"multimodal-rag-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendsImagesAsDataURLs(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a cat"}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("", srv.URL, "vision-model")
	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "what is this", Images: [][]byte{[]byte("GIF89a")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a cat", reply)

	msgs := captured["messages"].([]any)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/gif;base64,"))
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("", srv.URL, "m").Generate(context.Background(), "hi")
	assert.Error(t, err)
}
