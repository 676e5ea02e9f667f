package ollama

import (
	"context"
	"fmt"
	"strings"

	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/llm"

	"github.com/ollama/ollama/api"
)

type chatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

type OllamaProvider struct {
	client    chatClient
	ModelName string
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(client *api.Client, modelName string) *OllamaProvider {
	return &OllamaProvider{
		client:    client,
		ModelName: modelName,
	}
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	messages := make([]api.Message, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages[i] = api.Message{
			Role:    role,
			Content: msg.Content,
		}
		for _, img := range msg.Images {
			messages[i].Images = append(messages[i].Images, api.ImageData(img))
		}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	modelOptions := map[string]any{
		"temperature": options.Temperature,
	}
	if options.MaxTokens > 0 {
		modelOptions["num_predict"] = options.MaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  modelOptions,
	}

	var reply strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		if apperror.IsTransport(err) {
			return "", apperror.Wrap(apperror.ErrBackendUnavailable, "ollama.Chat", err)
		}
		return "", fmt.Errorf("ollama chat (%s): %w", model, err)
	}

	return reply.String(), nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	// Reuse Chat for simplicity as most new LLMs are chat-optimized
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
