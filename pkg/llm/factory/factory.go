package factory

import (
	"fmt"

	"multimodal-rag-be/pkg/llm"
	"multimodal-rag-be/pkg/llm/huggingface"
	"multimodal-rag-be/pkg/llm/ollama"

	"github.com/ollama/ollama/api"
)

func NewLLMProvider(providerType, modelName string, ollamaClient *api.Client, hfAPIKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if ollamaClient == nil {
			return nil, fmt.Errorf("ollama provider requires a client")
		}
		return ollama.NewOllamaProvider(ollamaClient, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(hfAPIKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
