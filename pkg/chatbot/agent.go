package chatbot

import (
	"context"
	"fmt"

	"multimodal-rag-be/pkg/llm"
)

const (
	DefaultSystemPrompt = "You are an expert in the field of AI Research and current AI Trends."

	imageSummaryPrompt = "Summarize the image:"
	tableSummaryPrompt = "Summarize this table: %s"
)

// AgentConfig selects the models used for chat and for ingestion-time summaries.
type AgentConfig struct {
	ChatModel   string
	VisionModel string
	TableModel  string
}

// Agent is a stateless generation wrapper. History is threaded explicitly
// through Generate so no state is shared between requests.
type Agent struct {
	provider llm.LLMProvider
	cfg      AgentConfig
}

func NewAgent(provider llm.LLMProvider, cfg AgentConfig) *Agent {
	return &Agent{
		provider: provider,
		cfg:      cfg,
	}
}

// Generate appends msg to a copy of history, calls the backend with the full
// history and returns the reply plus the extended history. On error the
// caller's history is untouched.
func (a *Agent) Generate(ctx context.Context, history []llm.Message, msg llm.Message) (llm.Message, []llm.Message, error) {
	next := llm.CloneMessages(history)
	next = append(next, msg)

	var opts []llm.Option
	if a.cfg.ChatModel != "" {
		opts = append(opts, llm.WithModel(a.cfg.ChatModel))
	}

	content, err := a.provider.Chat(ctx, next, opts...)
	if err != nil {
		return llm.Message{}, history, fmt.Errorf("generate: %w", err)
	}

	reply := llm.Message{Role: llm.RoleAssistant, Content: content}
	next = append(next, reply)
	return reply, next, nil
}

// SummarizeImage is a one-shot call used during ingestion.
func (a *Agent) SummarizeImage(ctx context.Context, image []byte) (string, error) {
	msg := llm.Message{Role: llm.RoleUser, Content: imageSummaryPrompt, Images: [][]byte{image}}
	return a.oneShot(ctx, msg, a.cfg.VisionModel)
}

// SummarizeTable is a one-shot call used during ingestion.
func (a *Agent) SummarizeTable(ctx context.Context, tableHTML string) (string, error) {
	msg := llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf(tableSummaryPrompt, tableHTML)}
	return a.oneShot(ctx, msg, a.cfg.TableModel)
}

func (a *Agent) oneShot(ctx context.Context, msg llm.Message, model string) (string, error) {
	var opts []llm.Option
	if model != "" {
		opts = append(opts, llm.WithModel(model))
	}
	return a.provider.Chat(ctx, []llm.Message{msg}, opts...)
}
