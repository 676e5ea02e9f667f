package chatbot

import (
	"context"

	"multimodal-rag-be/pkg/llm"
)

// Conversation is a per-request working copy of an agent history.
// It is not safe for concurrent use.
type Conversation struct {
	agent   *Agent
	history []llm.Message
}

// NewConversation starts a history seeded with system when it is non-empty.
func NewConversation(agent *Agent, system string) *Conversation {
	c := &Conversation{agent: agent, history: []llm.Message{}}
	if system != "" {
		c.history = append(c.history, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	return c
}

// Generate sends text (and an optional image) as the next user turn.
func (c *Conversation) Generate(ctx context.Context, text string, image []byte) (string, error) {
	msg := llm.Message{Role: llm.RoleUser, Content: text}
	if len(image) > 0 {
		msg.Images = [][]byte{image}
	}

	reply, next, err := c.agent.Generate(ctx, c.history, msg)
	if err != nil {
		return "", err
	}
	c.history = next
	return reply.Content, nil
}

// History returns a copy of the working history.
func (c *Conversation) History() []llm.Message {
	return llm.CloneMessages(c.history)
}

// SetHistory replaces the working history with a copy of h.
func (c *Conversation) SetHistory(h []llm.Message) {
	c.history = llm.CloneMessages(h)
}
