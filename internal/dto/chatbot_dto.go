package dto

import (
	"strings"

	"multimodal-rag-be/pkg/store"
)

// Retrieval modes accepted on a chat turn.
const (
	RAGModeNone = "no-rag"
	RAGModeUser = "user"
	RAGModeAll  = "all"
)

// Caller is the authenticated principal taken from the JWT.
type Caller struct {
	UserID   string
	Username string
	IsAdmin  bool
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type SessionSummary struct {
	SessionID     string                  `json:"session_id"`
	MessagesCount int                     `json:"messages_count"`
	Messages      []store.TranscriptEntry `json:"messages"`
}

type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

type SendChatRequest struct {
	// SessionID is nil when the client wants a new session.
	SessionID *string
	Message   string `validate:"required"`
	RAGMode   string `validate:"omitempty,oneof=no-rag user all"`
	Image     []byte
}

type SendChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// NormalizeSessionRef maps the ways clients say "no session" to nil.
func NormalizeSessionRef(raw string) *string {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", "null", "none", "undefined":
		return nil
	}
	return &v
}
