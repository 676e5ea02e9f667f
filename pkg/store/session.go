package store

import (
	"time"

	"multimodal-rag-be/pkg/llm"
)

const (
	TranscriptRoleUser = "user"
	TranscriptRoleBot  = "bot"
)

// TranscriptEntry is one line of the user-facing chat transcript.
type TranscriptEntry struct {
	Role string `json:"role" bson:"role"`
	Text string `json:"text" bson:"text"`
}

// Session is one conversation thread. Messages is the display transcript;
// AgentHistory is the exact sequence replayed to the generation backend.
type Session struct {
	SessionID    string            `json:"session_id" bson:"session_id"`
	Messages     []TranscriptEntry `json:"messages" bson:"messages"`
	AgentHistory []llm.Message     `json:"bot_chat_history" bson:"bot_chat_history"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
}

func (s Session) Clone() Session {
	out := Session{
		SessionID:    s.SessionID,
		Messages:     make([]TranscriptEntry, len(s.Messages)),
		AgentHistory: llm.CloneMessages(s.AgentHistory),
		CreatedAt:    s.CreatedAt,
	}
	copy(out.Messages, s.Messages)
	return out
}

// UserSessionState is the unit of caching and persistence.
type UserSessionState struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	Username     string    `json:"username" bson:"username"`
	ChatSessions []Session `json:"chat_sessions" bson:"chat_sessions"`
}

// Valid reports whether the state is structurally usable. A nil
// ChatSessions list marks a corrupt cache entry.
func (s *UserSessionState) Valid() bool {
	return s != nil && s.UserID != "" && s.ChatSessions != nil
}

func (s *UserSessionState) Clone() *UserSessionState {
	if s == nil {
		return nil
	}
	out := &UserSessionState{
		UserID:       s.UserID,
		Username:     s.Username,
		ChatSessions: make([]Session, len(s.ChatSessions)),
	}
	for i, sess := range s.ChatSessions {
		out.ChatSessions[i] = sess.Clone()
	}
	return out
}

// IndexOf returns the position of sessionID or -1.
func (s *UserSessionState) IndexOf(sessionID string) int {
	for i := range s.ChatSessions {
		if s.ChatSessions[i].SessionID == sessionID {
			return i
		}
	}
	return -1
}
