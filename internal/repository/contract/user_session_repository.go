package contract

import (
	"context"

	"multimodal-rag-be/pkg/store"
)

// UserSessionRepository is the durable side of the session store. One
// document per user, keyed by user id.
type UserSessionRepository interface {
	// FindByUserID returns nil, nil when the user has no state yet.
	FindByUserID(ctx context.Context, userID string) (*store.UserSessionState, error)
	Insert(ctx context.Context, state *store.UserSessionState) error
	// UpdateSessions replaces the chat_sessions field wholesale.
	UpdateSessions(ctx context.Context, userID string, sessions []store.Session) error
}
