package contract

import (
	"context"

	"multimodal-rag-be/pkg/store"
)

// UserStateCache fronts UserSessionRepository. Implementations hand out
// copies; a value that fails store.UserSessionState.Valid is reported as
// a miss.
type UserStateCache interface {
	Get(ctx context.Context, userID string) (*store.UserSessionState, bool)
	Set(ctx context.Context, state *store.UserSessionState)
	Delete(ctx context.Context, userID string)
}
