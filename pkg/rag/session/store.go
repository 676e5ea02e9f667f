package session

import (
	"context"
	"time"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/chatbot"
	"multimodal-rag-be/pkg/llm"
	"multimodal-rag-be/pkg/store"

	"github.com/google/uuid"
)

const logModule = "SessionStore"

// Store manages per-user chat sessions. The repository is authoritative;
// the cache is refreshed on every read miss and after every commit.
type Store struct {
	repo         contract.UserSessionRepository
	cache        contract.UserStateCache
	systemPrompt string
	locks        *keyedMutex
	logger       logger.ILogger
	now          func() time.Time
}

func NewStore(
	repo contract.UserSessionRepository,
	cache contract.UserStateCache,
	systemPrompt string,
	log logger.ILogger,
) *Store {
	return &Store{
		repo:         repo,
		cache:        cache,
		systemPrompt: systemPrompt,
		locks:        newKeyedMutex(),
		logger:       log,
		now:          time.Now,
	}
}

// GetOrCreateUserState reads through the cache, then the repository, and
// inserts an empty state for first-time users.
func (s *Store) GetOrCreateUserState(ctx context.Context, userID, username string) (*store.UserSessionState, error) {
	if state, ok := s.cache.Get(ctx, userID); ok {
		return state, nil
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.load(ctx, userID, username)
}

// load must be called with userID's lock held.
func (s *Store) load(ctx context.Context, userID, username string) (*store.UserSessionState, error) {
	if userID == "" {
		return nil, apperror.New(apperror.ErrValidation, "SessionStore.GetOrCreateUserState", "user id is required")
	}

	if state, ok := s.cache.Get(ctx, userID); ok {
		return state, nil
	}

	state, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &store.UserSessionState{
			UserID:       userID,
			Username:     username,
			ChatSessions: []store.Session{},
		}
		if err := s.repo.Insert(ctx, state); err != nil {
			return nil, err
		}
		s.logger.Info(logModule, "Created user session state", map[string]interface{}{
			"user_id": userID,
		})
	}
	if state.ChatSessions == nil {
		state.ChatSessions = []store.Session{}
	}

	s.cache.Set(ctx, state)
	return state, nil
}

// FindSession locates sessionID in state and loads its agent history into
// conv. The returned pointer aliases state.ChatSessions.
func (s *Store) FindSession(state *store.UserSessionState, sessionID string, conv *chatbot.Conversation) (*store.Session, error) {
	idx := state.IndexOf(sessionID)
	if idx < 0 {
		return nil, apperror.New(apperror.ErrNotFound, "SessionStore.FindSession", "Invalid session ID")
	}
	sess := &state.ChatSessions[idx]
	if conv != nil {
		conv.SetHistory(sess.AgentHistory)
	}
	return sess, nil
}

// CreateSession appends a fresh session seeded with the system message.
// conv, when given, is reset to an empty history.
func (s *Store) CreateSession(state *store.UserSessionState, conv *chatbot.Conversation) *store.Session {
	state.ChatSessions = append(state.ChatSessions, store.Session{
		SessionID: uuid.NewString(),
		Messages:  []store.TranscriptEntry{},
		AgentHistory: []llm.Message{
			{Role: llm.RoleSystem, Content: s.systemPrompt},
		},
		CreatedAt: s.now().UTC(),
	})
	if conv != nil {
		conv.SetHistory(nil)
	}
	return &state.ChatSessions[len(state.ChatSessions)-1]
}

// AppendTurn records one user/bot exchange and snapshots conv's history.
func (s *Store) AppendTurn(sess *store.Session, userText, botText string, conv *chatbot.Conversation) {
	sess.Messages = append(sess.Messages,
		store.TranscriptEntry{Role: store.TranscriptRoleUser, Text: userText},
		store.TranscriptEntry{Role: store.TranscriptRoleBot, Text: botText},
	)
	sess.AgentHistory = conv.History()
}

// DeleteSession removes sessionID and reports whether it was present.
func (s *Store) DeleteSession(state *store.UserSessionState, sessionID string) bool {
	idx := state.IndexOf(sessionID)
	if idx < 0 {
		return false
	}
	state.ChatSessions = append(state.ChatSessions[:idx], state.ChatSessions[idx+1:]...)
	return true
}

// Commit runs fn against a fresh copy of the user's state while holding
// that user's lock, then writes the repository and the cache. Nothing is
// persisted when fn fails.
func (s *Store) Commit(ctx context.Context, userID, username string, fn func(state *store.UserSessionState) error) (*store.UserSessionState, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	state, err := s.load(ctx, userID, username)
	if err != nil {
		return nil, err
	}

	if err := fn(state); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSessions(ctx, userID, state.ChatSessions); err != nil {
		s.cache.Delete(ctx, userID)
		s.logger.Error(logModule, "Failed to persist sessions", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	s.cache.Set(ctx, state)
	return state, nil
}
