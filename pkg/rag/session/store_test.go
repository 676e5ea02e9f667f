package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/internal/repository/memory"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/chatbot"
	"multimodal-rag-be/pkg/llm"
	"multimodal-rag-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	states  map[string]*store.UserSessionState
	finds   int
	inserts int
	updates int
	failUpd error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{states: map[string]*store.UserSessionState{}}
}

func (r *fakeRepo) FindByUserID(_ context.Context, userID string) (*store.UserSessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if s, ok := r.states[userID]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (r *fakeRepo) Insert(_ context.Context, state *store.UserSessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	r.states[state.UserID] = state.Clone()
	return nil
}

func (r *fakeRepo) UpdateSessions(_ context.Context, userID string, sessions []store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpd != nil {
		return r.failUpd
	}
	r.updates++
	s := r.states[userID]
	s.ChatSessions = (&store.UserSessionState{UserID: userID, ChatSessions: sessions}).Clone().ChatSessions
	return nil
}

type echoProvider struct{}

func (echoProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	return "re: " + history[len(history)-1].Content, nil
}

func (p echoProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func newTestStore() (*Store, *fakeRepo) {
	repo := newFakeRepo()
	return NewStore(repo, memory.NewStateCache(0, 0), chatbot.DefaultSystemPrompt, logger.NewNopLogger()), repo
}

func newConv() *chatbot.Conversation {
	return chatbot.NewConversation(chatbot.NewAgent(echoProvider{}, chatbot.AgentConfig{}), "")
}

func TestGetOrCreateUserState_InsertsOnce(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore()

	state, err := s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.NotNil(t, state.ChatSessions)
	assert.Empty(t, state.ChatSessions)

	_, err = s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.inserts)
	assert.Equal(t, 1, repo.finds, "second call must be served by the cache")
}

func TestGetOrCreateUserState_RequiresUserID(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.GetOrCreateUserState(context.Background(), "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	conv := newConv()

	var sessionID string
	state, err := s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
		sess := s.CreateSession(state, conv)
		sessionID = sess.SessionID
		return nil
	})
	require.NoError(t, err)
	require.Len(t, state.ChatSessions, 1)

	created := state.ChatSessions[0]
	assert.Empty(t, created.Messages)
	assert.Equal(t, []llm.Message{{Role: llm.RoleSystem, Content: chatbot.DefaultSystemPrompt}}, created.AgentHistory)
	assert.Empty(t, conv.History())

	_, err = s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
		sess, err := s.FindSession(state, sessionID, conv)
		if err != nil {
			return err
		}
		reply, err := conv.Generate(ctx, "hello", nil)
		if err != nil {
			return err
		}
		s.AppendTurn(sess, "hello", reply, conv)
		return nil
	})
	require.NoError(t, err)

	state, err = s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	sess, err := s.FindSession(state, sessionID, conv)
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 2)
	assert.Equal(t, store.TranscriptEntry{Role: store.TranscriptRoleBot, Text: "re: hello"}, sess.Messages[1])
	require.Len(t, sess.AgentHistory, 3)
	assert.Equal(t, llm.RoleSystem, sess.AgentHistory[0].Role)
	assert.Equal(t, sess.AgentHistory, conv.History())
}

func TestFindSession_RestoresCopy(t *testing.T) {
	s, _ := newTestStore()
	conv := newConv()
	state := &store.UserSessionState{UserID: "u1", ChatSessions: []store.Session{}}
	sess := s.CreateSession(state, conv)

	_, err := s.FindSession(state, sess.SessionID, conv)
	require.NoError(t, err)

	sess.AgentHistory[0].Content = "changed"
	assert.Equal(t, chatbot.DefaultSystemPrompt, conv.History()[0].Content)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	var keep, drop string
	_, err := s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
		keep = s.CreateSession(state, nil).SessionID
		drop = s.CreateSession(state, nil).SessionID
		return nil
	})
	require.NoError(t, err)

	var removed bool
	_, err = s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
		removed = s.DeleteSession(state, drop)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, removed)

	state, err := s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	_, err = s.FindSession(state, drop, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = s.FindSession(state, keep, nil)
	assert.NoError(t, err)

	assert.False(t, s.DeleteSession(state, drop), "second delete is a no-op")
}

func TestCommit_CacheServesUpdatedState(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore()

	_, err := s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
		s.CreateSession(state, nil)
		return nil
	})
	require.NoError(t, err)
	findsAfterCommit := repo.finds

	state, err := s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.Len(t, state.ChatSessions, 1)
	assert.Equal(t, findsAfterCommit, repo.finds)
}

func TestCommit_FailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore()

	_, err := s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
		s.CreateSession(state, nil)
		return errors.New("generation failed")
	})
	require.Error(t, err)
	assert.Zero(t, repo.updates)

	state, err := s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.Empty(t, state.ChatSessions)
}

func TestCommit_PersistFailureEvictsCache(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore()
	_, err := s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)

	repo.failUpd = apperror.New(apperror.ErrBackendUnavailable, "test", "down")
	_, err = s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
		s.CreateSession(state, nil)
		return nil
	})
	assert.ErrorIs(t, err, apperror.ErrBackendUnavailable)

	repo.failUpd = nil
	state, err := s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.Empty(t, state.ChatSessions)
}

func TestCommit_SerializesPerUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Commit(ctx, "u1", "alice", func(state *store.UserSessionState) error {
				s.CreateSession(state, nil)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := s.GetOrCreateUserState(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.Len(t, state.ChatSessions, 20)
}
