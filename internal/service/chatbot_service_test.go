package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"multimodal-rag-be/internal/dto"
	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/internal/repository/memory"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/chatbot"
	"multimodal-rag-be/pkg/events"
	"multimodal-rag-be/pkg/llm"
	"multimodal-rag-be/pkg/rag/search"
	"multimodal-rag-be/pkg/rag/session"
	"multimodal-rag-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSessionRepo struct {
	mu     sync.Mutex
	states map[string]*store.UserSessionState
}

func (r *memSessionRepo) FindByUserID(_ context.Context, userID string) (*store.UserSessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[userID]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (r *memSessionRepo) Insert(_ context.Context, state *store.UserSessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.UserID] = state.Clone()
	return nil
}

func (r *memSessionRepo) UpdateSessions(_ context.Context, userID string, sessions []store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[userID]
	if !ok {
		return apperror.New(apperror.ErrNotFound, "UpdateSessions", "no state")
	}
	s.ChatSessions = (&store.UserSessionState{UserID: userID, ChatSessions: sessions}).Clone().ChatSessions
	return nil
}

// scriptedProvider echoes the last message and remembers every history it saw.
type scriptedProvider struct {
	mu   sync.Mutex
	seen [][]llm.Message
	err  error
}

func (p *scriptedProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.seen = append(p.seen, llm.CloneMessages(history))
	return "echo: " + history[len(history)-1].Content, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

type stubRAG struct {
	collections []string
}

func (s *stubRAG) Query(ctx context.Context, conv *chatbot.Conversation, coll search.Searchable, query string, image []byte) (string, error) {
	s.collections = append(s.collections, coll.Name())
	return conv.Generate(ctx, "Context: none\nQuestion: "+query, image)
}

type chatFixture struct {
	svc      IChatbotService
	repo     *memSessionRepo
	provider *scriptedProvider
	rag      *stubRAG
	bus      *recordingBus
}

func newChatFixture() *chatFixture {
	log := logger.NewNopLogger()
	f := &chatFixture{
		repo:     &memSessionRepo{states: map[string]*store.UserSessionState{}},
		provider: &scriptedProvider{},
		rag:      &stubRAG{},
		bus:      &recordingBus{},
	}
	sessions := session.NewStore(f.repo, memory.NewStateCache(0, 0), chatbot.DefaultSystemPrompt, log)
	agent := chatbot.NewAgent(f.provider, chatbot.AgentConfig{})
	f.svc = NewChatbotService(sessions, agent, f.rag, testIndex(newMemBackend()), NewActivityPublisher(f.bus, log), log)
	return f
}

func TestSendChatWithoutSessionCreatesOne(t *testing.T) {
	f := newChatFixture()

	resp, err := f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Message)
	assert.NotEmpty(t, resp.SessionID)

	// The new session's seeded system message is replayed on the first turn.
	require.Len(t, f.provider.seen, 1)
	first := f.provider.seen[0]
	require.Len(t, first, 2)
	assert.Equal(t, llm.RoleSystem, first[0].Role)
	assert.Equal(t, chatbot.DefaultSystemPrompt, first[0].Content)

	list, err := f.svc.ListSessions(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, 2, list.Sessions[0].MessagesCount)
	assert.Equal(t, []store.TranscriptEntry{
		{Role: store.TranscriptRoleUser, Text: "hi"},
		{Role: store.TranscriptRoleBot, Text: "echo: hi"},
	}, list.Sessions[0].Messages)
	assert.Equal(t, []string{events.TypeSessionCreated}, f.bus.types())
}

func TestSendChatContinuesHistory(t *testing.T) {
	f := newChatFixture()
	created, err := f.svc.CreateSession(context.Background(), alice)
	require.NoError(t, err)

	id := created.SessionID
	_, err = f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{SessionID: &id, Message: "one"})
	require.NoError(t, err)
	_, err = f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{SessionID: &id, Message: "two"})
	require.NoError(t, err)

	second := f.provider.seen[1]
	require.Len(t, second, 4)
	assert.Equal(t, "one", second[1].Content)
	assert.Equal(t, "echo: one", second[2].Content)
	assert.Equal(t, "two", second[3].Content)
}

func TestSendChatRoutesRAGModes(t *testing.T) {
	f := newChatFixture()

	resp, err := f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{Message: "q", RAGMode: dto.RAGModeUser})
	require.NoError(t, err)
	id := resp.SessionID
	_, err = f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{SessionID: &id, Message: "q", RAGMode: dto.RAGModeAll})
	require.NoError(t, err)

	assert.Equal(t, []string{"multimodal_rag_user_alice_u-1", "multimodal_rag_admin"}, f.rag.collections)

	// The transcript keeps the raw question while the agent saw the prompt.
	list, err := f.svc.ListSessions(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "q", list.Sessions[0].Messages[0].Text)
	assert.Contains(t, f.provider.seen[0][1].Content, "Question: q")
}

func TestSendChatUnknownSession(t *testing.T) {
	f := newChatFixture()
	missing := "does-not-exist"

	_, err := f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{SessionID: &missing, Message: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Empty(t, f.provider.seen)
}

func TestSendChatUnknownModeIsRejected(t *testing.T) {
	f := newChatFixture()

	_, err := f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{Message: "hi", RAGMode: "bogus"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	list, err := f.svc.ListSessions(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, list.Sessions)
}

func TestSendChatGenerationFailureIsNotPersisted(t *testing.T) {
	f := newChatFixture()
	created, err := f.svc.CreateSession(context.Background(), alice)
	require.NoError(t, err)

	f.provider.err = apperror.New(apperror.ErrBackendUnavailable, "Chat", "model offline")
	id := created.SessionID
	_, err = f.svc.SendChat(context.Background(), alice, &dto.SendChatRequest{SessionID: &id, Message: "hi"})
	require.Error(t, err)

	list, err := f.svc.ListSessions(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Zero(t, list.Sessions[0].MessagesCount)
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	f := newChatFixture()
	created, err := f.svc.CreateSession(context.Background(), alice)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSession(context.Background(), alice, created.SessionID))
	require.NoError(t, f.svc.DeleteSession(context.Background(), alice, created.SessionID))

	list, err := f.svc.ListSessions(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, list.Sessions)
	assert.Equal(t, []string{events.TypeSessionCreated, events.TypeSessionDeleted}, f.bus.types())
}
