package service

import (
	"context"
	"time"

	"multimodal-rag-be/internal/dto"
	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/chatbot"
	"multimodal-rag-be/pkg/events"
	"multimodal-rag-be/pkg/rag/search"
	"multimodal-rag-be/pkg/rag/session"
	"multimodal-rag-be/pkg/store"
	"multimodal-rag-be/pkg/vectorstore"
)

const chatbotModule = "ChatbotService"

// IChatbotService defines the chatbot service interface
type IChatbotService interface {
	CreateSession(ctx context.Context, caller dto.Caller) (*dto.CreateSessionResponse, error)
	ListSessions(ctx context.Context, caller dto.Caller) (*dto.ListSessionsResponse, error)
	SendChat(ctx context.Context, caller dto.Caller, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, caller dto.Caller, sessionID string) error
}

// RAGQuerier answers a turn of conv using context from coll.
type RAGQuerier interface {
	Query(ctx context.Context, conv *chatbot.Conversation, coll search.Searchable, query string, image []byte) (string, error)
}

type chatbotService struct {
	sessions  *session.Store
	agent     *chatbot.Agent
	rag       RAGQuerier
	index     *vectorstore.Index
	publisher *ActivityPublisher
	logger    logger.ILogger
}

func NewChatbotService(
	sessions *session.Store,
	agent *chatbot.Agent,
	rag RAGQuerier,
	index *vectorstore.Index,
	publisher *ActivityPublisher,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		sessions:  sessions,
		agent:     agent,
		rag:       rag,
		index:     index,
		publisher: publisher,
		logger:    log,
	}
}

// CreateSession creates a new chat session
func (cs *chatbotService) CreateSession(ctx context.Context, caller dto.Caller) (*dto.CreateSessionResponse, error) {
	var sessionID string
	_, err := cs.sessions.Commit(ctx, caller.UserID, caller.Username, func(state *store.UserSessionState) error {
		sessionID = cs.sessions.CreateSession(state, nil).SessionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	cs.publisher.Publish(ctx, events.SessionCreated(caller.UserID, sessionID, time.Now()))
	return &dto.CreateSessionResponse{SessionID: sessionID}, nil
}

// ListSessions returns every session with its display transcript.
func (cs *chatbotService) ListSessions(ctx context.Context, caller dto.Caller) (*dto.ListSessionsResponse, error) {
	state, err := cs.sessions.GetOrCreateUserState(ctx, caller.UserID, caller.Username)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListSessionsResponse{Sessions: make([]dto.SessionSummary, 0, len(state.ChatSessions))}
	for _, s := range state.ChatSessions {
		msgs := s.Messages
		if msgs == nil {
			msgs = []store.TranscriptEntry{}
		}
		resp.Sessions = append(resp.Sessions, dto.SessionSummary{
			SessionID:     s.SessionID,
			MessagesCount: len(msgs),
			Messages:      msgs,
		})
	}
	return resp, nil
}

// SendChat runs one turn. Without a session id a new session is created and
// answered from its seeded history. The turn is persisted only on success.
func (cs *chatbotService) SendChat(ctx context.Context, caller dto.Caller, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	mode := request.RAGMode
	if mode == "" {
		mode = dto.RAGModeNone
	}

	var (
		reply     string
		sessionID string
		created   bool
	)
	_, err := cs.sessions.Commit(ctx, caller.UserID, caller.Username, func(state *store.UserSessionState) error {
		conv := chatbot.NewConversation(cs.agent, "")

		target := request.SessionID
		if target == nil {
			id := cs.sessions.CreateSession(state, conv).SessionID
			target = &id
			created = true
		}
		sess, err := cs.sessions.FindSession(state, *target, conv)
		if err != nil {
			return err
		}
		sessionID = sess.SessionID

		reply, err = cs.answer(ctx, caller, mode, conv, request)
		if err != nil {
			return err
		}

		cs.sessions.AppendTurn(sess, request.Message, reply, conv)
		return nil
	})
	if err != nil {
		cs.logger.Error(chatbotModule, "Chat turn failed", map[string]interface{}{
			"user_id":  caller.UserID,
			"rag_mode": mode,
			"error":    err.Error(),
		})
		return nil, err
	}

	if created {
		cs.publisher.Publish(ctx, events.SessionCreated(caller.UserID, sessionID, time.Now()))
	}
	return &dto.SendChatResponse{Message: reply, SessionID: sessionID}, nil
}

func (cs *chatbotService) answer(ctx context.Context, caller dto.Caller, mode string, conv *chatbot.Conversation, request *dto.SendChatRequest) (string, error) {
	var scope vectorstore.Scope
	switch mode {
	case dto.RAGModeNone:
		return conv.Generate(ctx, request.Message, request.Image)
	case dto.RAGModeUser:
		scope = vectorstore.UserScope(caller.Username, caller.UserID)
	case dto.RAGModeAll:
		scope = vectorstore.GlobalScope()
	default:
		return "", apperror.New(apperror.ErrValidation, "ChatbotService.SendChat", "unknown rag_mode "+mode)
	}

	coll := cs.index.Open(cs.index.CollectionFor(scope))
	return cs.rag.Query(ctx, conv, coll, request.Message, request.Image)
}

// DeleteSession is idempotent.
func (cs *chatbotService) DeleteSession(ctx context.Context, caller dto.Caller, sessionID string) error {
	var removed bool
	_, err := cs.sessions.Commit(ctx, caller.UserID, caller.Username, func(state *store.UserSessionState) error {
		removed = cs.sessions.DeleteSession(state, sessionID)
		return nil
	})
	if err != nil {
		return err
	}

	if removed {
		cs.publisher.Publish(ctx, events.SessionDeleted(caller.UserID, sessionID, time.Now()))
	}
	return nil
}
