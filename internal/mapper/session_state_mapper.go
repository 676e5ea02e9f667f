package mapper

import (
	"encoding/json"

	"multimodal-rag-be/internal/model"
	"multimodal-rag-be/pkg/store"

	"gorm.io/datatypes"
)

type SessionStateMapper struct{}

func NewSessionStateMapper() *SessionStateMapper {
	return &SessionStateMapper{}
}

func (m *SessionStateMapper) EncodeSessions(sessions []store.Session) (datatypes.JSON, error) {
	if sessions == nil {
		sessions = []store.Session{}
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (m *SessionStateMapper) ToModel(s *store.UserSessionState) (*model.UserSessionState, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := m.EncodeSessions(s.ChatSessions)
	if err != nil {
		return nil, err
	}
	return &model.UserSessionState{
		UserId:       s.UserID,
		Username:     s.Username,
		ChatSessions: raw,
	}, nil
}

func (m *SessionStateMapper) ToState(row *model.UserSessionState) (*store.UserSessionState, error) {
	if row == nil {
		return nil, nil
	}
	sessions := []store.Session{}
	if len(row.ChatSessions) > 0 {
		if err := json.Unmarshal(row.ChatSessions, &sessions); err != nil {
			return nil, err
		}
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	return &store.UserSessionState{
		UserID:       row.UserId,
		Username:     row.Username,
		ChatSessions: sessions,
	}, nil
}
