package implementation

import (
	"context"
	"errors"

	"multimodal-rag-be/internal/mapper"
	"multimodal-rag-be/internal/model"
	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/store"

	"gorm.io/gorm"
)

type UserSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionStateMapper
}

func NewUserSessionRepository(db *gorm.DB) contract.UserSessionRepository {
	return &UserSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionStateMapper(),
	}
}

func (r *UserSessionRepositoryImpl) FindByUserID(ctx context.Context, userID string) (*store.UserSessionState, error) {
	var m model.UserSessionState
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.Wrap(apperror.ErrBackendUnavailable, "UserSessionRepository.FindByUserID", err)
	}
	return r.mapper.ToState(&m)
}

func (r *UserSessionRepositoryImpl) Insert(ctx context.Context, state *store.UserSessionState) error {
	m, err := r.mapper.ToModel(state)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperror.Wrap(apperror.ErrBackendUnavailable, "UserSessionRepository.Insert", err)
	}
	return nil
}

func (r *UserSessionRepositoryImpl) UpdateSessions(ctx context.Context, userID string, sessions []store.Session) error {
	raw, err := r.mapper.EncodeSessions(sessions)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&model.UserSessionState{}).
		Where("user_id = ?", userID).
		Update("chat_sessions", raw)
	if res.Error != nil {
		return apperror.Wrap(apperror.ErrBackendUnavailable, "UserSessionRepository.UpdateSessions", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.New(apperror.ErrNotFound, "UserSessionRepository.UpdateSessions", "no session state for user")
	}
	return nil
}
