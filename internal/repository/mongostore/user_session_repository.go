package mongostore

import (
	"context"
	"errors"
	"fmt"

	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type UserSessionRepository struct {
	coll *mongo.Collection
}

func NewUserSessionRepository(db *mongo.Database) contract.UserSessionRepository {
	return &UserSessionRepository{coll: db.Collection(UserSessionsCollection)}
}

func (r *UserSessionRepository) FindByUserID(ctx context.Context, userID string) (*store.UserSessionState, error) {
	res := r.coll.FindOne(ctx, bson.M{"user_id": userID})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storeErr("mongostore.FindByUserID", err)
	}
	var state store.UserSessionState
	if err := res.Decode(&state); err != nil {
		return nil, fmt.Errorf("mongostore.FindByUserID: decode user %s: %w", userID, err)
	}
	if state.ChatSessions == nil {
		state.ChatSessions = []store.Session{}
	}
	return &state, nil
}

func (r *UserSessionRepository) Insert(ctx context.Context, state *store.UserSessionState) error {
	if _, err := r.coll.InsertOne(ctx, state); err != nil {
		return storeErr("mongostore.Insert", err)
	}
	return nil
}

func (r *UserSessionRepository) UpdateSessions(ctx context.Context, userID string, sessions []store.Session) error {
	if sessions == nil {
		sessions = []store.Session{}
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"chat_sessions": sessions}},
	)
	if err != nil {
		return storeErr("mongostore.UpdateSessions", err)
	}
	if res.MatchedCount == 0 {
		return apperror.New(apperror.ErrNotFound, "mongostore.UpdateSessions", "no session state for user")
	}
	return nil
}
