package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"multimodal-rag-be/pkg/apperror"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	UserSessionsCollection = "user_sessions"
	FilesCollection        = "files"
)

// Connect opens a client and pings it so a bad URI fails at startup.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, apperror.New(apperror.ErrConfiguration, "mongostore.Connect", "empty MONGO_URI")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrConfiguration, "mongostore.Connect", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperror.Wrap(apperror.ErrBackendUnavailable, "mongostore.Connect", err)
	}
	return client, nil
}

// storeErr wraps connectivity failures as ErrBackendUnavailable. Decode,
// duplicate key and command errors stay plain internal errors.
func storeErr(op string, err error) error {
	if apperror.IsTransport(err) ||
		mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return apperror.Wrap(apperror.ErrBackendUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
