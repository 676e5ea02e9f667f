package events

import "time"

const (
	TypeFileIngested   = "FILE_INGESTED"
	TypeFileSkipped    = "FILE_SKIPPED"
	TypeSessionCreated = "SESSION_CREATED"
	TypeSessionDeleted = "SESSION_DELETED"
)

func FileIngested(userID, filename, collection string, fragments int, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeFileIngested,
		Data: map[string]interface{}{
			"user_id":    userID,
			"filename":   filename,
			"collection": collection,
			"fragments":  fragments,
		},
		OccurredAt: at,
	}
}

// FileSkipped reports an upload dropped as a duplicate.
func FileSkipped(userID, filename, hash string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeFileSkipped,
		Data: map[string]interface{}{
			"user_id":   userID,
			"filename":  filename,
			"file_hash": hash,
		},
		OccurredAt: at,
	}
}

func SessionCreated(userID, sessionID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       TypeSessionCreated,
		Data:       map[string]interface{}{"user_id": userID, "session_id": sessionID},
		OccurredAt: at,
	}
}

func SessionDeleted(userID, sessionID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       TypeSessionDeleted,
		Data:       map[string]interface{}{"user_id": userID, "session_id": sessionID},
		OccurredAt: at,
	}
}
