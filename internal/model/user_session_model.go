package model

import (
	"time"

	"gorm.io/datatypes"
)

type UserSessionState struct {
	UserId       string         `gorm:"type:varchar(64);primaryKey"`
	Username     string         `gorm:"type:varchar(255);not null"`
	ChatSessions datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (UserSessionState) TableName() string {
	return "user_session_states"
}
