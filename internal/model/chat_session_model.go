package model

import (
	"time"

	"github.com/google/uuid"
)

// Sessions are hard-deleted; there is deliberately no gorm.DeletedAt here.
type ChatSession struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title      string    `gorm:"type:text;not null"`
	ShareToken *string   `gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
