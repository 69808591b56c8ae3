package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id     uuid.UUID
	UserId uuid.UUID
	Title  string
	// ShareToken, when set, grants anonymous read-only access. Only the
	// most recently issued token resolves.
	ShareToken *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
