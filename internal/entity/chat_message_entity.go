package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	// Meta holds provider-side details (model id, block reason). Advisory
	// only, never read back for control flow.
	Meta      map[string]interface{}
	CreatedAt time.Time
}
