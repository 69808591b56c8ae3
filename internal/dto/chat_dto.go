package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	// Optional title hint; the default title is used when empty.
	Title string `json:"title" validate:"max=255"`
}

type SessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Shared    bool      `json:"shared"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Shared    bool      `json:"shared"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type GetChatHistoryResponse struct {
	Id       uuid.UUID             `json:"id"`
	Title    string                `json:"title"`
	Messages []ChatMessageResponse `json:"messages"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Content       string    `json:"content" validate:"required"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID            `json:"chat_session_id"`
	ChatSessionTitle string               `json:"title"`
	Sent             *ChatMessageResponse `json:"sent"`
	Reply            *ChatMessageResponse `json:"reply"`
}

type IssueShareTokenResponse struct {
	Token    string `json:"token"`
	ShareUrl string `json:"share_url"`
}

// SharedSessionResponse is the anonymous read-only view: title and
// messages, nothing that identifies the owner.
type SharedSessionResponse struct {
	Title    string                `json:"title"`
	Messages []ChatMessageResponse `json:"messages"`
}
