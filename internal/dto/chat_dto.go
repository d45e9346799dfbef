package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Chat lifecycle DTOs ---

type CreateChatRequest struct {
	Title string `json:"title" validate:"omitempty,max=255"`
}

type ChatResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// ChatListItemResponse carries the chat plus its most recent message so the
// sidebar can render a preview line without extra requests.
type ChatListItemResponse struct {
	Id            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     *time.Time       `json:"updated_at"`
	LatestMessage *MessageResponse `json:"latest_message,omitempty"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type RenameChatRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

// --- Completion DTOs ---

type CompletionMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type CompletionRequest struct {
	Messages []CompletionMessage `json:"messages" validate:"required,min=1,dive"`
	ChatId   *uuid.UUID          `json:"chat_id"`
}

// PublishExtractPreviewMessage is the queue payload handed to the preview
// extraction consumer after an assistant response lands.
type PublishExtractPreviewMessage struct {
	ChatId    uuid.UUID `json:"chat_id"`
	MessageId uuid.UUID `json:"message_id"`
}

// --- Preview DTOs ---

type PreviewResponse struct {
	ChatId    uuid.UUID `json:"chat_id"`
	Document  string    `json:"document"`
	Blocks    []string  `json:"blocks"`
	UpdatedAt time.Time `json:"updated_at"`
}
