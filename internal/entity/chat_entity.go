package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Message rows are immutable once written; a chat's history is its
// messages ordered by CreatedAt ascending.
type Message struct {
	Id        uuid.UUID
	ChatId    uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// Preview is the standalone HTML document synthesized from the fenced
// code blocks of a chat's latest assistant message. One per chat,
// latest extraction wins.
type Preview struct {
	Id        uuid.UUID
	ChatId    uuid.UUID
	Document  string
	Blocks    []string // which fence languages matched: "html", "css"
	CreatedAt time.Time
	UpdatedAt *time.Time
}
