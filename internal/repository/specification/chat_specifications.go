package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatID struct {
	ChatID uuid.UUID
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// ByRole narrows messages to one role. The preview extractor uses it so
// only assistant turns can ever produce a document.
type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

// HasMessages keeps only chats that have at least one message. Chats are
// surfaced in the sidebar only once the first turn has been written.
type HasMessages struct{}

func (s HasMessages) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM messages WHERE messages.chat_id = chats.id AND messages.deleted_at IS NULL)")
}
